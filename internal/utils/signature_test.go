package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCallbackSignaturePayload(t *testing.T) {
	payload := BuildCallbackSignaturePayload("pidx-1", "Completed", "10000", "ORD-1")
	assert.Equal(t, "pidx=pidx-1&status=Completed&amount=10000&purchase_order_id=ORD-1", payload)
}

func TestIsValidCallbackSignature(t *testing.T) {
	const secret = "test-secret-key"
	payload := BuildCallbackSignaturePayload("pidx-1", "Completed", "10000", "ORD-1")
	signature := ComputeCallbackSignature(payload, secret)

	t.Run("valid signature", func(t *testing.T) {
		assert.True(t, IsValidCallbackSignature(payload, signature, secret))
	})

	t.Run("wrong secret", func(t *testing.T) {
		assert.False(t, IsValidCallbackSignature(payload, signature, "other-secret"))
	})

	t.Run("tampered payload", func(t *testing.T) {
		tampered := BuildCallbackSignaturePayload("pidx-1", "Completed", "99999", "ORD-1")
		assert.False(t, IsValidCallbackSignature(tampered, signature, secret))
	})

	t.Run("missing signature", func(t *testing.T) {
		assert.False(t, IsValidCallbackSignature(payload, "", secret))
	})

	t.Run("missing secret", func(t *testing.T) {
		assert.False(t, IsValidCallbackSignature(payload, signature, ""))
	})
}
