package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"khaltipay/internal/models"
)

func TestNormalizeKhaltiStatus(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  models.PaymentStatus
	}{
		{"completed", "Completed", models.StatusCompleted},
		{"completed lowercase", "completed", models.StatusCompleted},
		{"pending", "Pending", models.StatusPending},
		{"initiated maps to pending", "Initiated", models.StatusPending},
		{"user canceled", "User canceled", models.StatusCancelled},
		{"user canceled mixed case", "USER CANCELED", models.StatusCancelled},
		{"expired", "Expired", models.StatusExpired},
		{"unknown fails closed", "Refunded", models.StatusFailed},
		{"empty fails closed", "", models.StatusFailed},
		{"garbage fails closed", "    something odd ", models.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKhaltiStatus(tt.input))
		})
	}
}

func TestPaymentStatusIsTerminal(t *testing.T) {
	assert.False(t, models.StatusInitiated.IsTerminal())
	assert.False(t, models.StatusPending.IsTerminal())
	assert.True(t, models.StatusCompleted.IsTerminal())
	assert.True(t, models.StatusCancelled.IsTerminal())
	assert.True(t, models.StatusFailed.IsTerminal())
	assert.True(t, models.StatusExpired.IsTerminal())
}
