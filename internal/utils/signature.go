package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// BuildCallbackSignaturePayload returns the canonical string the webhook
// signature is computed over. The field order is part of the contract.
func BuildCallbackSignaturePayload(pidx, status, amount, purchaseOrderID string) string {
	return fmt.Sprintf("pidx=%s&status=%s&amount=%s&purchase_order_id=%s", pidx, status, amount, purchaseOrderID)
}

// ComputeCallbackSignature returns the base64 HMAC-SHA256 of the payload.
func ComputeCallbackSignature(payload, secretKey string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// IsValidCallbackSignature compares the received signature against the
// expected one in constant time.
func IsValidCallbackSignature(payload, receivedSignature, secretKey string) bool {
	if receivedSignature == "" || secretKey == "" {
		return false
	}

	expected := ComputeCallbackSignature(payload, secretKey)
	if len(expected) != len(receivedSignature) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(receivedSignature)) == 1
}
