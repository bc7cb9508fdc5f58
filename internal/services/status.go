package services

import (
	"strings"

	"khaltipay/internal/models"
)

// NormalizeKhaltiStatus maps Khalti's free-text status vocabulary onto the
// canonical enumeration. Unrecognized or empty input maps to failed: an
// unknown status is never treated as success.
func NormalizeKhaltiStatus(status string) models.PaymentStatus {
	switch strings.ToLower(status) {
	case "completed":
		return models.StatusCompleted
	case "pending", "initiated":
		return models.StatusPending
	case "user canceled":
		return models.StatusCancelled
	case "expired":
		return models.StatusExpired
	default:
		return models.StatusFailed
	}
}
