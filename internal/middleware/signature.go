package middleware

import (
	"github.com/gofiber/fiber/v2"

	"khaltipay/internal/config"
	"khaltipay/internal/services"
	"khaltipay/internal/utils"
)

const signatureHeader = "X-Khalti-Signature"

// CallbackSignatureMiddleware verifies the HMAC signature on the gateway
// callback. In permissive mode an absent or invalid signature is allowed
// through; in strict mode it fails with 403 before the handler runs.
func CallbackSignatureMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !cfg.StrictCallbackSignature {
			return c.Next()
		}

		payload := utils.BuildCallbackSignaturePayload(
			c.Query("pidx"),
			c.Query("status"),
			c.Query("amount"),
			c.Query("purchase_order_id"),
		)

		signature := c.Get(signatureHeader)
		if !utils.IsValidCallbackSignature(payload, signature, cfg.KhaltiSecretKey) {
			return services.NewUnauthenticatedError("invalid callback signature")
		}

		return c.Next()
	}
}
