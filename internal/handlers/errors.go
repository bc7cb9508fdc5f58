package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"khaltipay/internal/services"
)

// ErrorHandler maps service errors onto HTTP responses. It is installed as
// the Fiber app's central error handler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var paymentErr *services.PaymentError
	if errors.As(err, &paymentErr) {
		body := fiber.Map{"error": paymentErr.Message}
		if paymentErr.Details != nil {
			body["details"] = paymentErr.Details
		}
		return c.Status(paymentErr.Code).JSON(body)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}

	log.Printf("unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}
