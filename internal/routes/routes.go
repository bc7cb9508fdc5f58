package routes

import (
	"github.com/gofiber/fiber/v2"

	"khaltipay/internal/config"
	"khaltipay/internal/handlers"
	"khaltipay/internal/middleware"
	"khaltipay/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, cfg *config.Config, service *services.PaymentService, mock *services.MockGateway) {
	paymentHandler := handlers.NewPaymentHandler(cfg, service, mock)

	api := app.Group("/api/v1")

	api.Get("/health", paymentHandler.Health)
	api.Post("/auth/token", paymentHandler.IssueToken)

	payments := api.Group("/payments")
	payments.Post("/initiate", paymentHandler.InitiatePayment)
	payments.Get("/callback/khalti", middleware.CallbackSignatureMiddleware(cfg), paymentHandler.HandleCallback)
	payments.Get("/mock/checkout/:pidx", paymentHandler.RenderMockCheckout)
	payments.Post("/mock/checkout/:pidx/complete", paymentHandler.CompleteMockCheckout)

	// Merchant dashboard endpoints.
	payments.Get("/", middleware.AuthMiddleware(cfg), paymentHandler.ListTransactions)
	payments.Get("/events", middleware.AuthMiddleware(cfg), paymentHandler.ListPaymentEvents)
	payments.Get("/:transactionId", middleware.AuthMiddleware(cfg), paymentHandler.GetTransaction)
}
