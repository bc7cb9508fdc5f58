package handlers

import (
	"crypto/subtle"
	"fmt"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"khaltipay/internal/config"
	"khaltipay/internal/models"
	"khaltipay/internal/services"
	"khaltipay/internal/utils"
)

// PaymentHandler manages the payment API endpoints.
type PaymentHandler struct {
	cfg     *config.Config
	service *services.PaymentService
	mock    *services.MockGateway
}

// NewPaymentHandler wires the handler. mock is nil in live mode.
func NewPaymentHandler(cfg *config.Config, service *services.PaymentService, mock *services.MockGateway) *PaymentHandler {
	return &PaymentHandler{cfg: cfg, service: service, mock: mock}
}

type initiatePaymentRequest struct {
	Amount            float64     `json:"amount"`
	PurchaseOrderID   string      `json:"purchase_order_id"`
	PurchaseOrderName string      `json:"purchase_order_name"`
	CustomerInfo      models.JSON `json:"customer_info"`
	Metadata          models.JSON `json:"metadata"`
}

type tokenRequest struct {
	APIKey string `json:"api_key"`
}

// Health reports provider, mode and callback URL.
func (h *PaymentHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"ok":           true,
		"provider":     "khalti",
		"environment":  h.cfg.KhaltiEnvironment,
		"mode":         h.cfg.KhaltiMode,
		"callback_url": h.cfg.CallbackURL,
	})
}

// InitiatePayment starts a payment attempt.
func (h *PaymentHandler) InitiatePayment(c *fiber.Ctx) error {
	var req initiatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Amount < 1 {
		return fiber.NewError(fiber.StatusBadRequest, "amount must be at least 1 NPR")
	}
	if strings.TrimSpace(req.PurchaseOrderID) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "purchase_order_id is required")
	}
	if strings.TrimSpace(req.PurchaseOrderName) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "purchase_order_name is required")
	}

	txn, err := h.service.InitiatePayment(c.Context(), services.InitiatePaymentInput{
		AmountNPR:         req.Amount,
		PurchaseOrderID:   strings.TrimSpace(req.PurchaseOrderID),
		PurchaseOrderName: strings.TrimSpace(req.PurchaseOrderName),
		CustomerInfo:      req.CustomerInfo,
		Metadata:          req.Metadata,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Payment initiated",
		"data":    txn,
	})
}

// ListTransactions returns all transactions, newest first.
func (h *PaymentHandler) ListTransactions(c *fiber.Ctx) error {
	txns, err := h.service.ListTransactions(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": txns})
}

// GetTransaction returns one transaction with its event journal.
func (h *PaymentHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("transactionId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid transaction id")
	}

	txn, events, err := h.service.GetTransaction(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": fiber.Map{
		"transaction": txn,
		"events":      events,
	}})
}

// ListPaymentEvents returns the full journal, newest first.
func (h *PaymentHandler) ListPaymentEvents(c *fiber.Ctx) error {
	events, err := h.service.ListPaymentEvents(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": events})
}

// HandleCallback processes the gateway return redirect.
func (h *PaymentHandler) HandleCallback(c *fiber.Ctx) error {
	query := c.Queries()
	if query["pidx"] == "" {
		return fiber.NewError(fiber.StatusBadRequest, "pidx is required")
	}

	txn, err := h.service.HandleCallback(c.Context(), query)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Callback processed",
		"data":    txn,
	})
}

// RenderMockCheckout serves the simulated checkout page in mock mode.
func (h *PaymentHandler) RenderMockCheckout(c *fiber.Ctx) error {
	if h.mock == nil {
		return services.NewNotFoundError("mock checkout route is unavailable in live mode")
	}

	txn, err := h.service.GetTransactionByPidx(c.Context(), c.Params("pidx"))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head><meta charset="utf-8" /><title>Mock Khalti Checkout</title></head>
  <body>
    <h1>Mock Khalti Checkout</h1>
    <p>Order: <code>%s</code></p>
    <p>PIDX: <code>%s</code></p>
    <p>Amount: NPR %.2f</p>
    <form method="post" action="/api/v1/payments/mock/checkout/%s/complete?status=Completed">
      <button type="submit">Simulate Successful Payment</button>
    </form>
    <form method="post" action="/api/v1/payments/mock/checkout/%s/complete?status=User%%20canceled">
      <button type="submit">Simulate User Cancellation</button>
    </form>
  </body>
</html>`, txn.PurchaseOrderID, txn.Pidx, txn.AmountNPR, txn.Pidx, txn.Pidx))
}

// CompleteMockCheckout scripts the gateway outcome and redirects to the
// merchant callback the way Khalti would.
func (h *PaymentHandler) CompleteMockCheckout(c *fiber.Ctx) error {
	if h.mock == nil {
		return services.NewNotFoundError("mock checkout route is unavailable in live mode")
	}

	callbackQuery, err := h.mock.SettleOutcome(c.Params("pidx"), c.Query("status"))
	if err != nil {
		return err
	}

	values := url.Values{}
	for k, v := range callbackQuery {
		values.Set(k, v)
	}

	return c.Redirect(h.cfg.CallbackPath+"?"+values.Encode(), fiber.StatusFound)
}

// IssueToken exchanges the merchant API key for a dashboard JWT.
func (h *PaymentHandler) IssueToken(c *fiber.Ctx) error {
	var req tokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if h.cfg.MerchantAPIKey == "" ||
		subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(h.cfg.MerchantAPIKey)) != 1 {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid api key")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, h.cfg.TokenExpires)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"token": token})
}
