package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"khaltipay/internal/models"
)

// MockGateway fabricates Khalti-shaped responses without network access so
// the full payment flow can be exercised locally. Outcomes stay Pending
// until the mock checkout scripts one.
type MockGateway struct {
	publicBaseURL string

	mu       sync.Mutex
	payments map[string]*mockPayment
}

type mockPayment struct {
	amount        int64
	orderID       string
	status        string
	transactionID string
	mobile        string
}

func NewMockGateway(publicBaseURL string) *MockGateway {
	return &MockGateway{
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		payments:      make(map[string]*mockPayment),
	}
}

func (g *MockGateway) InitiatePayment(_ context.Context, req InitiateRequest) (models.JSON, error) {
	pidx := "mock-" + uuid.NewString()

	g.mu.Lock()
	g.payments[pidx] = &mockPayment{
		amount:  req.Amount,
		orderID: req.PurchaseOrderID,
		status:  "Pending",
	}
	g.mu.Unlock()

	expiresAt := time.Now().Add(30 * time.Minute)
	return models.JSON{
		"pidx":        pidx,
		"payment_url": fmt.Sprintf("%s/api/v1/payments/mock/checkout/%s", g.publicBaseURL, pidx),
		"expires_at":  expiresAt.Format(time.RFC3339),
		"expires_in":  float64(1800),
	}, nil
}

func (g *MockGateway) LookupPayment(_ context.Context, pidx string) (models.JSON, error) {
	g.mu.Lock()
	payment, ok := g.payments[pidx]
	g.mu.Unlock()

	if !ok {
		return nil, NewUpstreamError("Khalti lookup request failed", models.JSON{
			"detail": "Not found.",
			"pidx":   pidx,
		})
	}

	lookup := models.JSON{
		"pidx":         pidx,
		"total_amount": float64(payment.amount),
		"status":       payment.status,
		"fee":          float64(0),
		"refunded":     false,
	}
	if payment.transactionID != "" {
		lookup["transaction_id"] = payment.transactionID
	}
	if payment.mobile != "" {
		lookup["mobile"] = payment.mobile
	}
	return lookup, nil
}

// SettleOutcome scripts the gateway-side outcome for a pidx; the mock
// checkout handler calls it before redirecting to the merchant callback.
// It returns the callback query the gateway would send.
func (g *MockGateway) SettleOutcome(pidx, status string) (map[string]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	payment, ok := g.payments[pidx]
	if !ok {
		return nil, NewNotFoundError("unknown mock pidx")
	}

	if status == "" {
		status = "Completed"
	}
	payment.status = status

	if strings.EqualFold(status, "Completed") && payment.transactionID == "" {
		payment.transactionID = "mock-txn-" + uuid.NewString()[:8]
		payment.mobile = "98XXXXX001"
	}

	query := map[string]string{
		"pidx":              pidx,
		"status":            payment.status,
		"amount":            fmt.Sprintf("%d", payment.amount),
		"purchase_order_id": payment.orderID,
		"mobile":            payment.mobile,
	}
	if payment.transactionID != "" {
		query["transaction_id"] = payment.transactionID
		query["tidx"] = payment.transactionID
	}
	return query, nil
}
