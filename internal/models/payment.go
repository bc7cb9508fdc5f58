package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the canonical transaction status vocabulary.
type PaymentStatus string

const (
	StatusInitiated PaymentStatus = "initiated"
	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
	StatusFailed    PaymentStatus = "failed"
	StatusCancelled PaymentStatus = "cancelled"
	StatusExpired   PaymentStatus = "expired"
)

// IsTerminal reports whether no further gateway activity is expected.
// Completed is additionally sticky: cancelled/failed/expired may still be
// revised to completed by a later authoritative lookup, never the reverse.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Payment event types.
const (
	EventPaymentInitiated = "payment.initiated"
	EventCallbackReceived = "payment.callback.received"
	EventLookupCompleted  = "payment.lookup.completed"
	EventLookupFailed     = "payment.lookup.failed"
	EventStatusUpdated    = "payment.status.updated"
)

// Payment event sources.
const (
	EventSourceAPI    = "api"
	EventSourceKhalti = "khalti"
	EventSourceSystem = "system"
)

// Transaction stores one Khalti payment attempt and its settlement state.
type Transaction struct {
	BaseModel
	Provider          string        `gorm:"default:'khalti'" json:"provider"`
	Environment       string        `json:"environment"`
	PurchaseOrderID   string        `gorm:"uniqueIndex" json:"purchase_order_id"`
	PurchaseOrderName string        `json:"purchase_order_name"`
	AmountNPR         float64       `gorm:"column:amount_npr" json:"amount_npr"`
	AmountPaisa       int64         `json:"amount_paisa"`
	Status            PaymentStatus `gorm:"index" json:"status"`
	Pidx              string        `gorm:"index" json:"pidx"`
	PaymentURL        string        `json:"payment_url"`
	ReturnURL         string        `json:"return_url"`
	WebsiteURL        string        `json:"website_url"`
	ExpiresAt         *time.Time    `json:"expires_at"`
	ExpiresIn         *int          `json:"expires_in"`
	CustomerInfo      JSON          `gorm:"type:jsonb" json:"customer_info"`
	Metadata          JSON          `gorm:"type:jsonb" json:"metadata"`

	// Gateway-reported settlement details, filled as signals arrive.
	GatewayTransactionID string `gorm:"column:gateway_transaction_id;index" json:"gateway_transaction_id"`
	Mobile               string `json:"mobile"`

	// Raw provider payloads kept verbatim for audit, never parsed downstream.
	RawInitiateResponse JSON `gorm:"type:jsonb" json:"raw_initiate_response"`
	RawLookupResponse   JSON `gorm:"type:jsonb" json:"raw_lookup_response"`
	RawCallbackQuery    JSON `gorm:"type:jsonb" json:"raw_callback_query"`

	// Set exactly once, on the first transition into a terminal status.
	ConfirmedAt *time.Time `json:"confirmed_at"`
}

// PaymentEvent is one append-only journal entry per received signal.
// Events are never edited or deleted.
type PaymentEvent struct {
	BaseModel
	TransactionID uuid.UUID `gorm:"type:uuid;index" json:"transaction_id"`
	Type          string    `gorm:"index" json:"type"`
	Source        string    `json:"source"`
	Payload       JSON      `gorm:"type:jsonb" json:"payload"`
}
