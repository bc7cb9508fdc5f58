package services

import (
	"encoding/json"
	"log"

	"github.com/nats-io/nats.go"

	"khaltipay/internal/models"
)

// StatusSubject is the subject status-change notifications are published on.
const StatusSubject = "payments.status.updated"

// EventPublisher notifies downstream consumers of settled status changes.
// Publication is fire-and-forget: a broker failure never fails the request
// that produced the change; the journal remains the source of truth.
type EventPublisher interface {
	PublishStatusUpdate(txn *models.Transaction)
}

// NoopPublisher is used when no NATS_URL is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishStatusUpdate(*models.Transaction) {}

// NatsPublisher publishes status changes to NATS.
type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(natsURL string) (*NatsPublisher, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, err
	}
	return &NatsPublisher{conn: conn}, nil
}

func (p *NatsPublisher) PublishStatusUpdate(txn *models.Transaction) {
	payload, err := json.Marshal(map[string]interface{}{
		"transaction_id":         txn.ID,
		"purchase_order_id":      txn.PurchaseOrderID,
		"status":                 txn.Status,
		"gateway_transaction_id": txn.GatewayTransactionID,
		"amount_paisa":           txn.AmountPaisa,
	})
	if err != nil {
		return
	}
	if err := p.conn.Publish(StatusSubject, payload); err != nil {
		log.Printf("nats publish failed for transaction %s: %v", txn.ID, err)
	}
}

// Close drains the underlying connection.
func (p *NatsPublisher) Close() {
	p.conn.Close()
}
