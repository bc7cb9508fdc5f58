package services

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"khaltipay/internal/config"
	"khaltipay/internal/models"
	"khaltipay/internal/repositories"
)

// PaymentService coordinates the payment lifecycle: initiation against the
// gateway, callback handling, authoritative lookups and settlement of the
// resulting signals into one durable transaction record.
type PaymentService struct {
	cfg          *config.Config
	gateway      GatewayClient
	transactions repositories.TransactionRepository
	events       repositories.PaymentEventRepository
	cache        repositories.TransactionCache
	publisher    EventPublisher
}

func NewPaymentService(
	cfg *config.Config,
	gateway GatewayClient,
	transactions repositories.TransactionRepository,
	events repositories.PaymentEventRepository,
	cache repositories.TransactionCache,
	publisher EventPublisher,
) *PaymentService {
	return &PaymentService{
		cfg:          cfg,
		gateway:      gateway,
		transactions: transactions,
		events:       events,
		cache:        cache,
		publisher:    publisher,
	}
}

// InitiatePaymentInput carries the validated merchant-side initiation request.
type InitiatePaymentInput struct {
	AmountNPR         float64
	PurchaseOrderID   string
	PurchaseOrderName string
	CustomerInfo      models.JSON
	Metadata          models.JSON
}

// SettlementSignal is one unit of externally reported outcome information.
// Optional fields merge independently: gateway transaction id and mobile are
// first-non-empty-wins, each raw payload kind is newest-wins.
type SettlementSignal struct {
	Status               models.PaymentStatus
	GatewayTransactionID string
	Mobile               string
	RawCallbackQuery     models.JSON
	RawLookupResponse    models.JSON
}

// InitiatePayment starts a payment attempt with the gateway. A gateway
// failure leaves no transaction record behind.
func (s *PaymentService) InitiatePayment(ctx context.Context, input InitiatePaymentInput) (*models.Transaction, error) {
	existing, err := s.transactions.FindByPurchaseOrderID(ctx, input.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("purchase order id already exists")
	}

	amountPaisa := int64(math.Round(input.AmountNPR * 100))

	initiateReq := InitiateRequest{
		ReturnURL:         s.cfg.CallbackURL,
		WebsiteURL:        s.cfg.WebsiteURL,
		Amount:            amountPaisa,
		PurchaseOrderID:   input.PurchaseOrderID,
		PurchaseOrderName: input.PurchaseOrderName,
	}
	if len(input.CustomerInfo) > 0 {
		initiateReq.CustomerInfo = input.CustomerInfo
	}

	providerResp, err := s.gateway.InitiatePayment(ctx, initiateReq)
	if err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		Provider:            "khalti",
		Environment:         s.cfg.KhaltiEnvironment,
		PurchaseOrderID:     input.PurchaseOrderID,
		PurchaseOrderName:   input.PurchaseOrderName,
		AmountNPR:           input.AmountNPR,
		AmountPaisa:         amountPaisa,
		Status:              models.StatusInitiated,
		Pidx:                jsonString(providerResp, "pidx"),
		PaymentURL:          jsonString(providerResp, "payment_url"),
		ReturnURL:           s.cfg.CallbackURL,
		WebsiteURL:          s.cfg.WebsiteURL,
		CustomerInfo:        input.CustomerInfo,
		Metadata:            input.Metadata,
		RawInitiateResponse: providerResp,
	}

	if v := jsonString(providerResp, "expires_at"); v != "" {
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			txn.ExpiresAt = &parsed
		}
	}
	if v, ok := providerResp["expires_in"].(float64); ok {
		expiresIn := int(v)
		txn.ExpiresIn = &expiresIn
	}

	if err := s.transactions.Create(ctx, txn); err != nil {
		if errors.Is(err, repositories.ErrDuplicateOrderID) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewConflictError("purchase order id already exists")
		}
		return nil, err
	}

	if err := s.recordEvent(ctx, txn.ID, models.EventPaymentInitiated, models.EventSourceAPI, models.JSON{
		"request":  initiateReq,
		"response": providerResp,
	}); err != nil {
		return nil, err
	}

	return txn, nil
}

// HandleCallback processes the gateway's return redirect. The raw query is
// journaled before reconciliation so the signal survives a later failure,
// then the authoritative lookup refines the outcome.
func (s *PaymentService) HandleCallback(ctx context.Context, query map[string]string) (*models.Transaction, error) {
	txn, err := s.transactions.FindByPidx(ctx, query["pidx"])
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, NewNotFoundError("transaction not found for pidx")
	}

	rawQuery := make(models.JSON, len(query))
	for k, v := range query {
		rawQuery[k] = v
	}

	if err := s.recordEvent(ctx, txn.ID, models.EventCallbackReceived, models.EventSourceKhalti, rawQuery); err != nil {
		return nil, err
	}

	// transaction_id and tidx are alternate wire names for the same value.
	gatewayTxnID := query["transaction_id"]
	if gatewayTxnID == "" {
		gatewayTxnID = query["tidx"]
	}

	if _, err := s.Reconcile(ctx, txn.ID, SettlementSignal{
		Status:               NormalizeKhaltiStatus(query["status"]),
		GatewayTransactionID: gatewayTxnID,
		Mobile:               query["mobile"],
		RawCallbackQuery:     rawQuery,
	}); err != nil {
		return nil, err
	}

	return s.LookupAndSync(ctx, txn.ID)
}

// LookupAndSync queries the gateway for the authoritative payment state and
// settles the result. Lookup failures are journaled, then propagated
// unchanged; reconciliation is never attempted with a failed lookup.
func (s *PaymentService) LookupAndSync(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	txn, err := s.transactions.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, NewNotFoundError("transaction not found")
	}
	if txn.Pidx == "" {
		return nil, NewBadRequestError("transaction does not have a Khalti pidx")
	}

	lookup, err := s.gateway.LookupPayment(ctx, txn.Pidx)
	if err != nil {
		payload := models.JSON{"message": err.Error()}
		var perr *PaymentError
		if errors.As(err, &perr) && perr.Details != nil {
			payload["details"] = perr.Details
		}
		if journalErr := s.recordEvent(ctx, txn.ID, models.EventLookupFailed, models.EventSourceSystem, payload); journalErr != nil {
			log.Printf("failed to journal lookup failure for transaction %s: %v", txn.ID, journalErr)
		}
		return nil, err
	}

	if err := s.recordEvent(ctx, txn.ID, models.EventLookupCompleted, models.EventSourceKhalti, lookup); err != nil {
		return nil, err
	}

	return s.Reconcile(ctx, txn.ID, SettlementSignal{
		Status:               NormalizeKhaltiStatus(jsonString(lookup, "status")),
		GatewayTransactionID: jsonString(lookup, "transaction_id"),
		Mobile:               jsonString(lookup, "mobile"),
		RawLookupResponse:    lookup,
	})
}

// Reconcile merges one settlement signal into the transaction's durable
// state. The read-modify-write runs inside the repository's per-id critical
// section, so concurrent signals for the same transaction serialize.
//
// Status policy: completed is sticky; any other current status is replaced
// by the signal's status unconditionally, so a later authoritative signal
// may revise cancelled/failed/expired (including back to pending when the
// gateway re-polls).
func (s *PaymentService) Reconcile(ctx context.Context, transactionID uuid.UUID, signal SettlementSignal) (*models.Transaction, error) {
	var before models.Transaction

	updated, err := s.transactions.Update(ctx, transactionID, func(current *models.Transaction) {
		before = *current

		if current.Status != models.StatusCompleted {
			current.Status = signal.Status
		}

		if signal.Status.IsTerminal() && current.ConfirmedAt == nil {
			now := time.Now()
			current.ConfirmedAt = &now
		}

		if current.GatewayTransactionID == "" && signal.GatewayTransactionID != "" {
			current.GatewayTransactionID = signal.GatewayTransactionID
		}
		if current.Mobile == "" && signal.Mobile != "" {
			current.Mobile = signal.Mobile
		}
		if signal.RawCallbackQuery != nil {
			current.RawCallbackQuery = signal.RawCallbackQuery
		}
		if signal.RawLookupResponse != nil {
			current.RawLookupResponse = signal.RawLookupResponse
		}
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, NewNotFoundError("transaction not found")
	}

	s.cache.InvalidateTransaction(ctx, transactionID)

	if materiallyChanged(&before, updated) {
		if err := s.recordEvent(ctx, updated.ID, models.EventStatusUpdated, models.EventSourceSystem, models.JSON{
			"status":         updated.Status,
			"transaction_id": updated.GatewayTransactionID,
		}); err != nil {
			return nil, err
		}
		s.publisher.PublishStatusUpdate(updated)
	}

	return updated, nil
}

// materiallyChanged reports whether a signal altered visible transaction
// state. Raw payload refreshes alone don't count, which keeps idempotent
// re-deliveries from spamming the journal.
func materiallyChanged(before, after *models.Transaction) bool {
	if before.Status != after.Status {
		return true
	}
	if before.GatewayTransactionID != after.GatewayTransactionID {
		return true
	}
	if before.Mobile != after.Mobile {
		return true
	}
	if (before.ConfirmedAt == nil) != (after.ConfirmedAt == nil) {
		return true
	}
	return false
}

// GetTransaction returns one transaction plus its journal, oldest first.
func (s *PaymentService) GetTransaction(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, []models.PaymentEvent, error) {
	txn, ok := s.cache.GetTransaction(ctx, transactionID)
	if !ok {
		var err error
		txn, err = s.transactions.FindByID(ctx, transactionID)
		if err != nil {
			return nil, nil, err
		}
		if txn == nil {
			return nil, nil, NewNotFoundError("transaction not found")
		}
		s.cache.SetTransaction(ctx, txn)
	}

	events, err := s.events.ListByTransaction(ctx, transactionID)
	if err != nil {
		return nil, nil, err
	}
	return txn, events, nil
}

// GetTransactionByPidx resolves a transaction by its gateway reference id.
func (s *PaymentService) GetTransactionByPidx(ctx context.Context, pidx string) (*models.Transaction, error) {
	txn, err := s.transactions.FindByPidx(ctx, pidx)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, NewNotFoundError("transaction not found for pidx")
	}
	return txn, nil
}

// ListTransactions returns all transactions, newest first.
func (s *PaymentService) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.transactions.List(ctx)
}

// ListPaymentEvents returns the full journal, newest first.
func (s *PaymentService) ListPaymentEvents(ctx context.Context) ([]models.PaymentEvent, error) {
	return s.events.List(ctx)
}

func (s *PaymentService) recordEvent(ctx context.Context, transactionID uuid.UUID, eventType, source string, payload models.JSON) error {
	return s.events.Append(ctx, &models.PaymentEvent{
		TransactionID: transactionID,
		Type:          eventType,
		Source:        source,
		Payload:       payload,
	})
}

func jsonString(m models.JSON, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
