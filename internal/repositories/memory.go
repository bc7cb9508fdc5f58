package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"khaltipay/internal/models"
)

// MemoryTransactionRepository is an in-process adapter used by tests and by
// the memory store driver. The mutex covers the whole read-modify-write, so
// updates are serialized per store rather than per id; that is a stronger
// guarantee with the same observable behavior.
type MemoryTransactionRepository struct {
	mu   sync.Mutex
	txns []*models.Transaction
}

func NewMemoryTransactionRepository() *MemoryTransactionRepository {
	return &MemoryTransactionRepository{}
}

func (r *MemoryTransactionRepository) Create(_ context.Context, txn *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.txns {
		if existing.PurchaseOrderID == txn.PurchaseOrderID {
			return ErrDuplicateOrderID
		}
	}

	now := time.Now()
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = now
	}
	txn.UpdatedAt = now

	stored := *txn
	r.txns = append(r.txns, &stored)
	return nil
}

func (r *MemoryTransactionRepository) Update(_ context.Context, id uuid.UUID, mutate TransactionMutator) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, stored := range r.txns {
		if stored.ID == id {
			mutate(stored)
			stored.UpdatedAt = time.Now()
			out := *stored
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MemoryTransactionRepository) FindByID(_ context.Context, id uuid.UUID) (*models.Transaction, error) {
	return r.find(func(t *models.Transaction) bool { return t.ID == id })
}

func (r *MemoryTransactionRepository) FindByPidx(_ context.Context, pidx string) (*models.Transaction, error) {
	return r.find(func(t *models.Transaction) bool { return t.Pidx != "" && t.Pidx == pidx })
}

func (r *MemoryTransactionRepository) FindByPurchaseOrderID(_ context.Context, orderID string) (*models.Transaction, error) {
	return r.find(func(t *models.Transaction) bool { return t.PurchaseOrderID == orderID })
}

func (r *MemoryTransactionRepository) List(_ context.Context) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Transaction, 0, len(r.txns))
	for i := len(r.txns) - 1; i >= 0; i-- {
		out = append(out, *r.txns[i])
	}
	return out, nil
}

func (r *MemoryTransactionRepository) find(match func(*models.Transaction) bool) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, stored := range r.txns {
		if match(stored) {
			out := *stored
			return &out, nil
		}
	}
	return nil, nil
}

// MemoryPaymentEventRepository is the in-process journal adapter.
type MemoryPaymentEventRepository struct {
	mu     sync.Mutex
	events []*models.PaymentEvent
}

func NewMemoryPaymentEventRepository() *MemoryPaymentEventRepository {
	return &MemoryPaymentEventRepository{}
}

func (r *MemoryPaymentEventRepository) Append(_ context.Context, event *models.PaymentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	stored := *event
	r.events = append(r.events, &stored)
	return nil
}

func (r *MemoryPaymentEventRepository) List(_ context.Context) ([]models.PaymentEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.PaymentEvent, 0, len(r.events))
	for i := len(r.events) - 1; i >= 0; i-- {
		out = append(out, *r.events[i])
	}
	return out, nil
}

func (r *MemoryPaymentEventRepository) ListByTransaction(_ context.Context, transactionID uuid.UUID) ([]models.PaymentEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.PaymentEvent
	for _, stored := range r.events {
		if stored.TransactionID == transactionID {
			out = append(out, *stored)
		}
	}
	return out, nil
}
