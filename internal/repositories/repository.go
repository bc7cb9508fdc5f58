package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"khaltipay/internal/models"
)

// ErrDuplicateOrderID is returned by Create when the purchase order id is
// already taken. The gorm adapter surfaces the same condition as the unique
// index violation instead.
var ErrDuplicateOrderID = errors.New("purchase order id already exists")

// TransactionMutator receives the current record and applies in-place changes.
// It runs inside the adapter's critical section for that transaction id.
type TransactionMutator func(current *models.Transaction)

// TransactionRepository is the persistence port for transaction state.
// Update must be atomic per transaction id: concurrent reconciliations for
// the same id may not interleave their read and write phases.
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	// Update applies the mutator under per-id serialization and returns the
	// stored result, or (nil, nil) when the transaction does not exist.
	Update(ctx context.Context, id uuid.UUID, mutate TransactionMutator) (*models.Transaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindByPidx(ctx context.Context, pidx string) (*models.Transaction, error)
	FindByPurchaseOrderID(ctx context.Context, orderID string) (*models.Transaction, error)
	// List returns transactions ordered by creation time, newest first.
	List(ctx context.Context) ([]models.Transaction, error)
}

// PaymentEventRepository is the append-only journal port. Events are never
// mutated or deleted.
type PaymentEventRepository interface {
	Append(ctx context.Context, event *models.PaymentEvent) error
	// List returns all events, newest first.
	List(ctx context.Context) ([]models.PaymentEvent, error)
	// ListByTransaction returns one transaction's events, oldest first.
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]models.PaymentEvent, error)
}
