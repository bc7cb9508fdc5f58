package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"khaltipay/internal/models"
)

// GormTransactionRepository persists transactions in Postgres via gorm.
type GormTransactionRepository struct {
	db *gorm.DB
}

func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// Update locks the row for the duration of the read-modify-write so that
// concurrent reconciliations for the same id serialize instead of losing
// updates.
func (r *GormTransactionRepository) Update(ctx context.Context, id uuid.UUID, mutate TransactionMutator) (*models.Transaction, error) {
	var updated *models.Transaction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Transaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		mutate(&current)

		if err := tx.Save(&current).Error; err != nil {
			return err
		}
		updated = &current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *GormTransactionRepository) FindByPidx(ctx context.Context, pidx string) (*models.Transaction, error) {
	return r.findOne(ctx, "pidx = ?", pidx)
}

func (r *GormTransactionRepository) FindByPurchaseOrderID(ctx context.Context, orderID string) (*models.Transaction, error) {
	return r.findOne(ctx, "purchase_order_id = ?", orderID)
}

func (r *GormTransactionRepository) List(ctx context.Context) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := r.db.WithContext(ctx).
		Order("created_at desc").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *GormTransactionRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).Where(query, arg).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// GormPaymentEventRepository persists the append-only journal via gorm.
type GormPaymentEventRepository struct {
	db *gorm.DB
}

func NewGormPaymentEventRepository(db *gorm.DB) *GormPaymentEventRepository {
	return &GormPaymentEventRepository{db: db}
}

func (r *GormPaymentEventRepository) Append(ctx context.Context, event *models.PaymentEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *GormPaymentEventRepository) List(ctx context.Context) ([]models.PaymentEvent, error) {
	var events []models.PaymentEvent
	if err := r.db.WithContext(ctx).
		Order("created_at desc").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *GormPaymentEventRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]models.PaymentEvent, error) {
	var events []models.PaymentEvent
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at asc").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
