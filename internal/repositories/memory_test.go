package repositories

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"khaltipay/internal/models"
)

func TestMemoryTransactionRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create assigns identity and enforces order uniqueness", func(t *testing.T) {
		repo := NewMemoryTransactionRepository()

		txn := &models.Transaction{PurchaseOrderID: "ORD-1", Status: models.StatusInitiated}
		require.NoError(t, repo.Create(ctx, txn))
		assert.NotEqual(t, uuid.Nil, txn.ID)
		assert.False(t, txn.CreatedAt.IsZero())

		err := repo.Create(ctx, &models.Transaction{PurchaseOrderID: "ORD-1"})
		assert.ErrorIs(t, err, ErrDuplicateOrderID)
	})

	t.Run("lookups", func(t *testing.T) {
		repo := NewMemoryTransactionRepository()
		txn := &models.Transaction{PurchaseOrderID: "ORD-1", Pidx: "pidx-1"}
		require.NoError(t, repo.Create(ctx, txn))

		byID, err := repo.FindByID(ctx, txn.ID)
		require.NoError(t, err)
		require.NotNil(t, byID)

		byPidx, err := repo.FindByPidx(ctx, "pidx-1")
		require.NoError(t, err)
		require.NotNil(t, byPidx)
		assert.Equal(t, txn.ID, byPidx.ID)

		byOrder, err := repo.FindByPurchaseOrderID(ctx, "ORD-1")
		require.NoError(t, err)
		require.NotNil(t, byOrder)

		missing, err := repo.FindByPidx(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, missing)

		// An empty pidx must never match a transaction that has none yet.
		require.NoError(t, repo.Create(ctx, &models.Transaction{PurchaseOrderID: "ORD-2"}))
		none, err := repo.FindByPidx(ctx, "")
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("list is newest first", func(t *testing.T) {
		repo := NewMemoryTransactionRepository()
		for _, orderID := range []string{"ORD-1", "ORD-2", "ORD-3"} {
			require.NoError(t, repo.Create(ctx, &models.Transaction{PurchaseOrderID: orderID}))
		}

		txns, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, txns, 3)
		assert.Equal(t, "ORD-3", txns[0].PurchaseOrderID)
		assert.Equal(t, "ORD-1", txns[2].PurchaseOrderID)
	})

	t.Run("update returns nil for unknown id", func(t *testing.T) {
		repo := NewMemoryTransactionRepository()

		updated, err := repo.Update(ctx, uuid.New(), func(*models.Transaction) {})
		require.NoError(t, err)
		assert.Nil(t, updated)
	})

	t.Run("concurrent updates never lose a write", func(t *testing.T) {
		repo := NewMemoryTransactionRepository()
		txn := &models.Transaction{PurchaseOrderID: "ORD-1"}
		require.NoError(t, repo.Create(ctx, txn))

		const workers = 100
		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				_, err := repo.Update(ctx, txn.ID, func(current *models.Transaction) {
					current.AmountPaisa++
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		stored, err := repo.FindByID(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(workers), stored.AmountPaisa)
	})

	t.Run("returned copies do not alias the store", func(t *testing.T) {
		repo := NewMemoryTransactionRepository()
		txn := &models.Transaction{PurchaseOrderID: "ORD-1", Status: models.StatusInitiated}
		require.NoError(t, repo.Create(ctx, txn))

		found, err := repo.FindByID(ctx, txn.ID)
		require.NoError(t, err)
		found.Status = models.StatusCompleted

		again, err := repo.FindByID(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInitiated, again.Status)
	})
}

func TestMemoryPaymentEventRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("ordering", func(t *testing.T) {
		repo := NewMemoryPaymentEventRepository()
		txnID := uuid.New()
		otherID := uuid.New()

		for _, eventType := range []string{
			models.EventPaymentInitiated,
			models.EventCallbackReceived,
			models.EventStatusUpdated,
		} {
			require.NoError(t, repo.Append(ctx, &models.PaymentEvent{
				TransactionID: txnID,
				Type:          eventType,
				Source:        models.EventSourceSystem,
			}))
		}
		require.NoError(t, repo.Append(ctx, &models.PaymentEvent{
			TransactionID: otherID,
			Type:          models.EventPaymentInitiated,
		}))

		newest, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, newest, 4)
		assert.Equal(t, otherID, newest[0].TransactionID)

		oldest, err := repo.ListByTransaction(ctx, txnID)
		require.NoError(t, err)
		require.Len(t, oldest, 3)
		assert.Equal(t, models.EventPaymentInitiated, oldest[0].Type)
		assert.Equal(t, models.EventStatusUpdated, oldest[2].Type)
	})
}
