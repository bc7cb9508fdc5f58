package repositories

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"khaltipay/internal/models"
)

const transactionCacheTTL = 30 * time.Second

// TransactionCache is a read-through cache in front of transaction reads.
// A miss or a cache failure is never an error to the caller.
type TransactionCache interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, bool)
	SetTransaction(ctx context.Context, txn *models.Transaction)
	InvalidateTransaction(ctx context.Context, id uuid.UUID)
}

// NoopTransactionCache is used when no REDIS_URL is configured.
type NoopTransactionCache struct{}

func (NoopTransactionCache) GetTransaction(context.Context, uuid.UUID) (*models.Transaction, bool) {
	return nil, false
}
func (NoopTransactionCache) SetTransaction(context.Context, *models.Transaction) {}

func (NoopTransactionCache) InvalidateTransaction(context.Context, uuid.UUID) {}

// RedisTransactionCache caches transactions by id with a short TTL.
type RedisTransactionCache struct {
	client *redis.Client
}

// NewRedisClient opens a redis connection from a redis:// URL.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func NewRedisTransactionCache(client *redis.Client) *RedisTransactionCache {
	return &RedisTransactionCache{client: client}
}

func (c *RedisTransactionCache) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, bool) {
	raw, err := c.client.Get(ctx, transactionKey(id)).Bytes()
	if err != nil {
		return nil, false
	}

	var txn models.Transaction
	if err := json.Unmarshal(raw, &txn); err != nil {
		return nil, false
	}
	return &txn, true
}

func (c *RedisTransactionCache) SetTransaction(ctx context.Context, txn *models.Transaction) {
	raw, err := json.Marshal(txn)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, transactionKey(txn.ID), raw, transactionCacheTTL).Err(); err != nil {
		log.Printf("transaction cache set failed: %v", err)
	}
}

func (c *RedisTransactionCache) InvalidateTransaction(ctx context.Context, id uuid.UUID) {
	if err := c.client.Del(ctx, transactionKey(id)).Err(); err != nil {
		log.Printf("transaction cache invalidate failed: %v", err)
	}
}

func transactionKey(id uuid.UUID) string {
	return "txn:" + id.String()
}
