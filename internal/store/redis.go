package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ocohenran/adcraft/internal/models"
)

const statePrefix = "oauth:state:"

// RedisStateStore implements StateStore backed by Redis. The TTL is enforced
// natively by key expiry, and GETDEL makes consumption single-use even with
// multiple server replicas sharing the instance.
type RedisStateStore struct {
	client *redis.Client
}

// InitRedisStateStore connects to Redis, instruments the client for tracing
// and verifies connectivity.
func InitRedisStateStore(addr string, logger *zap.Logger) (*RedisStateStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("Connected to Redis", zap.String("addr", addr))
	return &RedisStateStore{client: client}, nil
}

// NewRedisStateStore wraps an existing client. Used by tests.
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

func (s *RedisStateStore) Put(ctx context.Context, state string) error {
	if err := s.client.Set(ctx, statePrefix+state, time.Now().UnixMilli(), models.StateTTL).Err(); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

func (s *RedisStateStore) Consume(ctx context.Context, state string) (bool, error) {
	err := s.client.GetDel(ctx, statePrefix+state).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consume state: %w", err)
	}
	return true, nil
}

// Close releases the underlying client.
func (s *RedisStateStore) Close() error {
	return s.client.Close()
}
