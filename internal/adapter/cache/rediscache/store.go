// Package rediscache stores cache records in Redis, one string key per query.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/heartmarshall/leocli/internal/cache"
	"github.com/heartmarshall/leocli/internal/config"
	"github.com/heartmarshall/leocli/internal/domain"
)

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// Store implements cache.Store on Redis.
type Store struct {
	rdb    redisClient
	prefix string
	ttl    time.Duration
	log    *slog.Logger
}

// NewClient creates a Redis client and verifies the connection with a PING.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("rediscache: ping: %w", err)
	}
	return rdb, nil
}

// New creates a Store. Keys are written with expiration ttl; zero keeps
// them until evicted.
func New(rdb redisClient, prefix string, ttl time.Duration, logger *slog.Logger) *Store {
	return &Store{
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
		log:    logger.With("adapter", "rediscache"),
	}
}

// Key returns the Redis key a record for q is stored under.
func (s *Store) Key(q domain.Query) string {
	return s.prefix + q.Lang2 + ":" + q.Lang1 + ":" + cache.KeyHash(q.Key())
}

// Load fetches the record for q.
func (s *Store) Load(ctx context.Context, q domain.Query) (*cache.Record, error) {
	key := s.Key(q)
	val, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cache.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("rediscache: get %s: %w", key, err)
	}

	rec, err := cache.Unmarshal(val)
	if err != nil {
		s.log.WarnContext(ctx, "corrupt cache value",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, cache.ErrCacheMiss
	}
	return rec, nil
}

// Save replaces the record for q with a single SET.
func (s *Store) Save(ctx context.Context, q domain.Query, rec *cache.Record) error {
	b, err := cache.Marshal(rec)
	if err != nil {
		return err
	}
	key := s.Key(q)
	if err := s.rdb.Set(ctx, key, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("rediscache: set %s: %w", key, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
