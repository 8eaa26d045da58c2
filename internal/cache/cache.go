// Package cache persists lookup results so repeated queries skip the
// network. Storage is pluggable; see the adapter/cache packages.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/leocli/internal/domain"
)

// ErrCacheMiss is returned by Lookup when no usable record exists.
// Stores return it from Load when nothing is stored under the query.
var ErrCacheMiss = errors.New("cache miss")

// Store is a persistence backend for records. Save must replace any
// existing record for the query atomically.
type Store interface {
	Load(ctx context.Context, q domain.Query) (*Record, error)
	Save(ctx context.Context, q domain.Query, rec *Record) error
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Cache reads and writes lookup results through a Store.
type Cache struct {
	store Store
	log   *slog.Logger
	ttl   time.Duration
	now   func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL makes records unused for longer than ttl read as misses.
// Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache over store.
func New(store Store, logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		store: store,
		log:   logger.With("component", "cache"),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping checks the backing store when it supports it.
func (c *Cache) Ping(ctx context.Context) error {
	if p, ok := c.store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Lookup returns the cached result set for q and records the use. Any
// record that is absent, expired, of another format version, stored for a
// different key, or undecodable is reported as ErrCacheMiss.
func (c *Cache) Lookup(ctx context.Context, q domain.Query) (domain.ResultSet, error) {
	key := q.Key()

	rec, err := c.store.Load(ctx, q)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("cache: load: %w", err)
	}

	if rec.Format != CurrentFormat {
		c.log.DebugContext(ctx, "cache record format mismatch",
			slog.String("key", key),
			slog.String("format", rec.Format),
		)
		return nil, ErrCacheMiss
	}
	if rec.Key != key {
		c.log.WarnContext(ctx, "cache record key mismatch",
			slog.String("key", key),
			slog.String("stored_key", rec.Key),
		)
		return nil, ErrCacheMiss
	}

	now := c.now()
	if c.ttl > 0 && now.Sub(time.Unix(rec.LastUsed, 0)) > c.ttl {
		return nil, ErrCacheMiss
	}

	rs, err := DecodeData(rec.Data)
	if err != nil {
		c.log.WarnContext(ctx, "cache record undecodable",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, ErrCacheMiss
	}

	rec.LastUsed = now.Unix()
	rec.NumUsed++
	if err := c.store.Save(ctx, q, rec); err != nil {
		c.log.WarnContext(ctx, "cache touch failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}

	return rs, nil
}

// Store writes rs under q with a fresh use count, replacing any previous record.
func (c *Cache) Store(ctx context.Context, q domain.Query, rs domain.ResultSet) error {
	rec := &Record{
		Format:   CurrentFormat,
		Key:      q.Key(),
		LastUsed: c.now().Unix(),
		NumUsed:  1,
		Data:     EncodeData(rs),
	}
	if err := c.store.Save(ctx, q, rec); err != nil {
		return fmt.Errorf("cache: save: %w", err)
	}
	return nil
}
