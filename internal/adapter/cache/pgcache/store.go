// Package pgcache stores cache records in the PostgreSQL lookup_cache table.
package pgcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"

	"github.com/heartmarshall/leocli/internal/adapter/postgres"
	"github.com/heartmarshall/leocli/internal/cache"
	"github.com/heartmarshall/leocli/internal/domain"
)

const table = "lookup_cache"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store implements cache.Store on PostgreSQL.
type Store struct {
	db  postgres.Querier
	log *slog.Logger
}

// New creates a Store over db, typically a *pgxpool.Pool.
func New(db postgres.Querier, logger *slog.Logger) *Store {
	return &Store{
		db:  db,
		log: logger.With("adapter", "pgcache"),
	}
}

// Load reads the record for q.
func (s *Store) Load(ctx context.Context, q domain.Query) (*cache.Record, error) {
	key := q.Key()

	query, args, err := psql.
		Select("cache_format", "cache_key", "last_used", "num_used", "data").
		From(table).
		Where(sq.Eq{"cache_key": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("pgcache: build select: %w", err)
	}

	var (
		rec  cache.Record
		data []byte
	)
	err = s.db.QueryRow(ctx, query, args...).Scan(&rec.Format, &rec.Key, &rec.LastUsed, &rec.NumUsed, &data)
	if err != nil {
		mapped := postgres.MapError(err, table, key)
		if errors.Is(mapped, domain.ErrNotFound) {
			return nil, cache.ErrCacheMiss
		}
		return nil, fmt.Errorf("pgcache: %w", mapped)
	}

	if err := json.Unmarshal(data, &rec.Data); err != nil {
		s.log.WarnContext(ctx, "corrupt cache row",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, cache.ErrCacheMiss
	}
	return &rec, nil
}

// Save upserts the record for q in one statement.
func (s *Store) Save(ctx context.Context, q domain.Query, rec *cache.Record) error {
	sections := rec.Data
	if sections == nil {
		sections = []cache.SectionRecord{}
	}
	data, err := json.Marshal(sections)
	if err != nil {
		return fmt.Errorf("pgcache: marshal data: %w", err)
	}

	query, args, err := psql.
		Insert(table).
		Columns("cache_key", "lang1", "lang2", "cache_format", "last_used", "num_used", "data").
		Values(q.Key(), q.Lang1, q.Lang2, rec.Format, rec.LastUsed, rec.NumUsed, data).
		Suffix(`ON CONFLICT (cache_key) DO UPDATE SET
			cache_format = EXCLUDED.cache_format,
			last_used    = EXCLUDED.last_used,
			num_used     = EXCLUDED.num_used,
			data         = EXCLUDED.data`).
		ToSql()
	if err != nil {
		return fmt.Errorf("pgcache: build upsert: %w", err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("pgcache: %w", postgres.MapError(err, table, q.Key()))
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
