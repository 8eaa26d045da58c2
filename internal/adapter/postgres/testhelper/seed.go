package testhelper

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedRawRecord inserts a lookup_cache row verbatim, bypassing the store,
// so tests can plant records of other format versions or broken payloads.
func SeedRawRecord(t *testing.T, pool *pgxpool.Pool, key, lang1, lang2, format string, data string) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO lookup_cache (cache_key, lang1, lang2, cache_format, last_used, num_used, data)
		 VALUES ($1, $2, $3, $4, 0, 1, $5::jsonb)
		 ON CONFLICT (cache_key) DO UPDATE SET cache_format = EXCLUDED.cache_format, data = EXCLUDED.data`,
		key, lang1, lang2, format, data,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedRawRecord: %v", err)
	}
}
