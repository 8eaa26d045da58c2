// Package filecache stores cache records as YAML files, one per query, under
// <dir>/<lang2>/<lang1>/<hash>.yml.
package filecache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/heartmarshall/leocli/internal/cache"
	"github.com/heartmarshall/leocli/internal/domain"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store implements cache.Store on the local filesystem.
type Store struct {
	dir string
	log *slog.Logger
}

// New creates a Store rooted at dir. The directory is created lazily on
// first write.
func New(dir string, logger *slog.Logger) *Store {
	return &Store{
		dir: dir,
		log: logger.With("adapter", "filecache"),
	}
}

// Path returns the file a record for q is stored in.
func (s *Store) Path(q domain.Query) string {
	return filepath.Join(s.dir, q.Lang2, q.Lang1, cache.KeyHash(q.Key())+".yml")
}

// Load reads the record for q. A missing file is cache.ErrCacheMiss; an
// unparsable file is logged and reported as a miss so it gets rewritten.
func (s *Store) Load(ctx context.Context, q domain.Query) (*cache.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.Path(q)
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, cache.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("filecache: read %s: %w", path, err)
	}

	rec, err := cache.Unmarshal(b)
	if err != nil {
		s.log.WarnContext(ctx, "corrupt cache file",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, cache.ErrCacheMiss
	}
	return rec, nil
}

// Save writes rec for q atomically: readers see either the old file or the
// new one, never a partial write.
func (s *Store) Save(ctx context.Context, q domain.Query, rec *cache.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b, err := cache.Marshal(rec)
	if err != nil {
		return err
	}

	path := s.Path(q)
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("filecache: create dir: %w", err)
	}
	if err := writeAtomic(path, b); err != nil {
		return fmt.Errorf("filecache: write %s: %w", path, err)
	}
	return nil
}

var chmodFile = (*os.File).Chmod

func writeAtomic(dest string, b []byte) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	// CreateTemp opens with 0600.
	if err := chmodFile(tmp, filePerm); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	_ = syncDir(dir)
	return nil
}

// syncDir best-effort fsyncs a directory so the rename is durable.
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
