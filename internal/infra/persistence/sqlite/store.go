// Package sqlite provides a SQLite-backed persistent store. Collections are
// persisted as whole JSON arrays, one bucket row per collection.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"assurecore/internal/infra/persistence/bucket"
	"assurecore/internal/infra/persistence/memory"
	"assurecore/pkg/domain"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

// Store persists the in-memory state to a single SQLite table as JSON blobs.
// It snapshots the full state after every successful transaction; concurrent
// writers over the same file race last-write-wins at bucket granularity.
type Store struct {
	*memory.Store
	db     *sql.DB
	mu     sync.Mutex
	path   string
	prefix string
	logger *zap.Logger
}

// NewStore constructs a snapshotting SQLite-backed persistent store. An empty
// prefix falls back to bucket.DefaultPrefix. Corrupt bucket payloads found
// during load are logged and discarded, leaving that collection empty.
func NewStore(path, prefix string, engine *domain.RulesEngine, logger *zap.Logger) (*Store, error) {
	if path == "" {
		path = "assurecore.db"
	}
	if prefix == "" {
		prefix = bucket.DefaultPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{
		Store:  memory.NewStore(engine),
		db:     db,
		path:   path,
		prefix: prefix,
		logger: logger,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// BucketKey returns the full bucket key for a collection suffix.
func (s *Store) BucketKey(suffix string) string {
	return bucket.Key(s.prefix, suffix)
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	payloads := make(map[string][]byte)
	for rows.Next() {
		var key string
		var payload []byte
		if err := rows.Scan(&key, &payload); err != nil {
			return fmt.Errorf("scan state: %w", err)
		}
		payloads[key] = payload
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if len(payloads) == 0 {
		return nil
	}

	var snapshot memory.Snapshot
	for _, binding := range bucket.SnapshotBindings(&snapshot) {
		key := s.BucketKey(binding.Suffix)
		payload, ok := payloads[key]
		if !ok || len(payload) == 0 {
			continue
		}
		if err := binding.Decode(payload); err != nil {
			s.logger.Warn("discarding corrupt bucket payload",
				zap.String("bucket", key),
				zap.Error(err))
		}
	}
	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, binding := range bucket.SnapshotBindings(&snapshot) {
		data, err := binding.Encode()
		if err != nil {
			retErr = err
			return retErr
		}
		key := s.BucketKey(binding.Suffix)
		if _, err := tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, key, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", key, err)
			return retErr
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}

// RunInTransaction applies the provided function within a transaction, then
// snapshots state to SQLite if successful.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(); pErr != nil {
		return res, pErr
	}
	return res, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
