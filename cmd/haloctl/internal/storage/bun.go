package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/halolight/halolight/cmd/haloctl/internal/db/models"
	"github.com/halolight/halolight/pkg/sdk"
	"github.com/uptrace/bun"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("storage: store is closed")

// DefaultTimeout bounds each database round trip when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// BunStore implements sdk.KeyValueStore on the kv_entries table.
// It works against SQLite and PostgreSQL.
type BunStore struct {
	db      *bun.DB
	timeout time.Duration
	closed  atomic.Bool
}

// Ensure BunStore implements sdk.KeyValueStore at compile time.
var _ sdk.KeyValueStore = (*BunStore)(nil)

// NewBunStore wraps db and makes sure the kv_entries table exists.
// A non-positive timeout uses DefaultTimeout.
func NewBunStore(ctx context.Context, db *bun.DB, timeout time.Duration) (*BunStore, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	_, err := db.NewCreateTable().
		Model((*models.KVEntry)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure kv_entries table: %w", err)
	}
	return &BunStore{db: db, timeout: timeout}, nil
}

// Get returns the value stored under key.
func (s *BunStore) Get(key string) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	ctx, cancel := s.context()
	defer cancel()

	entry := new(models.KVEntry)
	err := s.db.NewSelect().
		Model(entry).
		Where("key = ?", key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sdk.ErrNotFound
		}
		return "", fmt.Errorf("get kv entry %s: %w", key, err)
	}
	return entry.Value, nil
}

// Set upserts value under key.
func (s *BunStore) Set(key, value string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	ctx, cancel := s.context()
	defer cancel()

	entry := &models.KVEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := s.db.NewInsert().
		Model(entry).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set kv entry %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *BunStore) Delete(key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	ctx, cancel := s.context()
	defer cancel()

	_, err := s.db.NewDelete().
		Model((*models.KVEntry)(nil)).
		Where("key = ?", key).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete kv entry %s: %w", key, err)
	}
	return nil
}

// Entries lists every stored entry ordered by most recent update.
func (s *BunStore) Entries(ctx context.Context) ([]models.KVEntry, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	var entries []models.KVEntry
	err := s.db.NewSelect().
		Model(&entries).
		Order("updated_at DESC", "key ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list kv entries: %w", err)
	}
	return entries, nil
}

// Close marks the store closed and closes the database handle.
func (s *BunStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *BunStore) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}
