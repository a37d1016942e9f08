package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/halolight/halolight/cmd/haloctl/internal/config"
	"github.com/halolight/halolight/cmd/haloctl/internal/db/bunx"
	"github.com/halolight/halolight/pkg/sdk"
)

// Store is a KeyValueStore that owns resources released by Close.
type Store interface {
	sdk.KeyValueStore
	io.Closer
}

type nopCloser struct {
	sdk.KeyValueStore
}

func (nopCloser) Close() error { return nil }

// Open builds the backend selected by cfg.Backend, wrapped in an LRU cache
// when cfg.CacheSize is positive.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	var backend Store

	switch cfg.Backend {
	case config.BackendFile:
		fs, err := NewFileStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		backend = nopCloser{fs}
	case config.BackendSQLite, config.BackendPostgres:
		db, err := bunx.NewDB(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		bs, err := NewBunStore(ctx, db, cfg.Timeout)
		if err != nil {
			bunx.Close(db)
			return nil, err
		}
		backend = bs
	case config.BackendMemory:
		backend = nopCloser{sdk.NewMemoryStore()}
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	logger.Debug("opened storage backend", "backend", cfg.Backend, "cache_size", cfg.CacheSize)

	if cfg.CacheSize <= 0 {
		return backend, nil
	}
	cached, err := NewCachedStore(backend, cfg.CacheSize)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return cached, nil
}
