package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	ds "github.com/oaiiae/huma-contacts/datastores"
)

type StorageOptions struct {
	Storage    string        `doc:"storage backend: file, sqlite or memory" default:"file"`
	StorageDir string        `doc:"directory holding the storage"           default:"."`
	StorageKey string        `doc:"name of the storage slot"                default:"contacts"`
	ConfirmTTL time.Duration `doc:"validity of a delete confirmation token" default:"5m"`
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns the loaded contact store described by options.
// The closer releases the storage and must be called once the store is unused.
func Open(ctx context.Context, options *StorageOptions, logger *slog.Logger) (*ds.ContactsPersisted, io.Closer, error) {
	var (
		slot   ds.Slot
		closer io.Closer = nopCloser{}
	)
	switch options.Storage {
	case "file", "":
		slot = &ds.FileSlot{Dir: options.StorageDir, Key: options.StorageKey}
	case "sqlite":
		sqlite, err := ds.OpenSQLiteSlot(ctx, filepath.Join(options.StorageDir, "contacts.sqlite"), options.StorageKey)
		if err != nil {
			return nil, nil, err
		}
		slot, closer = sqlite, sqlite
	case "memory":
		slot = ds.NewMemorySlot(nil)
	default:
		return nil, nil, fmt.Errorf("unknown storage %q", options.Storage)
	}

	store := ds.NewContactsPersisted(slot, logger.With("storage", options.Storage, "key", options.StorageKey))
	if options.ConfirmTTL > 0 {
		store.ConfirmTTL = options.ConfirmTTL
	}
	store.Load(ctx)
	return store, closer, nil
}
