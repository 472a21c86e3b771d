package sheet

import (
	"context"
	"fmt"
)

// These constants name the supported store backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendWorkbook = "xlsx"
	BackendGoogle   = "google"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	Path    string
	Google  GoogleConfig
}

// Open connects to the configured backend and makes sure every sheet of the schema exists.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		store Store
		err   error
	)

	switch opts.Backend {
	case BackendMemory:
		store = NewMemoryStore()
	case BackendSQLite:
		store, err = NewSQLiteStore(ctx, opts.Path)
	case BackendWorkbook:
		store, err = NewWorkbookStore(opts.Path)
	case BackendGoogle:
		store, err = NewGoogleStore(ctx, opts.Google)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}

	if err != nil {
		return nil, err
	}

	if err := EnsureSchema(ctx, store); err != nil {
		store.Close()

		return nil, err
	}

	return store, nil
}
