package annotations

import (
	"fmt"

	"github.com/alucardeht/docsync/internal/logger"
)

var log = logger.ForComponent("annotations")

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Store persists the annotation mapping between runs.
type Store interface {
	// Load returns the persisted mapping, creating an empty store when none
	// exists yet.
	Load() (*Group, error)
	// Save replaces the persisted mapping with g.
	Save(g *Group) error
	// Location names the backing document for diagnostics.
	Location() string
	Close() error
}

func Open(backend, path string) (Store, error) {
	switch backend {
	case "", BackendJSON:
		return NewJSONStore(path), nil
	case BackendSQLite:
		return NewSQLiteStore(path)
	}
	return nil, fmt.Errorf("unknown store backend: %q", backend)
}
