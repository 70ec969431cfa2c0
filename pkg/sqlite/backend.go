// Package sqlite provides the public API for the SQLite asset store.
// It exposes a factory for stores whose record types are declared in
// configuration while keeping the implementation internal.
package sqlite

import (
	"github.com/mesh-intelligence/assetcsv/internal/schema"
	"github.com/mesh-intelligence/assetcsv/internal/sqlite"
	"github.com/mesh-intelligence/assetcsv/pkg/types"
)

// Store is a types.Host with an attach lifecycle.
type Store interface {
	types.Host
	Attach(config types.Config) error
	Detach() error
}

// NewBackend creates a detached store for the types declared in decls.
// Call Attach with a Config to initialize.
//
// Example:
//
//	store, err := sqlite.NewBackend(cfg.Types)
//	if err != nil {
//	    return err
//	}
//	err = store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".assetcsv-db",
//	})
//	defer store.Detach()
func NewBackend(decls []types.TypeConfig) (Store, error) {
	reg := schema.NewRegistry()
	if err := schema.RegisterConfig(reg, decls); err != nil {
		return nil, err
	}
	return sqlite.NewBackend(reg), nil
}
