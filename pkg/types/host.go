package types

import "context"

// Host is the environment that owns records: it enumerates and resolves them
// by identity, allocates new ones, and persists changes. The CSV codec never
// assigns identities itself.
type Host interface {
	// FindRecords returns every record of the named type in a stable order.
	FindRecords(ctx context.Context, typeName string) ([]Record, error)

	// Resolve returns the record of the named type stored at path.
	// Returns ErrNotFound when no such record exists.
	Resolve(ctx context.Context, typeName, path string) (Record, error)

	// Create allocates an uncommitted record of the named type. The record
	// has no path or instance ID until MarkForCreation assigns them.
	Create(typeName string) (Record, error)

	// MarkDirty flags a resolved record for the next PersistAll.
	MarkDirty(rec Record)

	// MarkForCreation assigns a final path derived from suggestedPath and
	// queues the record for commit. Returns the assigned path.
	MarkForCreation(ctx context.Context, rec Record, suggestedPath string) (string, error)

	// Persist writes a single record immediately.
	Persist(ctx context.Context, rec Record) error

	// PersistAll writes every dirty or created record.
	PersistAll(ctx context.Context) error
}
