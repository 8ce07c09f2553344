package repo

import (
	"context"
	"errors"
)

// CollectionChecks holds the monitored check records.
const CollectionChecks = "checks"

var (
	ErrNotFound = errors.New("record not found")
	ErrExists   = errors.New("record already exists")
)

// Record is an opaque JSON object. Stores do not enforce a schema.
type Record map[string]any

// Clone returns a shallow copy so callers can change top-level keys without
// touching the original.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Ports (interfaces); adapters: memory, JSON files, postgres.
type Store interface {
	List(ctx context.Context, collection string) ([]string, error)
	Read(ctx context.Context, collection, id string) (Record, error)
	Update(ctx context.Context, collection, id string, rec Record) error
	Create(ctx context.Context, collection, id string, rec Record) error
	Delete(ctx context.Context, collection, id string) error
}

// CheckReader is the slice of Store the monitoring worker needs.
type CheckReader interface {
	List(ctx context.Context, collection string) ([]string, error)
	Read(ctx context.Context, collection, id string) (Record, error)
	Update(ctx context.Context, collection, id string, rec Record) error
}
