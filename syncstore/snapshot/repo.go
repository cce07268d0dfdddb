// Package snapshot persists a denormalized copy of each store's collection so
// a new process can start warm. The copy is dropped on sign-out.
package snapshot

import (
	"context"
	"time"
)

// Record is the persisted copy of one collection.
type Record struct {
	Collection string
	Payload    []byte // JSON array of entities
	Count      int
	SyncedAt   time.Time
}

// Repo stores one Record per collection name. Load returns errors.ErrNotFound
// when nothing has been saved.
type Repo interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, collection string) (Record, error)
	Delete(ctx context.Context, collection string) error
	Close() error
}
