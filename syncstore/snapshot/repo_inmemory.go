package snapshot

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-schooltracker-client/internal/errors"
)

type InMemoryRepo struct {
	mu      sync.RWMutex
	records map[string]Record
}

var _ Repo = (*InMemoryRepo)(nil)

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{records: make(map[string]Record)}
}

func (r *InMemoryRepo) Save(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.Payload = append([]byte(nil), rec.Payload...)
	r.records[rec.Collection] = rec
	return nil
}

func (r *InMemoryRepo) Load(_ context.Context, collection string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[collection]
	if !ok {
		return Record{}, errors.ErrNotFound
	}
	return rec, nil
}

func (r *InMemoryRepo) Delete(_ context.Context, collection string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, collection)
	return nil
}

func (r *InMemoryRepo) Close() error {
	return nil
}
