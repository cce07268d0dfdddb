// Package syncstore caches one server collection on the client. A Store keeps
// the full collection, a filtered view over it, a staleness clock, and applies
// create/update/delete results to the cache as soon as the server confirms
// them.
package syncstore

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-schooltracker-client/gateway"
	"github.com/jrsteele09/go-schooltracker-client/internal/errors"
	"github.com/jrsteele09/go-schooltracker-client/notify"
	"github.com/jrsteele09/go-schooltracker-client/sessions"
	"github.com/jrsteele09/go-schooltracker-client/syncstore/snapshot"
)

// Resource describes one collection.
type Resource[T any] struct {
	Name     string
	ID       func(*T) int64
	Parent   func(*T) string // optional; used by ByParent
	Policy   FilterPolicy[T]
	Messages Messages

	// QuietInitialFailure suppresses the failure notification for a
	// non-forced fetch that has never succeeded.
	QuietInitialFailure bool
}

// Session reports whether a user is signed in.
type Session interface {
	Authenticated() bool
}

// Subscriber is the part of sessions.Broadcaster a store listens on.
type Subscriber interface {
	Subscribe(handler sessions.Handler, types ...sessions.SignalType) (unsubscribe func())
}

type Pagination struct {
	Count    int    `json:"count" yaml:"count"`
	Next     string `json:"next,omitempty" yaml:"next,omitempty"`
	Previous string `json:"previous,omitempty" yaml:"previous,omitempty"`
}

// MutationResult is the outcome of Remove, meant for inline display.
type MutationResult struct {
	Success bool   `json:"success" yaml:"success"`
	Message string `json:"message" yaml:"message"`
}

type Store[T any] struct {
	resource  Resource[T]
	remote    Remote[T]
	session   Session
	notifier  notify.Notifier
	snapshots snapshot.Repo
	details   *expirable.LRU[int64, *T]
	now       func() time.Time
	staleness time.Duration

	unsubscribe func()
	loading     atomic.Int32
	persistMu   sync.Mutex // orders snapshot writes against the reset's delete

	mu             sync.RWMutex
	items          []*T
	view           []int64 // ids of items, in view order
	filter         Filter
	pagination     Pagination
	lastSyncedAt   time.Time
	lastUpdated    time.Time
	attemptedFetch bool
	err            error
	generation     uint64 // bumped on reset; responses from an older generation are dropped
}

// New creates an empty store and subscribes it to sign-out and force-reset
// signals. Call Close to unsubscribe.
func New[T any](resource Resource[T], remote Remote[T], session Session, subscriber Subscriber, notifier notify.Notifier, opts ...Option) *Store[T] {
	o := options{
		now:        time.Now,
		staleness:  DefaultStalenessWindow,
		detailSize: DefaultDetailCacheSize,
		detailTTL:  DefaultDetailCacheTTL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}

	s := &Store[T]{
		resource:  resource,
		remote:    remote,
		session:   session,
		notifier:  notifier,
		snapshots: o.snapshots,
		details:   expirable.NewLRU[int64, *T](o.detailSize, nil, o.detailTTL),
		now:       o.now,
		staleness: o.staleness,
		filter:    Filter{},
	}
	if subscriber != nil {
		s.unsubscribe = subscriber.Subscribe(s.onSignal, sessions.SignedOut, sessions.ForceReset)
	}
	return s
}

// Close detaches the store from the broadcaster.
func (s *Store[T]) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Fetch loads the whole collection unless the cache is still fresh, a previous
// fetch already came back empty, or nobody is signed in. forceRefresh skips the
// first two checks. Failures leave the cache untouched.
func (s *Store[T]) Fetch(ctx context.Context, forceRefresh bool) error {
	s.mu.RLock()
	fresh := len(s.items) > 0 && !s.lastSyncedAt.IsZero() && s.now().Sub(s.lastSyncedAt) < s.staleness
	exhausted := len(s.items) == 0 && s.attemptedFetch
	attempted := s.attemptedFetch
	gen := s.generation
	s.mu.RUnlock()

	if !forceRefresh && (fresh || exhausted) {
		return nil
	}
	if !s.session.Authenticated() {
		return nil
	}

	s.loading.Add(1)
	defer s.loading.Add(-1)

	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()

	page, err := s.remote.List(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Str("resource", s.resource.Name).Msg("fetch failed")
		s.mu.Lock()
		if gen == s.generation {
			s.err = err
		}
		s.mu.Unlock()
		if !errors.Is(err, context.Canceled) && (attempted || forceRefresh || !s.resource.QuietInitialFailure) {
			s.notifier.Error(s.resource.Messages.LoadFailed)
		}
		return err
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		log.Debug().Str("resource", s.resource.Name).Msg("discarding fetch from before reset")
		return nil
	}
	s.items = s.unique(page.Results)
	s.recomputeView()
	s.pagination = page.pagination()
	s.lastSyncedAt = s.now()
	s.lastUpdated = s.lastSyncedAt
	s.attemptedFetch = true
	items := slices.Clone(s.items)
	count := s.pagination.Count
	s.mu.Unlock()

	log.Debug().Str("resource", s.resource.Name).Int("items", len(items)).Msg("fetched")
	s.saveSnapshot(ctx, gen, items, count)
	return nil
}

// Filter makes criteria the active filter. When the policy can answer it from
// the cache the view is recomputed without a network call; otherwise the
// server's answer replaces the view and pagination.
func (s *Store[T]) Filter(ctx context.Context, criteria Filter) error {
	criteria = criteria.Active()

	s.mu.Lock()
	s.filter = criteria
	if s.resource.Policy.IsLocal(criteria) {
		s.recomputeView()
		s.mu.Unlock()
		return nil
	}
	gen := s.generation
	s.mu.Unlock()

	s.loading.Add(1)
	defer s.loading.Add(-1)

	page, err := s.remote.List(ctx, criteria.Query())

	s.mu.Lock()
	if gen != s.generation || !s.filter.Equal(criteria) {
		// superseded by a reset or a newer filter
		s.mu.Unlock()
		return err
	}
	if err != nil {
		s.err = err
		s.view = s.ids(s.items)
		s.mu.Unlock()

		log.Warn().Err(err).Str("resource", s.resource.Name).Msg("remote filter failed")
		if !errors.Is(err, context.Canceled) {
			s.notifier.Error(s.resource.Messages.FilterFailed)
		}
		return err
	}
	results := s.unique(page.Results)
	s.upsert(results)
	s.view = s.ids(results)
	s.pagination = page.pagination()
	s.mu.Unlock()
	return nil
}

// Create sends payload to the server and puts the created entity at the front
// of the cache. It is also put at the front of the view when it satisfies the
// active filter's equality fields. Returns nil after notifying on failure,
// and nil without touching the cache when a reset happened mid-call.
func (s *Store[T]) Create(ctx context.Context, payload Payload) *T {
	if !s.session.Authenticated() {
		s.notifier.Error(s.resource.Messages.CreateUnauthenticated)
		return nil
	}

	s.loading.Add(1)
	defer s.loading.Add(-1)

	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()

	created, err := s.remote.Create(ctx, payload)
	if err != nil {
		log.Warn().Err(err).Str("resource", s.resource.Name).Msg("create failed")
		s.notifier.Error(gateway.UserMessage(err, s.resource.Messages.CreateFailed))
		return nil
	}

	id := s.resource.ID(created)
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		log.Debug().Str("resource", s.resource.Name).Int64("id", id).Msg("discarding create from before reset")
		return nil
	}
	s.items = append([]*T{created}, s.without(s.items, id)...)
	if s.resource.Policy.MatchEquality(created, s.filter) {
		s.view = append([]int64{id}, slices.DeleteFunc(s.view, func(v int64) bool { return v == id })...)
	}
	s.pagination.Count++
	s.lastUpdated = s.now()
	s.details.Add(id, created)
	items := slices.Clone(s.items)
	count := s.pagination.Count
	s.mu.Unlock()

	s.saveSnapshot(ctx, gen, items, count)
	s.notifier.Success(s.resource.Messages.Created)
	return created
}

// Update sends payload for id and swaps the server's version into the cache.
// View membership is left as it was until the next fetch or filter. Like
// Create, a result arriving after a reset is dropped.
func (s *Store[T]) Update(ctx context.Context, id int64, payload Payload) *T {
	if !s.session.Authenticated() {
		s.notifier.Error(s.resource.Messages.UpdateUnauthenticated)
		return nil
	}

	s.loading.Add(1)
	defer s.loading.Add(-1)

	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()

	updated, err := s.remote.Update(ctx, id, payload)
	if err != nil {
		log.Warn().Err(err).Str("resource", s.resource.Name).Int64("id", id).Msg("update failed")
		s.notifier.Error(gateway.UserMessage(err, s.resource.Messages.UpdateFailed))
		return nil
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		log.Debug().Str("resource", s.resource.Name).Int64("id", id).Msg("discarding update from before reset")
		return nil
	}
	if i := s.indexOf(id); i >= 0 {
		s.items[i] = updated
	}
	s.lastUpdated = s.now()
	s.details.Add(id, updated)
	items := slices.Clone(s.items)
	count := s.pagination.Count
	s.mu.Unlock()

	s.saveSnapshot(ctx, gen, items, count)
	s.notifier.Success(s.resource.Messages.Updated)
	return updated
}

// Remove deletes id on the server and then from the cache. The result message
// is meant for the caller to show; failures raise no notification.
func (s *Store[T]) Remove(ctx context.Context, id int64) MutationResult {
	if !s.session.Authenticated() {
		return MutationResult{Message: s.resource.Messages.RemoveUnauthenticated}
	}

	s.loading.Add(1)
	defer s.loading.Add(-1)

	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()

	if err := s.remote.Delete(ctx, id); err != nil {
		log.Warn().Err(err).Str("resource", s.resource.Name).Int64("id", id).Msg("delete failed")
		return MutationResult{Message: gateway.UserMessage(err, s.resource.Messages.RemoveFailed)}
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		// The server deleted it; the cache it belonged to is already gone.
		return MutationResult{Success: true, Message: s.resource.Messages.Removed}
	}
	before := len(s.items)
	s.items = s.without(s.items, id)
	s.view = slices.DeleteFunc(s.view, func(v int64) bool { return v == id })
	if len(s.items) < before && s.pagination.Count > 0 {
		s.pagination.Count--
	}
	s.lastUpdated = s.now()
	s.details.Remove(id)
	items := slices.Clone(s.items)
	count := s.pagination.Count
	s.mu.Unlock()

	s.saveSnapshot(ctx, gen, items, count)
	s.notifier.Success(s.resource.Messages.Removed)
	return MutationResult{Success: true, Message: s.resource.Messages.Removed}
}

// Get returns the detailed representation of id, served from the detail
// cache while it is younger than the cache TTL.
func (s *Store[T]) Get(ctx context.Context, id int64) (*T, error) {
	if !s.session.Authenticated() {
		return nil, errors.ErrUnauthenticated
	}
	if item, ok := s.details.Get(id); ok {
		return item, nil
	}

	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()

	item, err := s.remote.Retrieve(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if gen == s.generation {
		s.details.Add(id, item)
	}
	return item, nil
}

// ByParent returns cached items whose parent key is parentID, in cache order.
func (s *Store[T]) ByParent(parentID string) []*T {
	if s.resource.Parent == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*T
	for _, item := range s.items {
		if s.resource.Parent(item) == parentID {
			out = append(out, item)
		}
	}
	return out
}

// Items returns the full cached collection.
func (s *Store[T]) Items() []*T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// FilteredView returns the items under the active filter. Every element is
// the same pointer as the matching element of Items.
func (s *Store[T]) FilteredView() []*T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[int64]*T, len(s.items))
	for _, item := range s.items {
		byID[s.resource.ID(item)] = item
	}
	out := make([]*T, 0, len(s.view))
	for _, id := range s.view {
		if item, ok := byID[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

func (s *Store[T]) ActiveFilter() Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.filter)
}

func (s *Store[T]) Pagination() Pagination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pagination
}

// Err returns the error of the last failed fetch or remote filter.
func (s *Store[T]) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Store[T]) Loading() bool {
	return s.loading.Load() > 0
}

// LastSyncedAt is the time of the last successful full fetch; zero if none.
func (s *Store[T]) LastSyncedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSyncedAt
}

// LastUpdated is the time the cache last changed for any reason.
func (s *Store[T]) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

func (s *Store[T]) AttemptedFetch() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attemptedFetch
}

// Restore seeds an empty cache from the persisted snapshot, if any. The
// snapshot's sync time is kept so staleness still applies.
func (s *Store[T]) Restore(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}
	rec, err := s.snapshots.Load(ctx, s.resource.Name)
	if errors.Is(err, errors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "Store.Restore")
	}

	var items []*T
	if err := json.Unmarshal(rec.Payload, &items); err != nil {
		return errors.Wrapf(err, "Store.Restore decode %s", s.resource.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) > 0 {
		return nil
	}
	s.items = s.unique(items)
	s.recomputeView()
	s.pagination = Pagination{Count: rec.Count}
	s.lastSyncedAt = rec.SyncedAt
	s.lastUpdated = rec.SyncedAt
	log.Debug().Str("resource", s.resource.Name).Int("items", len(s.items)).Msg("restored from snapshot")
	return nil
}

func (s *Store[T]) onSignal(sig sessions.Signal) {
	if !sig.Resets() {
		return
	}

	s.mu.Lock()
	s.generation++
	s.items = nil
	s.view = nil
	s.filter = Filter{}
	s.pagination = Pagination{}
	s.lastSyncedAt = time.Time{}
	s.lastUpdated = time.Time{}
	s.attemptedFetch = false
	s.err = nil
	s.details.Purge()
	s.mu.Unlock()

	if s.snapshots != nil {
		s.persistMu.Lock()
		if err := s.snapshots.Delete(context.Background(), s.resource.Name); err != nil {
			log.Warn().Err(err).Str("resource", s.resource.Name).Msg("failed to delete snapshot")
		}
		s.persistMu.Unlock()
	}
	log.Debug().Str("resource", s.resource.Name).Str("signal", string(sig.Type)).Msg("store reset")
}

// saveSnapshot persists items unless a reset has happened since gen.
func (s *Store[T]) saveSnapshot(ctx context.Context, gen uint64, items []*T, count int) {
	if s.snapshots == nil {
		return
	}
	payload, err := json.Marshal(items)
	if err != nil {
		log.Warn().Err(err).Str("resource", s.resource.Name).Msg("failed to encode snapshot")
		return
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.RLock()
	current := gen == s.generation
	synced := s.lastSyncedAt
	s.mu.RUnlock()
	if !current {
		return
	}

	err = s.snapshots.Save(context.WithoutCancel(ctx), snapshot.Record{
		Collection: s.resource.Name,
		Payload:    payload,
		Count:      count,
		SyncedAt:   synced,
	})
	if err != nil {
		log.Warn().Err(err).Str("resource", s.resource.Name).Msg("failed to save snapshot")
	}
}

// recomputeView rebuilds the view from items. Must hold mu.
func (s *Store[T]) recomputeView() {
	if s.resource.Policy.IsLocal(s.filter) {
		view := make([]int64, 0, len(s.items))
		for _, item := range s.items {
			if s.resource.Policy.Match(item, s.filter) {
				view = append(view, s.resource.ID(item))
			}
		}
		s.view = view
		return
	}

	// Server-side filter: keep the server's membership for ids still cached.
	present := make(map[int64]struct{}, len(s.items))
	for _, item := range s.items {
		present[s.resource.ID(item)] = struct{}{}
	}
	s.view = slices.DeleteFunc(slices.Clone(s.view), func(id int64) bool {
		_, ok := present[id]
		return !ok
	})
}

// upsert replaces cached items by id and appends new ones. Must hold mu.
func (s *Store[T]) upsert(items []*T) {
	for _, item := range items {
		if i := s.indexOf(s.resource.ID(item)); i >= 0 {
			s.items[i] = item
			continue
		}
		s.items = append(s.items, item)
	}
}

func (s *Store[T]) indexOf(id int64) int {
	return slices.IndexFunc(s.items, func(item *T) bool { return s.resource.ID(item) == id })
}

func (s *Store[T]) without(items []*T, id int64) []*T {
	return slices.DeleteFunc(slices.Clone(items), func(item *T) bool { return s.resource.ID(item) == id })
}

func (s *Store[T]) ids(items []*T) []int64 {
	out := make([]int64, 0, len(items))
	for _, item := range items {
		out = append(out, s.resource.ID(item))
	}
	return out
}

// unique drops nil entries and repeated ids, keeping the first occurrence.
func (s *Store[T]) unique(items []*T) []*T {
	seen := make(map[int64]struct{}, len(items))
	out := make([]*T, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		id := s.resource.ID(item)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, item)
	}
	return out
}
