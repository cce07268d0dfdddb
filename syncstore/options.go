package syncstore

import (
	"time"

	"github.com/jrsteele09/go-schooltracker-client/syncstore/snapshot"
)

const (
	DefaultStalenessWindow = 5 * time.Minute
	DefaultDetailCacheSize = 256
	DefaultDetailCacheTTL  = 5 * time.Minute
)

type options struct {
	now        func() time.Time
	staleness  time.Duration
	detailSize int
	detailTTL  time.Duration
	snapshots  snapshot.Repo
}

type Option func(*options)

// WithNowFunc sets the clock used for staleness checks.
func WithNowFunc(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func WithStalenessWindow(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.staleness = d
		}
	}
}

// WithDetailCache sizes the per-item cache used by Get.
func WithDetailCache(size int, ttl time.Duration) Option {
	return func(o *options) {
		if size > 0 {
			o.detailSize = size
		}
		if ttl > 0 {
			o.detailTTL = ttl
		}
	}
}

// WithSnapshots persists the collection to repo after every change.
func WithSnapshots(repo snapshot.Repo) Option {
	return func(o *options) {
		o.snapshots = repo
	}
}
