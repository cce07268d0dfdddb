package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	stalenessWindowKey = "cache.staleness_window"
	detailCacheSizeKey = "cache.detail_size"
	detailCacheTTLKey  = "cache.detail_ttl"
	snapshotPathKey    = "cache.snapshot_path"
)

type Cache struct {
	v *viper.Viper
}

var _ CacheConfig = Cache{}

func (c Cache) GetStalenessWindow() time.Duration {
	return c.v.GetDuration(stalenessWindowKey)
}

func (c Cache) GetDetailCacheSize() int {
	return c.v.GetInt(detailCacheSizeKey)
}

func (c Cache) GetDetailCacheTTL() time.Duration {
	return c.v.GetDuration(detailCacheTTLKey)
}

// GetSnapshotPath is empty when snapshots are disabled.
func (c Cache) GetSnapshotPath() string {
	return c.v.GetString(snapshotPathKey)
}
