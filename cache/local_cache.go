package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/cloud66-oss/ipgeo/utils"
)

const (
	DefaultSize = 1000
	DefaultTTL  = time.Hour
)

// LocalCache is an in-process ARC cache. Entries expire after ttl so that a
// record resolved during a remote outage is eventually resolved again.
type LocalCache struct {
	cache *lru.ARCCache
	ttl   time.Duration
	now   func() time.Time
}

type entry struct {
	info    utils.GeoRecord
	expires time.Time
}

var _ CacheProvider = (*LocalCache)(nil)

// NewLocalCache builds a cache holding up to size records for ttl each.
// Non-positive values fall back to DefaultSize and DefaultTTL.
func NewLocalCache(_ context.Context, size int, ttl time.Duration) (*LocalCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	cache, err := lru.NewARC(size)
	if err != nil {
		return nil, err
	}

	return &LocalCache{
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
	}, nil
}

func (lc *LocalCache) Fetch(_ context.Context, variant string, address string) (*utils.GeoRecord, error) {
	k := key(variant, address)

	value, ok := lc.cache.Get(k)
	if !ok {
		return nil, nil
	}

	e := value.(*entry)
	if !lc.now().Before(e.expires) {
		lc.cache.Remove(k)
		return nil, nil
	}

	// callers may mutate what they get back
	info := e.info

	return &info, nil
}

func (lc *LocalCache) Add(_ context.Context, variant string, info *utils.GeoRecord) error {
	if info == nil || info.IP == "" {
		return nil
	}

	lc.cache.Add(key(variant, info.IP), &entry{
		info:    *info,
		expires: lc.now().Add(lc.ttl),
	})

	return nil
}

func (lc *LocalCache) Len() int {
	return lc.cache.Len()
}

func key(variant, address string) string {
	return variant + "--" + address
}
