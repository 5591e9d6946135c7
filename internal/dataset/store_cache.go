package dataset

import (
	"context"
	"log/slog"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/cache"
)

// cachedStore serves Get from a local disk cache, filling it on miss.
// Listings are always forwarded.
type cachedStore struct {
	Store
	cache *cache.Cache
}

func withCache(s Store, c *cache.Cache) Store {
	if c == nil || c.Dir() == "" {
		return s
	}
	return &cachedStore{Store: s, cache: c}
}

// locator is implemented by stores whose String omits part of what selects
// their objects, such as a custom endpoint or storage account.
type locator interface {
	Locator() string
}

// cacheScope names the object namespace of s for cache keys.
func cacheScope(s Store) string {
	if l, ok := s.(locator); ok {
		return l.Locator()
	}
	return s.String()
}

func (s *cachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	ck := cache.Key(cacheScope(s.Store), key)
	if data, ok := s.cache.Get(ck); ok {
		return data, nil
	}
	data, err := s.Store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Put(ck, data); err != nil {
		slog.Debug("caching object failed", "store", s.Store.String(), "key", key, "error", err)
	}
	return data, nil
}
