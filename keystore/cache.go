package keystore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// CachedStore wraps a slower Store (e.g. one that queries a database), remembering
// successful lookups for a fixed TTL. Concurrent lookups of the same key that miss the
// cache share a single call to the underlying store. Failed lookups are never cached,
// so a newly-issued key becomes usable immediately.
//
// Revocation is not propagated: a revoked key that is still cached continues to
// authenticate until its entry expires, i.e. for at most ttl.
type CachedStore struct {
	next  Store
	cache *expirable.LRU[string, Key]
	group singleflight.Group
}

// NewCachedStore wraps next with an LRU cache holding up to size keys for ttl each
func NewCachedStore(next Store, size int, ttl time.Duration) *CachedStore {
	return &CachedStore{
		next:  next,
		cache: expirable.NewLRU[string, Key](size, nil, ttl),
	}
}

func (s *CachedStore) Lookup(ctx context.Context, apiKey string) (Key, error) {
	if k, ok := s.cache.Get(apiKey); ok {
		return k, nil
	}

	// The shared lookup may be serving other callers, so it must not be cut short when
	// the caller that happened to start it goes away
	sharedCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(apiKey, func() (interface{}, error) {
		k, err := s.next.Lookup(sharedCtx, apiKey)
		if err != nil {
			return Key{}, err
		}
		s.cache.Add(apiKey, k)
		return k, nil
	})
	select {
	case <-ctx.Done():
		return Key{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Key{}, res.Err
		}
		return res.Val.(Key), nil
	}
}

var _ Store = (*CachedStore)(nil)
