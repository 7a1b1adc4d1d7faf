package keystore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_CachedStore(t *testing.T) {
	t.Run("successful lookups are cached", func(t *testing.T) {
		next := &countingStore{keys: map[string]Key{"fred": {ApiKey: "fred", Secret: "s", Principal: "fred"}}}
		s := NewCachedStore(next, 8, time.Minute)

		for i := 0; i < 3; i++ {
			k, err := s.Lookup(context.Background(), "fred")
			assert.NoError(t, err)
			assert.Equal(t, "s", k.Secret)
		}
		assert.Equal(t, int32(1), next.calls.Load())
	})

	t.Run("failed lookups are not cached", func(t *testing.T) {
		next := &countingStore{keys: map[string]Key{}}
		s := NewCachedStore(next, 8, time.Minute)

		_, err := s.Lookup(context.Background(), "fred")
		assert.ErrorIs(t, err, ErrKeyNotFound)
		_, err = s.Lookup(context.Background(), "fred")
		assert.ErrorIs(t, err, ErrKeyNotFound)
		assert.Equal(t, int32(2), next.calls.Load())
	})

	t.Run("errors from the underlying store are passed through", func(t *testing.T) {
		boom := errors.New("boom")
		next := &countingStore{err: boom}
		s := NewCachedStore(next, 8, time.Minute)
		_, err := s.Lookup(context.Background(), "fred")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("entries expire after the TTL", func(t *testing.T) {
		next := &countingStore{keys: map[string]Key{"fred": {ApiKey: "fred", Secret: "s"}}}
		s := NewCachedStore(next, 8, 20*time.Millisecond)

		_, err := s.Lookup(context.Background(), "fred")
		assert.NoError(t, err)
		time.Sleep(60 * time.Millisecond)
		_, err = s.Lookup(context.Background(), "fred")
		assert.NoError(t, err)
		assert.Equal(t, int32(2), next.calls.Load())
	})

	t.Run("revoked keys stay cached until the TTL elapses", func(t *testing.T) {
		next := &countingStore{keys: map[string]Key{"fred": {ApiKey: "fred", Secret: "s"}}}
		s := NewCachedStore(next, 8, 20*time.Millisecond)

		_, err := s.Lookup(context.Background(), "fred")
		assert.NoError(t, err)
		next.keys = map[string]Key{}

		_, err = s.Lookup(context.Background(), "fred")
		assert.NoError(t, err)
		time.Sleep(60 * time.Millisecond)
		_, err = s.Lookup(context.Background(), "fred")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("concurrent misses share a single lookup", func(t *testing.T) {
		release := make(chan struct{})
		next := &countingStore{
			keys:    map[string]Key{"fred": {ApiKey: "fred", Secret: "s"}},
			release: release,
		}
		s := NewCachedStore(next, 8, time.Minute)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				k, err := s.Lookup(context.Background(), "fred")
				assert.NoError(t, err)
				assert.Equal(t, "s", k.Secret)
			}()
		}
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()
		assert.Equal(t, int32(1), next.calls.Load())
	})

	t.Run("a cancelled caller does not fail others waiting on the same lookup", func(t *testing.T) {
		release := make(chan struct{})
		next := &countingStore{
			keys:    map[string]Key{"fred": {ApiKey: "fred", Secret: "s"}},
			release: release,
		}
		s := NewCachedStore(next, 8, time.Minute)

		ctxA, cancelA := context.WithCancel(context.Background())
		errA := make(chan error, 1)
		go func() {
			_, err := s.Lookup(ctxA, "fred")
			errA <- err
		}()
		assert.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, time.Millisecond)

		type result struct {
			key Key
			err error
		}
		resB := make(chan result, 1)
		go func() {
			k, err := s.Lookup(context.Background(), "fred")
			resB <- result{k, err}
		}()
		time.Sleep(20 * time.Millisecond)

		cancelA()
		select {
		case err := <-errA:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("cancelled caller did not return")
		}

		close(release)
		select {
		case res := <-resB:
			assert.NoError(t, res.err)
			assert.Equal(t, "s", res.key.Secret)
		case <-time.After(time.Second):
			t.Fatal("waiting caller did not return")
		}
		assert.Equal(t, int32(1), next.calls.Load())

		k, err := s.Lookup(context.Background(), "fred")
		assert.NoError(t, err)
		assert.Equal(t, "s", k.Secret)
		assert.Equal(t, int32(1), next.calls.Load())
	})
}

type countingStore struct {
	keys    map[string]Key
	err     error
	release chan struct{}
	calls   atomic.Int32
}

func (s *countingStore) Lookup(ctx context.Context, apiKey string) (Key, error) {
	s.calls.Add(1)
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return Key{}, ctx.Err()
		}
	}
	if s.err != nil {
		return Key{}, s.err
	}
	k, ok := s.keys[apiKey]
	if !ok {
		return Key{}, ErrKeyNotFound
	}
	return k, nil
}
