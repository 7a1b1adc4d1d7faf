package keystore

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StaticStore is an immutable, in-memory Store
type StaticStore struct {
	keys map[string]Key
}

// NewStaticStore builds a StaticStore from a list of keys, each of which must have a
// unique, non-empty API key and a non-empty secret
func NewStaticStore(keys []Key) (*StaticStore, error) {
	m := make(map[string]Key, len(keys))
	for i, k := range keys {
		if k.ApiKey == "" {
			return nil, fmt.Errorf("key %d has no api_key", i)
		}
		if k.Secret == "" {
			return nil, fmt.Errorf("key '%s' has no secret", k.ApiKey)
		}
		if _, exists := m[k.ApiKey]; exists {
			return nil, fmt.Errorf("key '%s' is declared more than once", k.ApiKey)
		}
		if k.Principal == "" {
			k.Principal = k.ApiKey
		}
		m[k.ApiKey] = k
	}
	return &StaticStore{keys: m}, nil
}

// LoadStaticFile reads a YAML file of the form:
//
//	keys:
//	  - api_key: fred-key
//	    secret: some-secret
//	    principal: fred
//
// and returns a StaticStore containing those keys. A key with no principal acts as
// itself.
func LoadStaticFile(path string) (*StaticStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %s: %w", path, err)
	}
	var f struct {
		Keys []Key `yaml:"keys"`
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse key file %s: %w", path, err)
	}
	store, err := NewStaticStore(f.Keys)
	if err != nil {
		return nil, fmt.Errorf("invalid key file %s: %w", path, err)
	}
	return store, nil
}

func (s *StaticStore) Lookup(ctx context.Context, apiKey string) (Key, error) {
	k, ok := s.keys[apiKey]
	if !ok {
		return Key{}, ErrKeyNotFound
	}
	return k, nil
}

// Len returns the number of keys in the store
func (s *StaticStore) Len() int {
	return len(s.keys)
}

var _ Store = (*StaticStore)(nil)
