package keystore

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Lookup when no usable key with the requested ID exists
var ErrKeyNotFound = errors.New("api key not found")

// Key associates an API key with the secret that requests bearing that key must be
// signed with, along with the principal that those requests act as
type Key struct {
	ApiKey    string `yaml:"api_key"`
	Secret    string `yaml:"secret"`
	Principal string `yaml:"principal"`
}

// Store looks up API keys. Implementations must be safe for concurrent use. Errors
// other than ErrKeyNotFound indicate that the store itself failed.
type Store interface {
	Lookup(ctx context.Context, apiKey string) (Key, error)
}
