package hmac

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golden-vcr/hmac-auth/keystore"
)

// ErrVerificationFailed is returned by an Authenticator whenever a request's
// credentials are not accepted, for any reason that is the caller's fault: the cause
// is deliberately not revealed
var ErrVerificationFailed = errors.New("verification failed")

// DefaultSkewWindow is the maximum difference tolerated between a request's
// X-Auth-Timestamp and the server clock, unless otherwise configured
const DefaultSkewWindow = 15 * time.Minute

// Authenticator resolves the principal associated with a set of credentials, provided
// that the request was signed with that principal's secret
type Authenticator interface {
	Authenticate(ctx context.Context, c Credentials) (string, error)
}

// NewAuthenticator returns an Authenticator that resolves secrets through store and
// rejects requests signed more than skew away from the current time
func NewAuthenticator(store keystore.Store, skew time.Duration) Authenticator {
	if skew <= 0 {
		skew = DefaultSkewWindow
	}
	decoy := make([]byte, 32)
	if _, err := rand.Read(decoy); err != nil {
		panic(fmt.Sprintf("failed to generate decoy secret: %v", err))
	}
	return &authenticator{
		store: store,
		skew:  skew,
		decoy: decoy,
		now:   time.Now,
	}
}

type authenticator struct {
	store keystore.Store
	skew  time.Duration
	decoy []byte
	now   func() time.Time
}

func (a *authenticator) Authenticate(ctx context.Context, c Credentials) (string, error) {
	if c.ApiKey == "" || c.Signature == "" || c.Timestamp == "" {
		return "", ErrVerificationFailed
	}

	stringToSign, err := StringToSign(c.Version, c.Method, c.Path, c.Timestamp)
	if err != nil {
		return "", ErrVerificationFailed
	}

	timestamp, err := ParseTimestamp(c.Timestamp)
	if err != nil || !a.isFresh(timestamp) {
		return "", ErrVerificationFailed
	}

	key, err := a.store.Lookup(ctx, c.ApiKey)
	found := err == nil
	if err != nil && !errors.Is(err, keystore.ErrKeyNotFound) {
		return "", fmt.Errorf("failed to look up API key: %w", err)
	}

	// Compute and compare a signature even if the key doesn't exist, so that unknown
	// keys take as long to reject as bad signatures
	secret := a.decoy
	if found {
		secret = []byte(key.Secret)
	}
	computed := ComputeSignature(secret, stringToSign)
	matches := hmac.Equal([]byte(c.Signature), []byte(computed))

	if !found || !matches {
		return "", ErrVerificationFailed
	}
	return key.Principal, nil
}

func (a *authenticator) isFresh(timestamp time.Time) bool {
	delta := a.now().Sub(timestamp)
	if delta < 0 {
		delta = -delta
	}
	return delta <= a.skew
}

var _ Authenticator = (*authenticator)(nil)
