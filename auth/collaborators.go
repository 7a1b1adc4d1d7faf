package auth

import (
	"context"
	"net/url"

	"github.com/golden-vcr/hmac-auth/hmac"
)

// ErrUnrecognized is returned by an Authenticator to indicate that the credentials
// were not accepted. Authenticators must not reveal why: an unknown key, a bad
// signature, a stale timestamp and an unsupported version all look the same.
var ErrUnrecognized = hmac.ErrVerificationFailed

// Authenticator maps credentials to the principal they identify. It returns
// ErrUnrecognized (possibly wrapped) if the credentials are not accepted; any other
// error is treated as a failure of the authenticator itself.
type Authenticator[P any] interface {
	Authenticate(ctx context.Context, c hmac.Credentials) (P, error)
}

// AuthenticatorFunc adapts a function to the Authenticator interface
type AuthenticatorFunc[P any] func(ctx context.Context, c hmac.Credentials) (P, error)

func (f AuthenticatorFunc[P]) Authenticate(ctx context.Context, c hmac.Credentials) (P, error) {
	return f(ctx, c)
}

// Authorizer decides whether an authenticated principal may perform a request.
// relativePath is the escaped request path without its query string; fullURI is the complete
// request URI. A non-nil error is treated as a failure of the authorizer itself.
type Authorizer[P any] interface {
	Authorize(ctx context.Context, principal P, method, relativePath string, fullURI *url.URL) (bool, error)
}

// AuthorizerFunc adapts a function to the Authorizer interface
type AuthorizerFunc[P any] func(ctx context.Context, principal P, method, relativePath string, fullURI *url.URL) (bool, error)

func (f AuthorizerFunc[P]) Authorize(ctx context.Context, principal P, method, relativePath string, fullURI *url.URL) (bool, error) {
	return f(ctx, principal, method, relativePath, fullURI)
}
