package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golden-vcr/hmac-auth/hmac"
)

// Pipeline resolves the principal for each request: see Provide. A Pipeline holds no
// per-request state and is safe for concurrent use, provided that its Authenticator
// and Authorizer are.
type Pipeline[P any] struct {
	authenticator Authenticator[P]
	authorizer    Authorizer[P]

	// OnDecision, if set, is called exactly once at the end of every call to Provide
	OnDecision DecisionFunc
}

// NewPipeline returns a Pipeline that authenticates requests with authenticator and,
// if authorizer is non-nil, authorizes them with authorizer
func NewPipeline[P any](authenticator Authenticator[P], authorizer Authorizer[P]) *Pipeline[P] {
	if authenticator == nil {
		panic("auth.NewPipeline: authenticator cannot be nil")
	}
	return &Pipeline[P]{
		authenticator: authenticator,
		authorizer:    authorizer,
	}
}

// Provide returns the principal that req is acting as, or an error explaining why the
// request must be refused. Checks run in a fixed order, and the first failure wins:
//
//  1. the request must carry an API key, else ErrMissingApiKey
//  2. the Authenticator must accept its credentials, else ErrUnauthorized (or, if the
//     Authenticator fails outright, a Rejection of KindInternal)
//  3. the Authorizer, if any, must allow the request, else ErrForbidden
//
// The Authenticator is called at most once, and the Authorizer at most once and only
// after successful authentication. If ctx is canceled before a decision is reached,
// ctx's error is returned.
func (p *Pipeline[P]) Provide(ctx context.Context, req Request) (P, error) {
	start := time.Now()
	principal, creds, err := p.provide(ctx, req)
	if p.OnDecision != nil {
		p.OnDecision(ctx, newDecision(start, req, creds, principal, err))
	}
	return principal, err
}

func (p *Pipeline[P]) provide(ctx context.Context, req Request) (P, hmac.Credentials, error) {
	var zero P
	if err := ctx.Err(); err != nil {
		return zero, hmac.Credentials{}, err
	}

	creds, err := ExtractCredentials(req)
	if err != nil {
		return zero, creds, err
	}

	principal, err := p.authenticator.Authenticate(ctx, creds)
	if err != nil {
		if errors.Is(err, ErrUnrecognized) {
			return zero, creds, ErrUnauthorized
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, creds, ctxErr
		}
		return zero, creds, internalError(fmt.Errorf("authenticator failed: %w", err))
	}

	if p.authorizer == nil {
		return principal, creds, nil
	}
	if err := ctx.Err(); err != nil {
		return zero, creds, err
	}

	uri := req.RequestURI()
	allowed, err := p.authorizer.Authorize(ctx, principal, req.Method(), uri.EscapedPath(), uri)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, creds, ctxErr
		}
		return zero, creds, internalError(fmt.Errorf("authorizer failed: %w", err))
	}
	if !allowed {
		return zero, creds, ErrForbidden
	}
	return principal, creds, nil
}
