package auth

import (
	"context"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/golden-vcr/hmac-auth/hmac"
)

// fakeRequest implements Request without net/http, to show that the pipeline needs
// nothing more than the Request interface
type fakeRequest struct {
	query   map[string][]string
	headers map[string]string
	method  string
	uri     string
}

func (r *fakeRequest) QueryValues(name string) []string {
	return r.query[name]
}

func (r *fakeRequest) Header(name string) string {
	for k, v := range r.headers {
		if http.CanonicalHeaderKey(k) == http.CanonicalHeaderKey(name) {
			return v
		}
	}
	return ""
}

func (r *fakeRequest) Method() string {
	return r.method
}

func (r *fakeRequest) RequestURI() *url.URL {
	u, err := url.Parse(r.uri)
	if err != nil {
		panic(err)
	}
	return u
}

// stubAuthenticator returns a fixed result and records what it was called with
type stubAuthenticator struct {
	principal string
	err       error
	calls     atomic.Int32
	got       hmac.Credentials
	onCall    func()
}

func (a *stubAuthenticator) Authenticate(ctx context.Context, c hmac.Credentials) (string, error) {
	a.calls.Add(1)
	a.got = c
	if a.onCall != nil {
		a.onCall()
	}
	return a.principal, a.err
}

type authorizeCall struct {
	principal    string
	method       string
	relativePath string
	fullURI      string
}

// stubAuthorizer returns a fixed result and records what it was called with
type stubAuthorizer struct {
	allow bool
	err   error
	calls atomic.Int32
	got   authorizeCall
}

func (a *stubAuthorizer) Authorize(ctx context.Context, principal string, method, relativePath string, fullURI *url.URL) (bool, error) {
	a.calls.Add(1)
	a.got = authorizeCall{principal, method, relativePath, fullURI.String()}
	return a.allow, a.err
}
