package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/golden-vcr/hmac-auth/hmac"
)

func Test_Middleware(t *testing.T) {
	authenticator := AuthenticatorFunc[string](func(ctx context.Context, c hmac.Credentials) (string, error) {
		switch c.Signature {
		case "good":
			return "user:" + c.ApiKey, nil
		case "broken":
			return "", errors.New("store unavailable")
		}
		return "", ErrUnrecognized
	})
	authorizer := AuthorizerFunc[string](func(ctx context.Context, principal string, method, relativePath string, fullURI *url.URL) (bool, error) {
		return relativePath != "/admin", nil
	})
	p := NewPipeline[string](authenticator, authorizer)

	var reached bool
	var gotPrincipal string
	handler := Middleware(p)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		gotPrincipal, _ = PrincipalFrom[string](r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		target     string
		signature  string
		wantStatus int
		wantBody   string
	}{
		{"accepted request reaches the handler", "/pizza?apiKey=fred", "good", http.StatusNoContent, ""},
		{"missing apiKey is a bad request", "/pizza", "good", http.StatusBadRequest, "Bad Request\n"},
		{"bad signature is unauthorized", "/pizza?apiKey=fred", "bad", http.StatusUnauthorized, "Unauthorized\n"},
		{"denied request is forbidden", "/admin?apiKey=fred", "good", http.StatusForbidden, "Forbidden\n"},
		{"authenticator failure is an internal error", "/pizza?apiKey=fred", "broken", http.StatusInternalServerError, "Internal Server Error\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = false
			gotPrincipal = ""

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			req.Header.Set("X-Auth-Signature", tt.signature)
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)

			assert.Equal(t, tt.wantStatus, res.Code)
			assert.Equal(t, tt.wantBody, res.Body.String())
			if tt.wantStatus == http.StatusNoContent {
				assert.True(t, reached)
				assert.Equal(t, "user:fred", gotPrincipal)
			} else {
				assert.False(t, reached)
			}
		})
	}

	t.Run("nothing is written for a canceled request", func(t *testing.T) {
		reached = false
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		req := httptest.NewRequest(http.MethodGet, "/pizza?apiKey=fred", nil).WithContext(ctx)
		req.Header.Set("X-Auth-Signature", "good")
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)

		assert.False(t, reached)
		assert.False(t, res.Flushed)
		assert.Empty(t, res.Body.String())
		assert.Empty(t, res.Header())
	})
}

func Test_PrincipalFrom(t *testing.T) {
	_, ok := PrincipalFrom[string](context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), "fred")
	principal, ok := PrincipalFrom[string](ctx)
	assert.True(t, ok)
	assert.Equal(t, "fred", principal)

	_, ok = PrincipalFrom[int](ctx)
	assert.False(t, ok)
}
