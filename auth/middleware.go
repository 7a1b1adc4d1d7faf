package auth

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/golden-vcr/hmac-auth/entry"
)

// Middleware runs every request through p before passing it to the next handler.
// Refused requests are answered with the status code of their Rejection and never
// reach the next handler; accepted requests carry their principal in the request
// context (see PrincipalFrom), and their request logger is tagged with it.
func Middleware[P any](p *Pipeline[P]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := entry.Log(r)

			principal, err := p.Provide(r.Context(), HTTPRequest(r))
			if err != nil {
				// If the client has gone away there's nobody to respond to
				if r.Context().Err() != nil {
					logger.Info("Request canceled during authentication", "error", err)
					return
				}

				status := StatusCode(err)
				level := slog.LevelInfo
				if status >= http.StatusInternalServerError {
					level = slog.LevelError
				}
				logger.Log(r.Context(), level, "Request refused", "status", status, "error", err)
				http.Error(w, http.StatusText(status), status)
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			ctx = entry.WithLogger(ctx, logger.With("principal", fmt.Sprint(principal)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
