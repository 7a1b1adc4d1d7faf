package entry

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type contextKey int

const (
	requestIdKey contextKey = iota
	loggerKey
)

// Middleware gives every incoming request an X-Request-Id (reusing the client's, if
// supplied) and a request-scoped slog.Logger, both stored in the request context, and
// logs each request when it finishes
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestId := r.Header.Get("x-request-id")
			if requestId == "" {
				requestId = uuid.NewString()
			}

			reqLogger := logger.With(
				"requestId", requestId,
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr,
			)
			reqLogger.Debug("Handling request")

			// Handlers further down the chain may swap in a more specific logger (e.g.
			// one tagged with the authenticated principal), so we keep a pointer to
			// whichever logger is current when the request finishes
			holder := &loggerHolder{logger: reqLogger}
			ctx := context.WithValue(r.Context(), requestIdKey, requestId)
			ctx = context.WithValue(ctx, loggerKey, holder)
			r = r.WithContext(ctx)

			w.Header().Set("x-request-id", requestId)
			recorder := statusRecorder{ResponseWriter: w}

			start := time.Now()
			next.ServeHTTP(&recorder, r)
			elapsed := time.Since(start)

			level := slog.LevelError
			if recorder.status >= 100 && recorder.status <= 499 {
				level = slog.LevelInfo
			} else if recorder.status == 0 && r.Context().Err() != nil {
				// The client went away before any response was written
				level = slog.LevelInfo
			}
			holder.logger.Log(r.Context(), level,
				"Request finished",
				"elapsedNanoseconds", elapsed.Nanoseconds(),
				"status", recorder.status,
			)
		})
	}
}

type loggerHolder struct {
	logger *slog.Logger
}

// Log returns a slog.Logger, guaranteed to be valid, for use within the context of the
// provided request
func Log(r *http.Request) *slog.Logger {
	return Logger(r.Context())
}

// Logger returns the request-scoped logger stored in ctx, or slog.Default()
func Logger(ctx context.Context) *slog.Logger {
	if holder, ok := ctx.Value(loggerKey).(*loggerHolder); ok && holder.logger != nil {
		return holder.logger
	}
	return slog.Default()
}

// WithLogger replaces the request-scoped logger for the remainder of the request,
// including the final 'Request finished' message written by Middleware
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if holder, ok := ctx.Value(loggerKey).(*loggerHolder); ok {
		holder.logger = logger
		return ctx
	}
	return context.WithValue(ctx, loggerKey, &loggerHolder{logger: logger})
}

// RequestId returns the ID assigned to the request by Middleware, if any
func RequestId(ctx context.Context) string {
	requestId, _ := ctx.Value(requestIdKey).(string)
	return requestId
}

// statusRecorder wraps an http.ResponseWriter in order to intercept and store the HTTP
// status code for the response to a request
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) Write(data []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(data)
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

// Flush lets streaming handlers (e.g. sse.Handler) flush through the recorder
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
