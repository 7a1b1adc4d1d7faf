package entry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Middleware(t *testing.T) {
	t.Run("request id is generated and exposed", func(t *testing.T) {
		var gotRequestId string
		handler := Middleware(slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotRequestId = RequestId(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}))

		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
		_, err := uuid.Parse(gotRequestId)
		assert.NoError(t, err)
		assert.Equal(t, gotRequestId, res.Header().Get("x-request-id"))
	})

	t.Run("client-supplied request id is reused", func(t *testing.T) {
		var gotRequestId string
		handler := Middleware(slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotRequestId = RequestId(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("x-request-id", "abc-123")
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		assert.Equal(t, "abc-123", gotRequestId)
		assert.Equal(t, "abc-123", res.Header().Get("x-request-id"))
	})

	t.Run("finished request is logged with the latest logger", func(t *testing.T) {
		buf := &bytes.Buffer{}
		handler := Middleware(slog.New(slog.NewJSONHandler(buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			WithLogger(r.Context(), Log(r).With("principal", "user:fred"))
			w.WriteHeader(http.StatusForbidden)
		}))

		req := httptest.NewRequest(http.MethodPost, "/pizza", nil)
		req.Header.Set("x-request-id", "abc-123")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		var last map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &last))
		assert.Equal(t, "Request finished", last["msg"])
		assert.Equal(t, "INFO", last["level"])
		assert.Equal(t, "abc-123", last["requestId"])
		assert.Equal(t, "POST", last["method"])
		assert.Equal(t, "/pizza", last["path"])
		assert.Equal(t, "user:fred", last["principal"])
		assert.Equal(t, float64(http.StatusForbidden), last["status"])
	})

	t.Run("server errors are logged at error level", func(t *testing.T) {
		buf := &bytes.Buffer{}
		handler := Middleware(slog.New(slog.NewJSONHandler(buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "oops", http.StatusInternalServerError)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Contains(t, buf.String(), `"level":"ERROR"`)
	})

	t.Run("requests abandoned by the client are logged at info level", func(t *testing.T) {
		buf := &bytes.Buffer{}
		handler := Middleware(slog.New(slog.NewJSONHandler(buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		var last map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &last))
		assert.Equal(t, "Request finished", last["msg"])
		assert.Equal(t, "INFO", last["level"])
		assert.Equal(t, float64(0), last["status"])
	})
}

func Test_Logger(t *testing.T) {
	t.Run("falls back to the default logger", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Equal(t, slog.Default(), Log(r))
		assert.Empty(t, RequestId(r.Context()))
	})

	t.Run("WithLogger outside of Middleware stores a new logger", func(t *testing.T) {
		logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := WithLogger(r.Context(), logger)
		assert.Equal(t, logger, Logger(ctx))
	})
}

func Test_ParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		level, err := ParseLevel(name)
		assert.NoError(t, err)
		assert.Equal(t, want, level)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
