package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_Handler(t *testing.T) {
	t.Run("server responds by opening an SSE connection", func(t *testing.T) {
		h := NewHandler[struct{}](context.Background(), make(<-chan struct{}))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		res := newStreamRecorder()
		go h.ServeHTTP(res, req)
		waitForResponseSubstring(t, res, ":")

		assert.Equal(t, http.StatusOK, res.Code())
		assert.Equal(t, "text/event-stream", res.Header().Get("content-type"))
		assert.Equal(t, "no-cache", res.Header().Get("cache-control"))
	})
	t.Run("if explict 'accept' is set, it must be 'text/event-stream'", func(t *testing.T) {
		h := NewHandler[struct{}](context.Background(), make(<-chan struct{}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("accept", "application/json")
		res := httptest.NewRecorder()
		h.ServeHTTP(res, req)

		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
	t.Run("messages sent to channel are fanned out to all connected clients", func(t *testing.T) {
		coords := make(chan coordinate, 32)
		h := NewHandler[coordinate](context.Background(), coords)

		ctxA, closeA := context.WithCancel(context.Background())
		ctxB, closeB := context.WithCancel(context.Background())
		defer closeA()
		defer closeB()
		resA := newStreamRecorder()
		resB := newStreamRecorder()

		// Connect client A, and while it's connected, emit a new message
		go h.ServeHTTP(resA, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctxA))
		blockUntil(t, func() bool { return h.b.len() == 1 })
		coords <- coordinate{X: 200, Y: 2}
		waitForResponseSubstring(t, resA, `"x":200`)

		// Connect client B, then emit a message which both clients should receive
		go h.ServeHTTP(resB, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctxB))
		blockUntil(t, func() bool { return h.b.len() == 2 })
		coords <- coordinate{X: 300, Y: 3}
		waitForResponseSubstring(t, resA, `"x":300`)
		waitForResponseSubstring(t, resB, `"x":300`)

		// Disconnect client A, then emit a final message
		closeA()
		blockUntil(t, func() bool { return h.b.len() == 1 })
		coords <- coordinate{X: 400, Y: 4}
		waitForResponseSubstring(t, resB, `"x":400`)

		assert.Equal(t, ":\n\ndata: {\"x\":200,\"y\":2}\n\ndata: {\"x\":300,\"y\":3}\n\n", resA.Body())
		assert.Equal(t, ":\n\ndata: {\"x\":300,\"y\":3}\n\ndata: {\"x\":400,\"y\":4}\n\n", resB.Body())
	})
	t.Run("canceling the handler's context closes all connections", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		coords := make(chan coordinate, 32)
		h := NewHandler[coordinate](ctx, coords)

		res := newStreamRecorder()
		done := make(chan struct{})
		go func() {
			h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
			close(done)
		}()
		blockUntil(t, func() bool { return h.b.len() == 1 })

		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("handler did not return after its context was canceled")
		}
	})
	t.Run("messages rejected by Filter are not sent to that client", func(t *testing.T) {
		coords := make(chan coordinate, 32)
		h := NewHandler[coordinate](context.Background(), coords)
		h.Filter = func(req *http.Request, c coordinate) bool {
			return req.URL.Query().Get("y") == strconv.Itoa(c.Y)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		res := newStreamRecorder()
		go h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/?y=1", nil).WithContext(ctx))
		blockUntil(t, func() bool { return h.b.len() == 1 })

		coords <- coordinate{X: 5, Y: 0}
		coords <- coordinate{X: 6, Y: 1}
		waitForResponseSubstring(t, res, `"x":6`)
		assert.NotContains(t, res.Body(), `"x":5`)
	})
	t.Run("idle connections receive keepalive comments", func(t *testing.T) {
		h := NewHandler[coordinate](context.Background(), make(chan coordinate))
		h.KeepaliveInterval = 5 * time.Millisecond

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		res := newStreamRecorder()
		go h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
		waitForResponseSubstring(t, res, ":\n\n:\n\n")
	})
}

type coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// streamRecorder is a ResponseWriter whose body can be read while a handler is still
// writing to it
type streamRecorder struct {
	mu     sync.Mutex
	header http.Header
	code   int
	body   strings.Builder
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{header: make(http.Header)}
}

func (r *streamRecorder) Header() http.Header {
	return r.header
}

func (r *streamRecorder) Write(data []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.code == 0 {
		r.code = http.StatusOK
	}
	return r.body.Write(data)
}

func (r *streamRecorder) WriteHeader(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.code = code
}

func (r *streamRecorder) Flush() {}

func (r *streamRecorder) Code() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.code
}

func (r *streamRecorder) Body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

func waitForResponseSubstring(t *testing.T, res *streamRecorder, s string) {
	t.Helper()
	blockUntil(t, func() bool { return strings.Contains(res.Body(), s) })
}

func blockUntil(t *testing.T, cond func() bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			t.Fatal("timed out waiting for condition")
		case <-time.After(100 * time.Microsecond):
			if cond() {
				return
			}
		}
	}
}
