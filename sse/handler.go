package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golden-vcr/hmac-auth/entry"
)

// DefaultKeepaliveInterval is how often an idle stream receives a comment line, so
// that proxies don't time the connection out
const DefaultKeepaliveInterval = 30 * time.Second

// Handler is an HTTP handler that serves a stream of data using Server-Sent Events
type Handler[T any] struct {
	ctx context.Context
	b   bus[T]

	// Filter, if set, decides per client request whether a message is sent to it
	Filter func(req *http.Request, message T) bool

	// KeepaliveInterval overrides DefaultKeepaliveInterval if positive
	KeepaliveInterval time.Duration
}

// NewHandler initializes an SSE handler that will read messages from the given channel
// and fan them out to all extant HTTP connections, until ctx is done
func NewHandler[T any](ctx context.Context, ch <-chan T) *Handler[T] {
	h := &Handler[T]{
		ctx: ctx,
		b: bus[T]{
			chs: make(map[chan T]struct{}),
		},
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				h.b.clear()
				return
			case message := <-ch:
				h.b.publish(message)
			}
		}
	}()
	return h
}

// ServeHTTP responds by opening a long-lived HTTP connection to which events will be
// written as the handler receives them, formatted as text/event-stream messages with
// 'data' consisting of a JSON-encoded message payload
func (h *Handler[T]) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	logger := entry.Log(req)

	accept := req.Header.Get("accept")
	if accept != "" && accept != "*/*" && !strings.HasPrefix(accept, "text/event-stream") {
		message := fmt.Sprintf("content-type %s is not supported", accept)
		http.Error(res, message, http.StatusBadRequest)
		return
	}
	flusher, ok := res.(http.Flusher)
	if !ok {
		http.Error(res, "streaming is not supported", http.StatusInternalServerError)
		return
	}

	res.Header().Set("content-type", "text/event-stream")
	res.Header().Set("cache-control", "no-cache")
	res.Header().Set("connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	// Send an initial comment so that clients (and any proxies in between) see the
	// stream open immediately
	res.Write([]byte(":\n\n"))
	flusher.Flush()

	ch := make(chan T, 32)
	h.b.register(ch)
	defer h.b.unregister(ch)

	interval := h.KeepaliveInterval
	if interval <= 0 {
		interval = DefaultKeepaliveInterval
	}
	keepalive := time.NewTicker(interval)
	defer keepalive.Stop()

	logger.Info("Opened SSE connection")
	for {
		select {
		case <-keepalive.C:
			res.Write([]byte(":\n\n"))
			flusher.Flush()
		case message := <-ch:
			if h.Filter == nil || h.Filter(req, message) {
				h.write(res, logger, message)
				flusher.Flush()
			}
		case <-h.ctx.Done():
			logger.Info("Server is shutting down; abandoning SSE connection")
			return
		case <-req.Context().Done():
			logger.Info("Closed SSE connection")
			return
		}
	}
}

func (h *Handler[T]) write(res http.ResponseWriter, logger *slog.Logger, message T) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to serialize SSE message as JSON", "error", err)
		return
	}
	fmt.Fprintf(res, "data: %s\n\n", data)
}
