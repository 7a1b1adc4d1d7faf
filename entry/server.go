package entry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds how long RunServer waits for in-flight requests to finish
// once its context is done
const ShutdownTimeout = 10 * time.Second

// NewServer prepares an http.Server that serves handler, wrapped in Middleware, on the
// given address
func NewServer(logger *slog.Logger, handler http.Handler, bindAddr string, listenPort int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bindAddr, listenPort),
		Handler:           Middleware(logger)(handler),
		ErrorLog:          NewErrorLog(logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// RunServer blocks while server runs. When ctx is done the server is shut down
// gracefully and RunServer returns nil; if the server fails, its error is returned.
func RunServer(ctx context.Context, logger *slog.Logger, server *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Now listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Closing server", "addr", server.Addr)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("error running server on %s: %w", server.Addr, err)
	}
	logger.Info("Server closed", "addr", server.Addr)
	return nil
}

// NewErrorLog adapts an slog.Logger to the simpler log.Logger interface used by
// http.Server's ErrorLog field
func NewErrorLog(logger *slog.Logger) *log.Logger {
	return log.New(errorLogWriter{logger}, "", 0)
}

// errorLogWriter is an implementation of io.Writer that handles http server errors by
// writing them to an underlying slog.Logger
type errorLogWriter struct {
	logger *slog.Logger
}

func (w errorLogWriter) Write(data []byte) (int, error) {
	w.logger.Error("http.Server error", "error", string(data))
	return len(data), nil
}
