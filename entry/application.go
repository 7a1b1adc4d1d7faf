package entry

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

type Application interface {
	Context() context.Context
	Log() *slog.Logger
	Fail(message string, err error)
	Stop()
}

// NewApplication prepares a JSON logger writing to stdout at the given level, and a
// context that is canceled when the process receives SIGINT or SIGTERM
func NewApplication(name string, level slog.Level) Application {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).With(
		"app", name,
		"pid", os.Getpid(),
	)
	logger.Info("Process starting")

	ctx, close := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &application{
		ctx:      ctx,
		closeCtx: close,
		logger:   logger,
	}
}

// ParseLevel resolves a level name (debug, info, warn or error) to a slog.Level
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(strings.ToUpper(s)))
	return level, err
}

type application struct {
	ctx      context.Context
	closeCtx context.CancelFunc
	logger   *slog.Logger
}

func (a *application) Context() context.Context {
	return a.ctx
}

func (a *application) Log() *slog.Logger {
	return a.logger
}

func (a *application) Fail(message string, err error) {
	a.logger.Error(message, "error", err)
	os.Exit(1)
}

func (a *application) Stop() {
	a.logger.Info("Process stopping")
	a.closeCtx()
}
