// Package logging defines a minimal structured-logging interface used across
// the project, with log/slog and zap backends.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.uber.org/zap"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "code verified", "email", email, "outcome", "ok")
type Logger interface {
	// Debug logs verbose diagnostics, disabled in production.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Backend names accepted by New.
const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// New builds the Logger selected by backend. Debug output is enabled unless
// production is set. The returned func flushes buffered entries.
func New(backend string, production bool, w io.Writer) (Logger, func(), error) {
	switch backend {
	case "", BackendSlog:
		level := slog.LevelDebug
		if production {
			level = slog.LevelInfo
		}
		h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
		return NewSlogLogger(slog.New(h)), func() {}, nil
	case BackendZap:
		var (
			zl  *zap.Logger
			err error
		)
		if production {
			zl, err = zap.NewProduction()
		} else {
			zl, err = zap.NewDevelopment()
		}
		if err != nil {
			return nil, nil, fmt.Errorf("init zap: %w", err)
		}
		return NewZapLogger(zl), func() { _ = zl.Sync() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown log backend %q", backend)
	}
}

// Nop returns a Logger that discards everything. Useful in tests.
func Nop() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
