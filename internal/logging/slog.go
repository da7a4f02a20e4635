package logging

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// SlogLogger writes records straight to a slog.Handler so that fields stored
// with WithFields and the caller's source position end up on every record.
type SlogLogger struct {
	h slog.Handler
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{h: l.Handler()}
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelDebug, msg, args)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelInfo, msg, args)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelWarn, msg, args)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelError, msg, args)
}

func (s *SlogLogger) With(args ...any) Logger {
	if len(args) == 0 {
		return s
	}
	return &SlogLogger{h: s.h.WithAttrs(attrs(args))}
}

func (s *SlogLogger) log(ctx context.Context, level slog.Level, msg string, args []any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !s.h.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // skip Callers, log and the level method
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.AddAttrs(attrs(fieldsFrom(ctx))...)
	r.AddAttrs(attrs(args)...)
	_ = s.h.Handle(ctx, r)
}

// attrs converts loose key/value pairs the way slog.Logger does, including
// the !BADKEY treatment of a dangling value.
func attrs(args []any) []slog.Attr {
	if len(args) == 0 {
		return nil
	}
	var r slog.Record
	r.Add(args...)
	out := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		out = append(out, a)
		return true
	})
	return out
}
