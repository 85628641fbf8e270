// Package qlog is the structured warning/debug logging facility the core
// uses as a side channel. Per spec, the core never logs semantic outcomes —
// it returns errors — but per-note parse failures during rebuild and similar
// soft faults are surfaced here without halting the operation.
package qlog

import (
	"context"
	"log/slog"
	"os"
)

// Logger is the minimal surface the core depends on. A nil *Logger is valid
// and discards everything, so callers that don't care about warnings can
// pass nil through.
type Logger struct {
	h *slog.Logger
}

// New wraps an *slog.Logger. Pass nil to get the package default (text
// handler on stderr).
func New(h *slog.Logger) *Logger {
	if h == nil {
		h = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	return &Logger{h: h}
}

// Discard returns a Logger that drops everything, for tests that don't
// want rebuild warnings on stderr.
func Discard() *Logger {
	return New(slog.New(slog.NewTextHandler(discardWriter{}, nil)))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func (l *Logger) Warnf(ctx context.Context, msg string, args ...any) {
	if l == nil || l.h == nil {
		return
	}

	l.h.WarnContext(ctx, msg, args...)
}

func (l *Logger) Debugf(ctx context.Context, msg string, args ...any) {
	if l == nil || l.h == nil {
		return
	}

	l.h.DebugContext(ctx, msg, args...)
}
