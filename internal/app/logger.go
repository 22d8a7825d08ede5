package app

import (
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/logger"
)

// AtomicLogger is a slog.Logger whose level and format can be swapped while
// other goroutines log through it.
type AtomicLogger struct {
	level *slog.LevelVar
	out   io.Writer
	ptr   atomic.Pointer[slog.Logger]
}

// NewAtomicLogger creates a logger writing to out.
func NewAtomicLogger(out io.Writer, level, format string) *AtomicLogger {
	l := &AtomicLogger{level: new(slog.LevelVar), out: out}
	l.Apply(level, format)
	return l
}

// Get returns the current logger.
func (l *AtomicLogger) Get() *slog.Logger {
	return l.ptr.Load()
}

// Apply changes level and format. The level changes in place; a new format
// replaces the handler.
func (l *AtomicLogger) Apply(level, format string) {
	l.level.Set(parseLevel(level))

	opts := &slog.HandlerOptions{Level: l.level}
	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(l.out, opts)
	} else {
		h = slog.NewJSONHandler(l.out, opts)
	}
	l.ptr.Store(slog.New(h))
}

// Level returns the active level.
func (l *AtomicLogger) Level() slog.Level {
	return l.level.Level()
}

// Adapter returns a logger.Logger that always writes through the current
// handler.
func (l *AtomicLogger) Adapter() logger.Logger {
	return &slogAdapter{source: l}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// slogAdapter adapts the atomic slog logger to logger.Logger.
type slogAdapter struct {
	source *AtomicLogger
}

func (a *slogAdapter) Debug(msg string, keysAndValues ...any) {
	a.source.Get().Debug(msg, keysAndValues...)
}

func (a *slogAdapter) Info(msg string, keysAndValues ...any) {
	a.source.Get().Info(msg, keysAndValues...)
}

func (a *slogAdapter) Warn(msg string, keysAndValues ...any) {
	a.source.Get().Warn(msg, keysAndValues...)
}

func (a *slogAdapter) Error(msg string, keysAndValues ...any) {
	a.source.Get().Error(msg, keysAndValues...)
}
