package paintcore

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for paintcore and all its sub-packages.
// By default, paintcore produces no log output. Call SetLogger to enable
// logging. Pass nil to disable logging (restore default silent behavior).
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
//
// Log levels used by paintcore:
//   - [slog.LevelDebug]: best-effort skips (patch target missing at undo time)
//   - [slog.LevelWarn]: tolerated misuse (double capture, invalid transform
//     arguments, fit-to-content on a transformed layer)
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger used by paintcore.
// Sub-packages (layer/, history/) call this to share the same logger
// configuration without introducing import cycles.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
