package logging

import (
	"io"
	"log/slog"
	"strings"
	"sync"
)

var (
	mu   sync.RWMutex
	base = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// Setup replaces the process logger. Output goes to w at the given level
// ("debug", "info", "warn", "error"; anything else means info).
func Setup(w io.Writer, level string) *slog.Logger {
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
	mu.Lock()
	base = l
	mu.Unlock()
	return l
}

// ParseLevel maps a level name to a slog level
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// For returns a logger tagged with a component name
func For(component string) *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.With("component", component)
}

// Component-specific loggers

func API() *slog.Logger     { return For("api") }
func Session() *slog.Logger { return For("session") }
func State() *slog.Logger   { return For("state") }
func UI() *slog.Logger      { return For("ui") }
func Mock() *slog.Logger    { return For("mock") }
func CLI() *slog.Logger     { return For("cli") }
