// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. TurnLogger adds contextual helpers (tenant, lead,
// session) and domain specific logging for provider calls and handoffs.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger defines the minimal logging interface for funnelmesh. Callers can
// provide their own implementation or use the built-in adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger { return &SlogAdapter{Logger: logger} }

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger { return NewSlogAdapter(slog.Default()) }

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NoOpLogger discards all log messages. Useful for testing or when logging
// is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// Config configures construction of a TurnLogger.
type Config struct {
	Level     slog.Level
	Format    string // json or text
	Output    io.Writer
	AddSource bool
}

// DefaultConfig returns a baseline JSON info-level configuration.
func DefaultConfig() *Config {
	return &Config{Level: slog.LevelInfo, Format: "json", Output: os.Stdout}
}

// TurnLogger wraps slog.Logger adding contextual cloning helpers and
// convenience methods for the turn pipeline. With* methods are cheap and
// return copies, so a shared base logger can be specialized per turn.
type TurnLogger struct {
	logger *slog.Logger
	attrs  []slog.Attr
}

// New builds a TurnLogger from a config (or defaults if nil).
func New(cfg *Config) *TurnLogger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	return &TurnLogger{logger: slog.New(handler)}
}

// FromSlog wraps an existing slog.Logger.
func FromSlog(l *slog.Logger) *TurnLogger { return &TurnLogger{logger: l} }

func (l *TurnLogger) with(attrs ...slog.Attr) *TurnLogger {
	nl := &TurnLogger{logger: l.logger}
	nl.attrs = append(append([]slog.Attr{}, l.attrs...), attrs...)
	return nl
}

// WithTenant attaches the tenant identifier to every entry.
func (l *TurnLogger) WithTenant(id string) *TurnLogger {
	return l.with(slog.String("tenant_id", id))
}

// WithLead attaches lead and session identifiers to every entry.
func (l *TurnLogger) WithLead(leadID, sessionID string) *TurnLogger {
	return l.with(slog.String("lead_id", leadID), slog.String("session_id", sessionID))
}

// WithComponent sets the logical component (supervisor, router, cache...).
func (l *TurnLogger) WithComponent(c string) *TurnLogger {
	return l.with(slog.String("component", c))
}

func (l *TurnLogger) log(level slog.Level, msg string, args []any) {
	logger := l.logger
	if len(l.attrs) > 0 {
		logger = slog.New(l.logger.Handler().WithAttrs(l.attrs))
	}
	logger.Log(context.Background(), level, msg, args...)
}

// Debug logs at debug level.
func (l *TurnLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }

// Info logs at info level.
func (l *TurnLogger) Info(msg string, args ...any) { l.log(slog.LevelInfo, msg, args) }

// Warn logs at warn level.
func (l *TurnLogger) Warn(msg string, args ...any) { l.log(slog.LevelWarn, msg, args) }

// Error logs at error level.
func (l *TurnLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

// LogProviderCall records latency, token usage and outcome of one LLM call.
func (l *TurnLogger) LogProviderCall(provider string, tokens int, dur time.Duration, fallback bool, err error) {
	args := []any{
		"provider", provider,
		"token_count", tokens,
		"duration", dur,
		"fallback_used", fallback,
	}
	if err != nil {
		args = append(args, "error", err.Error())
		l.log(slog.LevelError, "provider call failed", args)
		return
	}
	l.log(slog.LevelInfo, "provider call completed", args)
}

// LogHandoff records an applied agent handoff for audit.
func (l *TurnLogger) LogHandoff(from, target, reason string, count int) {
	l.log(slog.LevelInfo, "agent handoff", []any{
		"from", from,
		"target", target,
		"reason", reason,
		"handoff_count", count,
	})
}

// LogTurn records aggregate metrics for one routed turn.
func (l *TurnLogger) LogTurn(agent string, handoffs int, dur time.Duration, err error) {
	args := []any{"agent", agent, "handoffs", handoffs, "duration", dur}
	if err != nil {
		args = append(args, "error", err.Error())
		l.log(slog.LevelError, "turn failed", args)
		return
	}
	l.log(slog.LevelInfo, "turn completed", args)
}
