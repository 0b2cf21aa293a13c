// Package logging configures structured logging with optional Sentry forwarding.
// Output always goes to stderr (or a file): stdout carries the MCP stdio transport.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

// Config holds logging configuration.
type Config struct {
	Level     slog.Level
	SentryDSN string
	Env       string // "development", "production"
	Version   string
	Output    io.Writer // nil = stderr
}

// New builds a logger from cfg. When SentryDSN is set, error-level records
// are also captured as Sentry events. The returned flush func must be
// called before exit and is always non-nil.
func New(cfg Config) (*slog.Logger, func(time.Duration), error) {
	sentryEnabled := false
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Env,
			Release:     cfg.Version,
		}); err != nil {
			return nil, func(time.Duration) {}, fmt.Errorf("sentry init: %w", err)
		}
		sentryEnabled = true
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	handler := &sentryHandler{
		Handler:       slog.NewTextHandler(output, &slog.HandlerOptions{Level: cfg.Level}),
		sentryEnabled: sentryEnabled,
	}

	flush := func(timeout time.Duration) {
		if sentryEnabled {
			sentry.Flush(timeout)
		}
	}
	return slog.New(handler), flush, nil
}

// ParseLevel maps a LOG_LEVEL value to a slog level; unknown values mean info.
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

// sentryHandler wraps an slog.Handler and sends errors to Sentry.
// It keeps its own copy of With attrs so events carry the same context
// as the text output.
type sentryHandler struct {
	slog.Handler
	sentryEnabled bool
	attrs         []slog.Attr // keys already qualified by groups
	group         string      // "a.b." prefix for record attrs
}

func (h *sentryHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.Handler.Handle(ctx, r); err != nil {
		return err
	}
	if h.sentryEnabled && r.Level >= slog.LevelError {
		sentry.CaptureEvent(h.event(r))
	}
	return nil
}

func (h *sentryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(merged, h.attrs)
	for _, a := range attrs {
		merged = append(merged, slog.Attr{Key: h.group + a.Key, Value: a.Value})
	}
	return &sentryHandler{
		Handler:       h.Handler.WithAttrs(attrs),
		sentryEnabled: h.sentryEnabled,
		attrs:         merged,
		group:         h.group,
	}
}

func (h *sentryHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &sentryHandler{
		Handler:       h.Handler.WithGroup(name),
		sentryEnabled: h.sentryEnabled,
		attrs:         h.attrs,
		group:         h.group + name + ".",
	}
}

// event builds the Sentry event for r; record attrs win over With attrs.
func (h *sentryHandler) event(r slog.Record) *sentry.Event {
	event := recordToEvent(r, h.group)
	for _, a := range h.attrs {
		if _, ok := event.Extra[a.Key]; !ok {
			event.Extra[a.Key] = a.Value.String()
		}
	}
	return event
}

func recordToEvent(r slog.Record, prefix string) *sentry.Event {
	event := sentry.NewEvent()
	event.Level = sentry.LevelError
	event.Message = r.Message
	event.Timestamp = r.Time
	r.Attrs(func(a slog.Attr) bool {
		event.Extra[prefix+a.Key] = a.Value.String()
		return true
	})
	return event
}
