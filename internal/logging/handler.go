// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package logging configures slog for pgcreds: JSON or text output, a
// minimum level, process identity on every record, OpenTelemetry trace
// context when present, and password redaction.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel/trace"
)

// CodeInvalidLevel is returned by ParseLevel.
const CodeInvalidLevel = "LOG_LEVEL_INVALID"

// redacted replaces the value of any attribute whose key names a secret.
const redacted = "[REDACTED]"

// Options configure New. Zero values pick JSON at info level on stderr.
type Options struct {
	Service string
	Version string
	Format  string
	Level   slog.Level
	Writer  io.Writer
}

// identityHandler stamps service, version and span identifiers onto records.
type identityHandler struct {
	next     slog.Handler
	identity []slog.Attr
}

func (h *identityHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(h.identity...)

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return h.next.Handle(ctx, r)
}

func (h *identityHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *identityHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &identityHandler{next: h.next.WithAttrs(attrs), identity: h.identity}
}

func (h *identityHandler) WithGroup(name string) slog.Handler {
	return &identityHandler{next: h.next.WithGroup(name), identity: h.identity}
}

// isSecretKey matches password, passwd and any *_password key.
func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	return key == "password" || key == "passwd" || strings.HasSuffix(key, "_password")
}

func redactSecrets(_ []string, a slog.Attr) slog.Attr {
	if isSecretKey(a.Key) {
		return slog.String(a.Key, redacted)
	}
	return a
}

// levels are the names ParseLevel accepts, matched case-insensitively.
var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ParseLevel accepts debug, info, warn or error. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	level, ok := levels[strings.ToLower(s)]
	if !ok {
		return 0, oops.Code(CodeInvalidLevel).
			With("level", s).
			Errorf("log level must be debug, info, warn or error, got %q", s)
	}
	return level, nil
}

// New builds a logger from opts.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       opts.Level,
		ReplaceAttr: redactSecrets,
	}

	var base slog.Handler
	if opts.Format == "text" {
		base = slog.NewTextHandler(w, handlerOpts)
	} else {
		base = slog.NewJSONHandler(w, handlerOpts)
	}

	return slog.New(&identityHandler{
		next: base,
		identity: []slog.Attr{
			slog.String("service", opts.Service),
			slog.String("version", opts.Version),
		},
	})
}

// Setup is New at debug level, for callers that only pick the format.
func Setup(service, version, format string, w io.Writer) *slog.Logger {
	return New(Options{
		Service: service,
		Version: version,
		Format:  format,
		Level:   slog.LevelDebug,
		Writer:  w,
	})
}

// SetDefault installs a logger built from opts as the slog default and
// returns it.
func SetDefault(opts Options) *slog.Logger {
	logger := New(opts)
	slog.SetDefault(logger)
	return logger
}
