package observability

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// TracedLogger is a structured logger with automatic trace correlation.
// It wraps slog.Logger and adds project scope and OpenTelemetry trace
// correlation to every entry.
type TracedLogger struct {
	logger          *slog.Logger
	projectID       string
	component       string
	redactSensitive bool
}

// NewTracedLogger creates a TracedLogger over the given handler, scoped to a
// project and component. Either scope value may be empty, in which case its
// field is omitted. A nil handler falls back to the process default logger's
// handler. Sensitive fields are redacted at info level and above.
func NewTracedLogger(handler slog.Handler, projectID, component string) *TracedLogger {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &TracedLogger{
		logger:          slog.New(handler),
		projectID:       projectID,
		component:       component,
		redactSensitive: true,
	}
}

// Debug logs a debug-level message. Debug entries keep all fields
// unredacted.
func (l *TracedLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Debug(msg, args...)
}

// Info logs an info-level message with sensitive fields redacted.
func (l *TracedLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.redactSensitive {
		args = redactSensitiveData(args)
	}
	l.WithContext(ctx).Info(msg, args...)
}

// Warn logs a warning-level message with sensitive fields redacted.
func (l *TracedLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.redactSensitive {
		args = redactSensitiveData(args)
	}
	l.WithContext(ctx).Warn(msg, args...)
}

// Error logs an error-level message with sensitive fields redacted.
func (l *TracedLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.redactSensitive {
		args = redactSensitiveData(args)
	}
	l.WithContext(ctx).Error(msg, args...)
}

// WithContext returns a slog.Logger carrying the project scope plus
// trace_id/span_id extracted from the active OpenTelemetry span, when one
// exists.
func (l *TracedLogger) WithContext(ctx context.Context) *slog.Logger {
	logger := l.scoped()

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		logger = logger.With(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}

	return logger
}

// Base returns the underlying slog.Logger without per-call trace
// correlation, for handing to collaborators that take a plain *slog.Logger.
func (l *TracedLogger) Base() *slog.Logger {
	return l.scoped()
}

func (l *TracedLogger) scoped() *slog.Logger {
	logger := l.logger
	if l.projectID != "" {
		logger = logger.With(slog.String("project_id", l.projectID))
	}
	if l.component != "" {
		logger = logger.With(slog.String("component", l.component))
	}
	return logger
}

// NewJSONHandler creates a JSON log handler, the production format.
func NewJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

// NewTextHandler creates a human-readable text handler for development.
func NewTextHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}

// sensitiveFields are replaced with "[REDACTED]" at info level and above so
// prompt text and credentials never land in production logs.
var sensitiveFields = map[string]bool{
	"prompt":     true,
	"prompts":    true,
	"apikey":     true,
	"secret":     true,
	"secretkey":  true,
	"password":   true,
	"token":      true,
	"credential": true,
}

func redactSensitiveData(args []any) []any {
	if len(args)%2 != 0 {
		return args
	}

	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 0; i < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			normalized := strings.ToLower(strings.ReplaceAll(key, "_", ""))
			if sensitiveFields[normalized] {
				redacted[i+1] = "[REDACTED]"
			}
		}
	}

	return redacted
}
