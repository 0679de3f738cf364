package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/gray-logic-electrolux/internal/infrastructure/config"
)

// ServiceName is attached to every log record.
const ServiceName = "graylogic-electrolux"

// redacted replaces the value of any attribute whose key is sensitive.
const redacted = "[REDACTED]"

// sensitiveKeys are attribute keys whose values never reach the output.
// The cloud credentials and API secrets all travel under one of these.
var sensitiveKeys = map[string]bool{
	"token":         true,
	"access_token":  true,
	"api_key":       true,
	"authorization": true,
	"password":      true,
	"secret":        true,
}

// Logger wraps slog.Logger with bridge-wide default fields.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
}

// New creates a Logger writing to the configured output.
//
// Records carry service and version attributes, and attributes named like a
// credential are redacted.
//
// Parameters:
//   - cfg: Logging configuration from config.yaml
//   - version: Application version for default field
//
// Returns:
//   - *Logger: Configured logger ready for use
func New(cfg config.LoggingConfig, version string) *Logger {
	var output io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		output = os.Stderr
	}
	return NewWithWriter(output, cfg, version)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, cfg config.LoggingConfig, version string) *Logger {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(cfg.Level),
		ReplaceAttr: redactAttr,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", ServiceName),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(handler)}
}

func redactAttr(_ []string, a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, redacted)
	}
	return a
}

// parseLevel converts a string log level to slog.Level.
// Unrecognised values default to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// With returns a new Logger with additional default attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Component returns a child logger tagged with component=name.
//
// Example:
//
//	cloudLog := logger.Component("cloud")
//	cloudLog.Info("appliances listed", "count", 2) // includes component=cloud
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// Redact shortens a credential to a recognisable prefix for log output.
// Values of eight characters or fewer are hidden entirely.
func Redact(value string) string {
	const keep = 4
	if len(value) <= 2*keep {
		return redacted
	}
	return value[:keep] + "..."
}

// Default creates a logger for use before configuration is loaded:
// JSON on stdout at info level.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}
