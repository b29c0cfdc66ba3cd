package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/masq"
)

type ctxLoggerKey struct{}

var defaultLogger *slog.Logger

func init() {
	defaultLogger = New(os.Stdout, slog.LevelInfo, FormatConsole)
}

// Format is the output format of the logger
type Format int

const (
	FormatConsole Format = iota
	FormatJSON
)

// New creates a new logger with the given writer, level and format.
// Fields tagged with `masq:"secret"` are redacted.
func New(w io.Writer, level slog.Level, format Format) *slog.Logger {
	filter := masq.New(masq.WithTag("secret"))

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: filter,
		})

	default:
		handler = clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithSource(true),
			clog.WithReplaceAttr(filter),
		)
	}

	return slog.New(handler)
}

// Default returns the process-wide default logger
func Default() *slog.Logger {
	return defaultLogger
}

// SetDefault replaces the process-wide default logger
func SetDefault(logger *slog.Logger) {
	defaultLogger = logger
}

// From extracts a logger from the context, falling back to the default
func From(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return defaultLogger
}

// With embeds a logger into the context
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}
