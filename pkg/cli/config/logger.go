package config

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/onramp/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Logger holds CLI flags for logging configuration
type Logger struct {
	level     string
	format    string
	output    string
	sentryDSN string
	sentryEnv string
}

// Flags returns CLI flags for logger configuration
func (x *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Category:    "Logging",
			Value:       "info",
			Sources:     cli.EnvVars("ONRAMP_LOG_LEVEL"),
			Destination: &x.level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console or json)",
			Category:    "Logging",
			Value:       "console",
			Sources:     cli.EnvVars("ONRAMP_LOG_FORMAT"),
			Destination: &x.format,
		},
		&cli.StringFlag{
			Name:        "log-output",
			Usage:       "Log output destination (-, stdout, stderr or a file path)",
			Category:    "Logging",
			Value:       "-",
			Sources:     cli.EnvVars("ONRAMP_LOG_OUTPUT"),
			Destination: &x.output,
		},
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for error reporting",
			Category:    "Logging",
			Sources:     cli.EnvVars("ONRAMP_SENTRY_DSN"),
			Destination: &x.sentryDSN,
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment name",
			Category:    "Logging",
			Sources:     cli.EnvVars("ONRAMP_SENTRY_ENV"),
			Destination: &x.sentryEnv,
		},
	}
}

// LogValue renders the logger configuration for startup logging
func (x Logger) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("level", x.level),
		slog.String("format", x.format),
		slog.String("output", x.output),
		slog.Bool("sentry", x.sentryDSN != ""),
	)
}

// Configure builds the default logger from the flags and initializes
// Sentry when a DSN is set. The returned closer flushes pending events
// and closes any opened log file.
func (x *Logger) Configure() (func(), error) {
	var level slog.Level
	switch x.level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, goerr.New("invalid log level", goerr.V("level", x.level))
	}

	var format logging.Format
	switch x.format {
	case "console":
		format = logging.FormatConsole
	case "json":
		format = logging.FormatJSON
	default:
		return nil, goerr.New("invalid log format", goerr.V("format", x.format))
	}

	var w io.Writer
	var file *os.File
	switch x.output {
	case "-", "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(x.output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open log file", goerr.V("path", x.output))
		}
		w = f
		file = f
	}

	logging.SetDefault(logging.New(w, level, format))

	if x.sentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         x.sentryDSN,
			Environment: x.sentryEnv,
		}); err != nil {
			return nil, goerr.Wrap(err, "failed to initialize sentry")
		}
	}

	closer := func() {
		if x.sentryDSN != "" {
			sentry.Flush(2 * time.Second)
		}
		if file != nil {
			_ = file.Close()
		}
	}
	return closer, nil
}
