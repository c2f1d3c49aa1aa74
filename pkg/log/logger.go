// Package log wraps zerolog with context-scoped loggers for the Recall engine.
package log

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger and returns a context carrying it.
// Level accepts zerolog level names ("debug", "info", "warn", ...); unknown
// values fall back to info.
func Setup(ctx context.Context, level string, console bool) context.Context {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var out io.Writer = os.Stderr
	if console {
		out = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.DateTime,
		}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger

	return logger.WithContext(ctx)
}

// FromCtx returns the logger stored in ctx, or the global logger when none
// is attached.
func FromCtx(ctx context.Context) *zerolog.Logger {
	return log.Ctx(ctx)
}

// With returns a copy of ctx carrying the given logger.
func With(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}
