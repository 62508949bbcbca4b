// Package logging configures zerolog for the CLI and hands out per-run loggers.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Setup installs a console logger on w as the global logger. Only warnings
// and errors are shown unless verbose is set.
func Setup(verbose bool, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: !isTerminal(w)}
	logger := zerolog.New(console).
		Level(level).
		With().
		Timestamp().
		Logger()

	zerolog.SetGlobalLevel(level)
	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger
	return logger
}

// StartRun derives a child logger tagged with a fresh run id and stores it in ctx
func StartRun(ctx context.Context, command string) (context.Context, string) {
	runID := uuid.NewString()
	logger := log.Logger.With().
		Str("run_id", runID).
		Str("command", command).
		Logger()
	return logger.WithContext(ctx), runID
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
