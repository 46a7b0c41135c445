package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-session/internal/config"
)

// Level parses a LOG_LEVEL value, falling back to info.
func Level(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

var setupOnce sync.Once

// Setup configures the global logger on first use; later calls are no-ops.
// DEV gets a console writer on w.
func Setup(cfg config.EnvConfig, w io.Writer) {
	setupOnce.Do(func() { setup(cfg, w) })
}

func setup(cfg config.EnvConfig, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	zerolog.SetGlobalLevel(Level(cfg.GetLogLevel()))
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen})
		return
	}
	log.Logger = zerolog.New(w).With().Timestamp().Str("app", cfg.GetAppName()).Logger()
}
