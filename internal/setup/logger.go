package setup

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/grump/agentguard/internal/config"
)

// NewLogger builds the process logger from config. Unknown levels fall
// back to info rather than failing startup.
func NewLogger(cfg config.LogConfig) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var out = zerolog.New(os.Stderr)
	if cfg.Format == "console" {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return out.Level(lvl).With().Timestamp().Logger()
}
