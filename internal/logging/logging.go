// Package logging configures the process-wide zerolog logger from an
// environment-variable verbosity knob, following the getenv-with-default
// convention used across the reference pack's cmd/ entry points.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. levelEnv names the environment
// variable read for the level (e.g. "debug", "info", "warn", "error");
// an empty or unrecognised value falls back to info.
func Init(levelEnv string) {
	level := zerolog.InfoLevel
	if v := strings.ToLower(strings.TrimSpace(os.Getenv(levelEnv))); v != "" {
		if parsed, err := zerolog.ParseLevel(v); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}
