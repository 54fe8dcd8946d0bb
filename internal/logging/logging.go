// Package logging builds the service's zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/discountclaim/internal/model"
)

// New returns a logger writing to w (stderr when nil) at cfg.Level.
// Format "console" produces human-readable output, anything else JSON.
func New(cfg model.LogConfig, w io.Writer) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Nop(), model.NewConfigError(fmt.Sprintf("unknown log level %q", cfg.Level), err)
		}
		level = parsed
	}

	switch strings.ToLower(cfg.Format) {
	case "", "json":
	case "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), model.NewConfigError(fmt.Sprintf("unknown log format %q (supported: json, console)", cfg.Format), nil)
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", "discountclaim").
		Logger(), nil
}
