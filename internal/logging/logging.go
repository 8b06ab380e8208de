// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/RavensCloud/tiktok-stats/internal/config"
)

// New returns a logger writing to w at the configured level, either as
// human-readable console lines or as JSON.
func New(conf config.LogConfig, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(conf.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parse log level %q: %w", conf.Level, err)
	}

	out := w
	switch conf.Format {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", conf.Format)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Str("app", "tiktok-stats").Logger(), nil
}
