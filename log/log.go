// Package log builds the daemon's zerolog logger.
package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const timeFormat = "15:04:05"

// New returns a logger writing human readable lines to w.
func New(w io.Writer, color bool) zerolog.Logger {
	cw := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: timeFormat,
		NoColor:    !color,
	}
	return zerolog.New(cw).With().Timestamp().Int("pid", os.Getpid()).Logger()
}

// Open appends to the file at path, or to stderr when path is empty.
func Open(path string) (zerolog.Logger, io.Closer, error) {
	if path == "" {
		return New(os.Stderr, false), io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	return New(f, false), f, nil
}

// Level maps the enable_log switch and the verbose flag to a level. With
// logging disabled only errors are written.
func Level(enabled, verbose bool) zerolog.Level {
	switch {
	case !enabled:
		return zerolog.ErrorLevel
	case verbose:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetEnabled applies Level globally.
func SetEnabled(enabled, verbose bool) {
	zerolog.SetGlobalLevel(Level(enabled, verbose))
}
