// Package logger builds the zerolog loggers used by the qb command.
package logger

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	JSONLoggingFormat    = "json"
	ConsoleLoggingFormat = "console"

	LogLevelDebug    = "debug"
	LogLevelInfo     = "info"
	LogLevelWarn     = "warn"
	LogLevelWarning  = "warning"
	LogLevelError    = "error"
	LogLevelDisabled = "disabled"
)

// ParseLevel maps a level name to a zerolog level. Unknown names select info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelInfo:
		return zerolog.InfoLevel
	case LogLevelWarn, LogLevelWarning:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	case LogLevelDisabled:
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New returns a logger writing to w at the given level. format "json" selects
// JSON lines; anything else selects the human-readable console writer.
//
// The level is set on the returned logger only; the zerolog global level is
// left alone so that loggers built in tests do not interfere.
func New(level, format string, w io.Writer) zerolog.Logger {
	var log zerolog.Logger
	if strings.EqualFold(format, JSONLoggingFormat) {
		log = zerolog.New(w)
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true})
	}

	return log.Level(ParseLevel(level)).With().Timestamp().Logger()
}
