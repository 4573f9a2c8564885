package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SeverityNotice marks events that are worth recording but never fail a request.
const SeverityNotice = "notice"

// Init configures the global zerolog logger. format is "json" or "console".
func Init(level, format string) {
	InitWithWriter(level, format, os.Stdout)
}

// InitWithWriter is Init with an explicit destination
func InitWithWriter(level, format string, out io.Writer) {
	zerolog.SetGlobalLevel(parseLogLevel(level))

	var l zerolog.Logger
	if strings.ToLower(format) == "json" {
		l = zerolog.New(out).With().
			Timestamp().
			Logger()
	} else {
		output := zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
		l = zerolog.New(output).With().
			Timestamp().
			Logger()
	}
	log.Logger = l
}

// Notice starts an info level event tagged with notice severity.
func Notice() *zerolog.Event {
	return log.Info().Str("severity", SeverityNotice)
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "notice":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
