package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	// Log is the global logger instance
	Log zerolog.Logger
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	Log = New(os.Stdout, true)
}

// New builds a logger writing to w. Pretty selects the colored console
// writer; otherwise lines are JSON.
func New(w io.Writer, pretty bool) zerolog.Logger {
	if pretty {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "2006-01-02 15:04:05",
		}
	}

	return zerolog.New(w).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Caller().
		Logger()
}

// Setup replaces the global logger and makes zerolog/log share it, so
// packages logging through log.Info() get the same output.
func Setup(levelStr string, pretty bool) {
	Log = New(os.Stdout, pretty)
	SetLevel(levelStr)
	log.Logger = Log
}

// SetOutput points the global logger, and zerolog/log, at w. Commands that
// write data to stdout log to stderr.
func SetOutput(w io.Writer, pretty bool) {
	Log = New(w, pretty).Level(Log.GetLevel())
	log.Logger = Log
}

// SetLevel sets the log level
func SetLevel(levelStr string) {
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || levelStr == "" {
		Log.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	Log = Log.Level(level)
}
