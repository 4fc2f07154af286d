package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds the process logger. It also switches zerolog timestamps to unix
// seconds, which is global state, so call it once at start-up.
func New(level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	return NewWithWriter(os.Stdout, level)
}

func NewWithWriter(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).
		With().
		Timestamp().
		Caller().
		Logger().
		Level(level)
}
