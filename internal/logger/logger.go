// Package logger provides the zerolog loggers used by the client and the CLI.
package logger

import (
	"io"
	"os"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

var marshalOnce sync.Once

type stackTracer interface{ StackTrace() pkgerrors.StackTrace }

// New returns a JSON logger on stdout tagged with the service name.
// Call sites should use .Stack() on error events to include stacks.
func New(service string) zerolog.Logger {
	return NewTo(os.Stdout, service)
}

// NewTo is New with an explicit destination.
func NewTo(w io.Writer, service string) zerolog.Logger {
	marshalOnce.Do(func() {
		zerolog.ErrorStackMarshaler = func(err error) interface{} {
			if _, ok := err.(stackTracer); !ok {
				err = pkgerrors.WithStack(err)
			}
			return zpkgerrors.MarshalStack(err)
		}
	})
	return zerolog.New(w).With().
		Str("service", service).
		Timestamp().
		Logger()
}

// InitConsole switches the global logger to human readable output on stderr.
// Used by the CLI; debug lowers the global level.
func InitConsole(debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	})
	if debug {
		SetLevel(zerolog.DebugLevel)
		return
	}
	SetLevel(zerolog.InfoLevel)
}

// SetLevel sets the global log level.
func SetLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}
