// Package netlog wires zerolog for the server and its reactor.
package netlog

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds a console-friendly zerolog.Logger. Tests and embedders can
// build their own zerolog.Logger (e.g. writing to a bytes.Buffer) and pass
// it wherever a Logger is accepted instead of calling this constructor.
func New(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Nop returns a logger that discards everything, used as the default so a
// Server never nil-panics on Logger use before one is configured.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
