package goserver

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/kfcemployee/goserver/internal/netlog"
	"github.com/kfcemployee/goserver/internal/workerpool"
)

// Config is the server's plain, field-defaulted configuration struct. No
// config-loading library is pulled in for it — a struct with a defaulting
// constructor is enough for settings this static — matching the reactor's
// own constant-based configuration, generalized into runtime-settable
// fields.
type Config struct {
	// Host and Port are where the listening socket binds: host must be a
	// dotted-quad IPv4 address.
	Host string
	Port int

	// Backlog is the listen(2) backlog depth.
	Backlog int

	// Workers is the worker pool's fixed goroutine count. Zero defaults to
	// runtime.NumCPU.
	Workers int

	// QueueCapacity bounds the worker pool's task queue. Zero means an
	// unbuffered handoff channel — the tightest possible bound.
	QueueCapacity int

	// QueuePolicy governs back-pressure once QueueCapacity is saturated:
	// PolicyBlock (default) blocks the reactor thread, PolicyReject answers
	// 503 immediately.
	QueuePolicy workerpool.Policy

	// InitialBufSize / MaxBufSize bound each connection's read buffer.
	InitialBufSize int
	MaxBufSize     int

	// MaxHeaderBytes bounds the request-line+headers block; exceeding it
	// fails a request with 431 rather than growing forever.
	MaxHeaderBytes int

	// ChunkSize is the buffer size used to stream a file response body.
	ChunkSize int

	// IdleTimeout is how long a connection may sit with no read/write
	// activity before the housekeeping sweep closes it (default 60s).
	IdleTimeout time.Duration

	// SweepInterval is how often the housekeeping sweep runs (default 30s).
	SweepInterval time.Duration

	// ServerName is emitted as the Server response header.
	ServerName string

	// Logger receives structured events: accept failures from the reactor,
	// handler panics recovered by the server, and route parameter-name
	// conflicts. The worker pool and the housekeeping sweep do not log.
	// A zero-value zerolog.Logger has no writer and discards everything,
	// like netlog.Nop; use DefaultConfig or netlog.New to get output.
	Logger zerolog.Logger
}

// DefaultConfig returns a Config with every field defaulted to a reasonable
// value, listening on 127.0.0.1:8080.
func DefaultConfig() Config {
	return Config{
		Host:           "127.0.0.1",
		Port:           8080,
		Backlog:        1024,
		Workers:        0,
		QueueCapacity:  256,
		QueuePolicy:    workerpool.PolicyBlock,
		InitialBufSize: 8 * 1024,
		MaxBufSize:     1024 * 1024,
		MaxHeaderBytes: 16 * 1024,
		ChunkSize:      64 * 1024,
		IdleTimeout:    60 * time.Second,
		SweepInterval:  30 * time.Second,
		ServerName:     "goserver",
		Logger:         netlog.Nop(),
	}
}
