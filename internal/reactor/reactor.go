// Package reactor is the single event-loop thread: one goroutine owns every
// socket read and write and every epoll_ctl re-arm except one: a worker
// re-arms for writability itself in completeResponse. Handler execution is delegated
// out to a Dispatch function running on a separate workerpool.Pool, so the
// only work this package ever does on a connection's bytes is parse and
// write, never application logic. Workers never touch the socket directly —
// they receive a cloned message.Request and hand the result back through
// completeResponse.
package reactor

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/kfcemployee/goserver/internal/conn"
	"github.com/kfcemployee/goserver/internal/httpparse"
	"github.com/kfcemployee/goserver/internal/message"
	"github.com/kfcemployee/goserver/internal/wire"
	"github.com/kfcemployee/goserver/internal/workerpool"
)

// Dispatch turns a request into a response. It must never panic past this
// boundary — the goserver package's implementation wraps the matched route
// handler in its own recover and turns a handler fault into a synthesized
// 500 before returning, so this package only ever deals with well-formed
// *message.Response values.
type Dispatch func(req *message.Request) *message.Response

// Config bundles every reactor tunable.
type Config struct {
	Host    string
	Port    int
	Backlog int

	Workers       int
	QueueCapacity int
	QueuePolicy   workerpool.Policy

	InitialBufSize int
	MaxBufSize     int
	MaxHeaderBytes int
	ChunkSize      int

	IdleTimeout   time.Duration
	SweepInterval time.Duration
	ServerName    string

	Logger zerolog.Logger
}

func (c *Config) setDefaults() {
	if c.Backlog <= 0 {
		c.Backlog = 1024
	}
	if c.InitialBufSize <= 0 {
		c.InitialBufSize = 8 * 1024
	}
	if c.MaxBufSize <= 0 {
		c.MaxBufSize = 1024 * 1024
	}
	if c.MaxHeaderBytes <= 0 {
		c.MaxHeaderBytes = httpparse.DefaultMaxHeaderBytes
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 64 * 1024
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 30 * time.Second
	}
	if c.ServerName == "" {
		c.ServerName = "goserver"
	}
}

// Reactor is the bound listener plus its epoll instance and worker pool. The
// zero value is not usable; build one with New.
type Reactor struct {
	cfg    Config
	logger zerolog.Logger

	dispatch Dispatch
	pool     *workerpool.Pool

	listenFd int
	poller   *wire.Poller

	// sessions is indexed by file descriptor: reads from worker goroutines
	// (completeResponse) and writes from the reactor goroutine
	// (accept/close) never need a shared lock because each slot is swapped
	// atomically.
	sessions []atomic.Pointer[conn.Connection]

	stopping atomic.Bool
	stopped  chan struct{}
}

// New builds a Reactor. Bind must be called before Run. cfg.Logger is used
// as-is; pass netlog.Nop() (the zero value behaves the same) if the caller
// hasn't configured one.
func New(cfg Config, dispatch Dispatch) *Reactor {
	cfg.setDefaults()
	return &Reactor{
		cfg:      cfg,
		logger:   cfg.Logger,
		dispatch: dispatch,
		listenFd: -1,
		stopped:  make(chan struct{}),
	}
}

// Bind creates the listening socket and epoll instance, and sizes the
// connection table to the process's file descriptor limit. Bind is kept
// separate from Run so a caller can detect a bad host/port before spawning
// the event loop goroutine.
func (r *Reactor) Bind() error {
	fd, err := wire.Listen(r.cfg.Host, r.cfg.Port, r.cfg.Backlog)
	if err != nil {
		return err
	}
	poller, err := wire.NewPoller()
	if err != nil {
		wire.Close(fd)
		return err
	}
	if err := poller.Add(fd, wire.EventReadable|wire.EventEdgeTriggered); err != nil {
		poller.Close()
		wire.Close(fd)
		return err
	}

	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil || rlim.Cur == 0 {
		rlim.Cur = 65536
	}

	r.listenFd = fd
	r.poller = poller
	r.sessions = make([]atomic.Pointer[conn.Connection], int(rlim.Cur)+1)
	r.pool = workerpool.New(r.cfg.Workers, r.cfg.QueueCapacity, r.cfg.QueuePolicy)
	return nil
}

// Run blocks the calling goroutine in the epoll event loop until Stop is
// called. Bind must have succeeded first.
func (r *Reactor) Run() error {
	defer close(r.stopped)

	events := make([]wire.Event, 256)
	lastSweep := time.Now()

	for !r.stopping.Load() {
		n, err := r.poller.Wait(events, 1000)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return err
		}

		for i := 0; i < n; i++ {
			r.handleEvent(events[i])
		}

		if now := time.Now(); now.Sub(lastSweep) >= r.cfg.SweepInterval {
			r.sweep(now)
			lastSweep = now
		}
	}

	r.shutdown()
	return nil
}

func (r *Reactor) handleEvent(ev wire.Event) {
	fd := int(ev.Fd)
	if fd == r.listenFd {
		r.acceptLoop()
		return
	}
	switch {
	case ev.Events&(wire.EventError|wire.EventHangup) != 0:
		r.closeConn(fd)
	case ev.Events&wire.EventWritable != 0:
		r.handleWritable(fd)
	case ev.Events&(wire.EventReadable|wire.EventRDHup) != 0:
		r.handleReadable(fd)
	}
}

// Addr reports the actual bound port, useful when Config.Port was 0 and the
// kernel picked an ephemeral one (tests rely on this to discover where to
// dial).
func (r *Reactor) Addr() (string, int, error) {
	port, err := wire.BoundPort(r.listenFd)
	if err != nil {
		return "", 0, err
	}
	return r.cfg.Host, port, nil
}

// Stop requests the event loop to exit at its next wait timeout (at most
// one second later) and blocks until it has. Idempotent, safe to call from
// a signal handler goroutine.
func (r *Reactor) Stop() {
	r.stopping.Store(true)
	<-r.stopped
}

func (r *Reactor) shutdown() {
	for fd := range r.sessions {
		if cp := r.sessions[fd].Load(); cp != nil {
			r.closeConn(fd)
		}
	}
	r.pool.Stop()
	r.poller.Close()
	wire.Close(r.listenFd)
}
