// Package conn owns the per-socket Connection state machine: the growable
// read buffer and incremental parser on one side, the header/body/file
// writer state machine on the other. The read buffer grows to fit one
// request and is compacted, not reallocated, across keep-alive cycles.
package conn

import (
	"time"

	"github.com/kfcemployee/goserver/internal/httpparse"
	"github.com/kfcemployee/goserver/internal/message"
)

// WriterState is the writer's position in the header/body/file state machine.
type WriterState uint8

const (
	WriterIdle WriterState = iota
	WriterSendingHeaders
	WriterSendingBytes
	WriterSendingFile
	WriterDone
)

// Connection is owned by exactly one of {reactor, a worker} at any instant:
// the reactor drives read/write syscalls and re-arms epoll; a worker only
// touches a Connection through the reactor's completeResponse (which calls
// PrepareResponse), never concurrently with the reactor. There is deliberately no mutex here — the one-shot epoll
// registration is the lock.
type Connection struct {
	Fd int

	buf  []byte
	fill int

	maxBufSize     int
	maxHeaderBytes int

	ParserState httpparse.State
	pending     *httpparse.Result // set once a request parses complete, consumed by the caller

	KeepAlive    bool
	LastActivity time.Time

	Writer writerState

	Closing bool

	// Busy is true from the moment a parsed request is handed to a worker
	// until its response reaches WriterDone and Reset runs: only one
	// response is in flight per connection at a time. The reactor does not
	// parse-and-dispatch a second request while this is set; a pipelined
	// request already in the buffer is parsed once Reset clears it.
	Busy bool
}

// New allocates a Connection with the given initial buffer size, growable
// up to maxBufSize.
func New(fd int, initialBufSize, maxBufSize, maxHeaderBytes, chunkSize int) *Connection {
	c := &Connection{
		Fd:             fd,
		buf:            make([]byte, initialBufSize),
		maxBufSize:     maxBufSize,
		maxHeaderBytes: maxHeaderBytes,
		KeepAlive:      true,
		LastActivity:   time.Now(),
	}
	c.Writer.chunk = make([]byte, chunkSize)
	return c
}

// Reset restores a Connection for keep-alive reuse: clears the parsed
// request and writer state while leaving any already-buffered, unconsumed
// bytes in place so a pipelined second request already sitting in the
// buffer survives.
func (c *Connection) Reset() {
	c.ParserState = httpparse.StateRequestLine
	c.pending = nil
	c.Writer.reset()
	c.Busy = false
	c.LastActivity = time.Now()
}

// Touch bumps the idle-eviction clock. Called after every successful read
// and once a response has been fully written.
func (c *Connection) Touch() {
	c.LastActivity = time.Now()
}

// IdleFor reports how long since the last read or write activity, used by
// the reactor's housekeeping sweep.
func (c *Connection) IdleFor(now time.Time) time.Duration {
	return now.Sub(c.LastActivity)
}

// Unconsumed returns the bytes currently buffered but not yet consumed by a
// completed parse.
func (c *Connection) Unconsumed() []byte {
	return c.buf[:c.fill]
}

// AppendReadable grows the buffer if needed and returns the writable slice
// the reactor should read(2) into next: buf[fill:cap]. If the buffer is
// already at capacity, it returns an empty slice; the reactor then checks
// AtCapacity and rejects the request elsewhere. Here we just refuse to grow
// past maxBufSize.
func (c *Connection) AppendReadable() []byte {
	if c.fill == len(c.buf) {
		c.grow()
	}
	return c.buf[c.fill:]
}

// grow doubles the buffer, capped at maxBufSize, to accommodate a request
// that didn't fit in the initial allocation. Compaction beats a ring buffer
// here for simplicity; the buffer also grows, up to a bound, rather than
// pretending a fixed size is always enough.
func (c *Connection) grow() {
	next := len(c.buf) * 2
	if next > c.maxBufSize {
		next = c.maxBufSize
	}
	if next <= len(c.buf) {
		return
	}
	nb := make([]byte, next)
	copy(nb, c.buf[:c.fill])
	c.buf = nb
}

// AtCapacity reports whether the buffer is full and cannot grow further —
// the caller should treat this connection as unrecoverable (its request
// exceeds every configured bound) and close it.
func (c *Connection) AtCapacity() bool {
	return c.fill >= c.maxBufSize && c.fill == len(c.buf)
}

// CommitRead records n freshly-read bytes as part of the buffer's filled
// region.
func (c *Connection) CommitRead(n int) {
	c.fill += n
}

// TryParseNext attempts to parse one complete request out of the currently
// buffered bytes. On success it copies the result's byte slices out of the
// buffer and then compacts the buffer past whatever was consumed. Called
// both right after a read and, for pipelined requests, right after the
// previous response reaches Done: an already-buffered second request is
// parsed at that point without another socket read.
func (c *Connection) TryParseNext() (*httpparse.Result, httpparse.State, error) {
	res, state, err := httpparse.Parse(c.buf[:c.fill], c.maxHeaderBytes)
	c.ParserState = state
	if err == nil {
		// res aliases c.buf: copy its slices out before compaction
		// overwrites the bytes they point at.
		res.Path = append([]byte(nil), res.Path...)
		res.RawQuery = append([]byte(nil), res.RawQuery...)
		res.Version = append([]byte(nil), res.Version...)
		res.Body = append([]byte(nil), res.Body...)
		rem := c.fill - res.Consumed
		if rem > 0 {
			copy(c.buf, c.buf[res.Consumed:c.fill])
		}
		c.fill = rem
	}
	return res, state, err
}

// AsRequest converts a parsed Result into an owned message.Request, cloning
// every byte slice so it survives past the next read.
func AsRequest(res *httpparse.Result) *message.Request {
	req := message.NewRequest(res.Method, res.Path, res.Version, res.RawQuery, res.Body, res.Headers)
	return req.Clone()
}
