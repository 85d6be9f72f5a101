package reactor

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/kfcemployee/goserver/internal/conn"
	"github.com/kfcemployee/goserver/internal/httpparse"
	"github.com/kfcemployee/goserver/internal/message"
	"github.com/kfcemployee/goserver/internal/wire"
)

// handleReadable drains a ready socket into its Connection's buffer, then
// hands any fully-buffered request off to tryAdvance. Edge-triggered
// delivery means this must read until EAGAIN or close, never stop early on
// a short read.
func (r *Reactor) handleReadable(fd int) {
	cp := r.sessions[fd].Load()
	if cp == nil {
		return
	}

	for {
		buf := cp.AppendReadable()
		if len(buf) == 0 {
			// Buffer is at its configured cap with nowhere left to grow;
			// tryAdvance below turns this into a synthesized error once it
			// sees the parser still wants more than the connection can hold.
			break
		}

		n, err := wire.Read(fd, buf)
		if n > 0 {
			cp.CommitRead(n)
			cp.Touch()
		}
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				break
			}
			r.closeConn(fd)
			return
		}
		if n == 0 {
			r.closeConn(fd)
			return
		}
	}

	r.tryAdvance(cp)
}

// tryAdvance parses whatever is currently buffered on cp. It dispatches at
// most one request at a time — only one response is in flight per
// connection — and is called again once that response reaches WriterDone so
// a pipelined second request already sitting in the buffer gets its turn
// without another socket read.
func (r *Reactor) tryAdvance(cp *conn.Connection) {
	if cp.Busy {
		return
	}

	res, _, err := cp.TryParseNext()
	switch {
	case err == nil:
		req := conn.AsRequest(res)
		cp.Busy = true
		r.submit(cp.Fd, req)

	case errors.Is(err, httpparse.ErrHeadersTooLarge):
		r.failAndClose(cp, 431, "headers_too_large")

	case errors.Is(err, httpparse.ErrIncomplete):
		if cp.AtCapacity() {
			r.failAndClose(cp, 413, "payload_too_large")
			return
		}
		r.rearmReadable(cp)

	default:
		r.failAndClose(cp, 400, "parse_error")
	}
}

// submit hands a parsed request to the worker pool. The task runs on a pool
// goroutine and calls back into completeResponse once the handler returns;
// epoll_ctl on the shared epoll fd is documented safe to call from any
// thread, so the worker re-arms for writability itself rather than posting
// back to the reactor goroutine.
func (r *Reactor) submit(fd int, req *message.Request) {
	keepAlive := req.KeepAlive()
	task := func() {
		resp := r.dispatch(req)
		r.completeResponse(fd, resp, keepAlive)
	}
	if err := r.pool.Submit(task); err != nil {
		r.completeResponse(fd, message.NewErrorResponse(503, "queue_full"), false)
	}
}

func (r *Reactor) rearmReadable(cp *conn.Connection) {
	if err := r.poller.Mod(cp.Fd, wire.EventReadable|wire.EventEdgeTriggered|wire.EventOneShot); err != nil {
		r.closeConn(cp.Fd)
	}
}

// failAndClose synthesizes an error response for a connection the reactor
// itself rejected (parse failure, oversized request) before a handler was
// ever involved, and routes it through the same completeResponse path a
// worker would use so the client always gets a response before the socket
// closes.
func (r *Reactor) failAndClose(cp *conn.Connection, status int, kind string) {
	r.completeResponse(cp.Fd, message.NewErrorResponse(status, kind), false)
}
