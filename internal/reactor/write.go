package reactor

import (
	"time"

	"github.com/kfcemployee/goserver/internal/message"
	"github.com/kfcemployee/goserver/internal/wire"
)

// completeResponse finalizes resp and hands it to the connection's writer,
// then arms epoll for writability. It is called both from a worker pool
// goroutine (the normal handler path) and from the reactor goroutine itself
// (failAndClose, for requests rejected before a handler ever ran), so it
// must tolerate the connection having already been closed out from under
// it — a response that arrives after closeConn is simply discarded.
func (r *Reactor) completeResponse(fd int, resp *message.Response, keepAlive bool) {
	if fd < 0 || fd >= len(r.sessions) {
		return
	}
	cp := r.sessions[fd].Load()
	if cp == nil {
		return
	}

	now := time.Now()
	if err := resp.Finalize(keepAlive, r.cfg.ServerName, now); err != nil {
		resp = message.NewErrorResponse(500, "finalize_error")
		_ = resp.Finalize(false, r.cfg.ServerName, now)
		keepAlive = false
	}

	if err := cp.PrepareResponse(resp, keepAlive); err != nil {
		fallback := message.NewErrorResponse(500, "body_open_error")
		_ = fallback.Finalize(false, r.cfg.ServerName, now)
		if err := cp.PrepareResponse(fallback, false); err != nil {
			r.closeConn(fd)
			return
		}
	}

	if err := r.poller.Mod(fd, wire.EventWritable|wire.EventEdgeTriggered|wire.EventOneShot); err != nil {
		r.closeConn(fd)
	}
}

// handleWritable drives the writer state machine as far as the socket
// accepts without blocking. On completion it either closes the connection
// (Connection: close) or resets it for the next request, immediately trying
// to advance any request already pipelined into the buffer.
func (r *Reactor) handleWritable(fd int) {
	cp := r.sessions[fd].Load()
	if cp == nil {
		return
	}

	done, blocked, err := cp.WriteStep()
	if err != nil {
		r.closeConn(fd)
		return
	}
	if blocked {
		if err := r.poller.Mod(fd, wire.EventWritable|wire.EventEdgeTriggered|wire.EventOneShot); err != nil {
			r.closeConn(fd)
		}
		return
	}
	if !done {
		return
	}

	cp.Touch()
	if !cp.KeepAlive {
		r.closeConn(fd)
		return
	}

	cp.Busy = false
	cp.Reset()
	r.tryAdvance(cp)
}
