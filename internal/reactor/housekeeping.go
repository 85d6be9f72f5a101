package reactor

import (
	"time"

	"github.com/kfcemployee/goserver/internal/wire"
)

// sweep runs every cfg.SweepInterval and evicts connections that have been
// idle longer than cfg.IdleTimeout. Connections currently Busy in a worker
// are left alone even past their timeout: closeConn mutates the shared
// *conn.Connection (Reset, clearing the session slot), and a worker may
// concurrently be in completeResponse/PrepareResponse against that same
// object, so tearing it down here would race. A Busy connection that has
// gone idle gets caught on the next sweep after its response drains and
// Busy clears.
func (r *Reactor) sweep(now time.Time) {
	for fd := range r.sessions {
		cp := r.sessions[fd].Load()
		if cp == nil || cp.Busy {
			continue
		}
		if cp.IdleFor(now) > r.cfg.IdleTimeout {
			r.closeConn(fd)
		}
	}
}

// closeConn tears down one connection: removed from epoll, socket closed,
// table slot cleared. Safe to call more than once for the same fd (the
// second call finds a nil session and is a no-op) and safe to call
// concurrently with a completeResponse that targets the same fd — the
// worst case there is a harmlessly discarded response.
func (r *Reactor) closeConn(fd int) {
	if fd < 0 || fd >= len(r.sessions) {
		return
	}
	cp := r.sessions[fd].Swap(nil)
	if cp == nil {
		return
	}
	_ = r.poller.Remove(fd)
	cp.Reset() // closes any file still open for a SendingFile response in flight
	wire.Close(fd)
}
