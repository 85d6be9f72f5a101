package reactor

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/kfcemployee/goserver/internal/conn"
	"github.com/kfcemployee/goserver/internal/wire"
)

// acceptLoop drains the listen backlog until EAGAIN: on an edge-triggered
// listener, a single readable event can represent several pending
// connections, so accept must loop rather than take one and wait for the
// next epoll_wait.
func (r *Reactor) acceptLoop() {
	for {
		fd, err := wire.AcceptNonblocking(r.listenFd)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				return
			}
			r.logger.Warn().Err(err).Msg("accept failed")
			return
		}

		if fd < 0 || fd >= len(r.sessions) {
			r.logger.Warn().Int("fd", fd).Msg("accepted fd beyond session table, closing")
			wire.Close(fd)
			continue
		}

		c := conn.New(fd, r.cfg.InitialBufSize, r.cfg.MaxBufSize, r.cfg.MaxHeaderBytes, r.cfg.ChunkSize)
		r.sessions[fd].Store(c)

		if err := r.poller.Add(fd, wire.EventReadable|wire.EventEdgeTriggered|wire.EventOneShot); err != nil {
			r.closeConn(fd)
		}
	}
}
