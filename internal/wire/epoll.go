package wire

import "golang.org/x/sys/unix"

// Poller wraps one epoll instance. Edge-triggered, one-shot registration is
// the caller's responsibility: every Add/Mod call here passes through
// whatever event mask the caller built, this type does not impose
// EPOLLET/EPOLLONESHOT itself so read-only and write-only re-arms stay
// explicit at the call site.
type Poller struct {
	fd int
}

// NewPoller creates a fresh epoll instance.
func NewPoller() (*Poller, error) {
	fd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, err
	}
	return &Poller{fd: fd}, nil
}

func (p *Poller) Close() error {
	return unix.Close(p.fd)
}

func (p *Poller) Add(fd int, events uint32) error {
	return unix.EpollCtl(p.fd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{Fd: int32(fd), Events: events})
}

func (p *Poller) Mod(fd int, events uint32) error {
	return unix.EpollCtl(p.fd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{Fd: int32(fd), Events: events})
}

func (p *Poller) Remove(fd int) error {
	return unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, fd, nil)
}

// Wait blocks up to timeoutMs milliseconds (-1 blocks indefinitely) and
// fills events with ready descriptors, returning the count. Callers should
// keep the timeout bounded (≤1s) so periodic housekeeping can run.
func (p *Poller) Wait(events []unix.EpollEvent, timeoutMs int) (int, error) {
	return unix.EpollWait(p.fd, events, timeoutMs)
}

// Event re-exports unix.EpollEvent so callers outside this package don't
// need to import golang.org/x/sys/unix directly just to hold a slice of
// them.
type Event = unix.EpollEvent

const (
	EventReadable uint32 = unix.EPOLLIN
	EventWritable uint32 = unix.EPOLLOUT
	EventHangup   uint32 = unix.EPOLLHUP
	EventError    uint32 = unix.EPOLLERR
	EventOneShot  uint32 = unix.EPOLLONESHOT
	// EventRDHup fires when the peer closed its write half, letting the
	// reactor distinguish a clean half-close from a plain readable event.
	EventRDHup uint32 = unix.EPOLLRDHUP
	// EventEdgeTriggered selects edge-triggered delivery: ready once per
	// transition, which is why every Read/Write loop must keep going until
	// EAGAIN rather than relying on epoll to fire again.
	EventEdgeTriggered uint32 = unix.EPOLLET
)
