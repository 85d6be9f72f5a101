// Package wire is the raw socket and epoll syscall layer, built on
// golang.org/x/sys/unix. Nothing here knows about HTTP; it is pure
// listener/epoll plumbing for internal/reactor to drive.
package wire

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// Listen creates a non-blocking, listening TCP socket bound to host:port.
// host must be a dotted-quad or "0.0.0.0".
func Listen(host string, port, backlog int) (int, error) {
	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil {
		return -1, fmt.Errorf("wire: %q is not a dotted-quad IPv4 address", host)
	}
	var addr [4]byte
	copy(addr[:], ip.To4())

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port, Addr: addr}); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// AcceptNonblocking accepts one pending connection and makes it
// non-blocking, or returns unix.EAGAIN when the accept queue is drained.
func AcceptNonblocking(listenFd int) (int, error) {
	fd, _, err := unix.Accept(listenFd)
	if err != nil {
		return -1, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// Read issues one non-blocking read(2).
func Read(fd int, buf []byte) (int, error) {
	return unix.Read(fd, buf)
}

// Close closes a socket, ignoring EBADF: a subsequent write against an
// already-closed fd is expected to fail and be benignly discarded.
func Close(fd int) {
	_ = unix.Close(fd)
}

// BoundPort reports the port a listening socket was bound to — useful when
// Listen was called with port 0 and the kernel picked one, both for logging
// at startup and for tests that need an ephemeral port.
func BoundPort(fd int) (int, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return 0, err
	}
	addr, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return 0, fmt.Errorf("wire: unexpected sockaddr type %T", sa)
	}
	return addr.Port, nil
}
