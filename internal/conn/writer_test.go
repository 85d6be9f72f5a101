package conn

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/kfcemployee/goserver/internal/httpparse"
	"github.com/kfcemployee/goserver/internal/message"
)

// socketpair returns two connected, blocking AF_UNIX stream fds so WriteStep
// can drive a real non-blocking-capable socket without standing up a TCP
// listener.
func socketpair(t *testing.T) (a, b int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func drain(t *testing.T, fd int, want int) []byte {
	t.Helper()
	out := make([]byte, 0, want)
	buf := make([]byte, 4096)
	for len(out) < want {
		n, err := unix.Read(fd, buf)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if n == 0 {
			break
		}
		out = append(out, buf[:n]...)
	}
	return out
}

func TestConnection_writeStepBytesBodyDrainsWholeResponse(t *testing.T) {
	writerFd, readerFd := socketpair(t)

	c := New(writerFd, 64, 1024, httpparse.DefaultMaxHeaderBytes, 64)

	resp := message.NewResponse()
	resp.BodyKind = message.BodyBytes
	resp.Bytes = []byte("hello world")
	if err := resp.Finalize(true, "goserver-test", time.Now()); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if err := c.PrepareResponse(resp, true); err != nil {
		t.Fatalf("PrepareResponse: %v", err)
	}

	done, blocked, err := c.WriteStep()
	if err != nil {
		t.Fatalf("WriteStep: %v", err)
	}
	if blocked {
		t.Fatalf("did not expect to block on a socketpair this small a payload")
	}
	if !done {
		t.Fatalf("expected WriteStep to finish in one pass")
	}

	got := drain(t, readerFd, len(c.Writer.headerBlock)+len("hello world"))
	if string(got[len(got)-len("hello world"):]) != "hello world" {
		t.Fatalf("body not found at tail of written bytes: %q", got)
	}
}

func TestConnection_writeStepFileBodyStreamsInChunks(t *testing.T) {
	writerFd, readerFd := socketpair(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "payload.bin")
	content := make([]byte, 200)
	for i := range content {
		content[i] = byte(i)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	// chunkSize smaller than the file forces stepFile through multiple
	// ReadAt/write iterations instead of one shot.
	c := New(writerFd, 64, 1024, httpparse.DefaultMaxHeaderBytes, 32)

	resp := message.NewResponse()
	resp.BodyKind = message.BodyFile
	resp.FilePath = path
	if err := resp.Finalize(false, "goserver-test", time.Now()); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if err := c.PrepareResponse(resp, false); err != nil {
		t.Fatalf("PrepareResponse: %v", err)
	}

	readerDone := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 0, 1024)
		tmp := make([]byte, 4096)
		for {
			n, err := unix.Read(readerFd, tmp)
			if n > 0 {
				buf = append(buf, tmp[:n]...)
			}
			if err != nil || n == 0 {
				break
			}
			if len(buf) >= len(c.Writer.headerBlock)+len(content) {
				break
			}
		}
		readerDone <- buf
	}()

	for {
		done, blocked, err := c.WriteStep()
		if err != nil {
			t.Fatalf("WriteStep: %v", err)
		}
		if done {
			break
		}
		if blocked {
			time.Sleep(time.Millisecond)
		}
	}
	unix.Close(writerFd)

	got := <-readerDone
	tail := got[len(got)-len(content):]
	for i := range content {
		if tail[i] != content[i] {
			t.Fatalf("byte %d = %d, want %d", i, tail[i], content[i])
		}
	}
}

func TestConnection_resetClosesOpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	c := New(-1, 64, 256, httpparse.DefaultMaxHeaderBytes, 16)
	resp := message.NewResponse()
	resp.BodyKind = message.BodyFile
	resp.FilePath = path
	if err := resp.Finalize(false, "goserver-test", time.Now()); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if err := c.PrepareResponse(resp, false); err != nil {
		t.Fatalf("PrepareResponse: %v", err)
	}
	f := c.Writer.file
	if f == nil {
		t.Fatalf("expected file to be opened")
	}

	c.Reset()

	if c.Writer.file != nil {
		t.Fatalf("expected Reset to clear the open file handle")
	}
	if _, err := f.Read(make([]byte, 1)); err == nil {
		t.Fatalf("expected file to be closed after Reset")
	}
}
