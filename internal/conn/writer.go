package conn

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/kfcemployee/goserver/internal/message"
)

// writerState holds the response-in-flight and how far the socket has
// drained it. Unexported: only Connection's methods drive it.
type writerState struct {
	state WriterState

	headerBlock []byte
	headerSent  int

	bodyBytes []byte
	bodySent  int

	file          *os.File
	fileOffset    int64
	fileSize      int64
	chunk         []byte
	chunkLen      int
	chunkSent     int

	keepAlive bool
}

func (w *writerState) reset() {
	w.state = WriterIdle
	w.headerBlock = nil
	w.headerSent = 0
	w.bodyBytes = nil
	w.bodySent = 0
	if w.file != nil {
		w.file.Close()
		w.file = nil
	}
	w.fileOffset = 0
	w.fileSize = 0
	w.chunkLen = 0
	w.chunkSent = 0
}

// Idle reports whether no response is currently in flight on this
// connection (the writer is Idle or Done): only one response is in flight
// at a time.
func (c *Connection) Idle() bool {
	return c.Writer.state == WriterIdle || c.Writer.state == WriterDone
}

// PrepareResponse builds the header block for resp (already Finalize'd by
// the caller) and, for a file body, opens the file. It transitions the
// writer into SendingHeaders — the first state the reactor's write pipeline
// will drive. Returns an error if the file body can't be opened; the caller
// should turn that into a synthesized 500 the same way a stat failure is.
func (c *Connection) PrepareResponse(resp *message.Response, keepAlive bool) error {
	c.Writer.reset()
	c.Writer.keepAlive = keepAlive
	c.KeepAlive = keepAlive
	c.Writer.headerBlock = buildHeaderBlock(resp)
	c.Writer.state = WriterSendingHeaders

	switch resp.BodyKind {
	case message.BodyBytes:
		c.Writer.bodyBytes = resp.Bytes
	case message.BodyFile:
		f, err := os.Open(resp.FilePath)
		if err != nil {
			return err
		}
		c.Writer.file = f
		c.Writer.fileSize = resp.FileSize
	}
	return nil
}

func buildHeaderBlock(resp *message.Response) []byte {
	out := make([]byte, 0, 256)
	out = append(out, "HTTP/1.1 "...)
	out = appendInt(out, resp.Status)
	out = append(out, ' ')
	out = append(out, message.ReasonPhrase(resp.Status)...)
	out = append(out, "\r\n"...)
	resp.ForEachHeader(func(name, value string) {
		out = append(out, name...)
		out = append(out, ':', ' ')
		out = append(out, value...)
		out = append(out, "\r\n"...)
	})
	out = append(out, "\r\n"...)
	return out
}

func appendInt(dst []byte, n int) []byte {
	if n == 0 {
		return append(dst, '0')
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var tmp [20]byte
	i := len(tmp)
	for n > 0 {
		i--
		tmp[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		dst = append(dst, '-')
	}
	return append(dst, tmp[i:]...)
}

// WriteStep drains as much of the pending response as the socket accepts
// without blocking, advancing through SendingHeaders -> SendingBytes /
// SendingFile -> Done. It returns done=true once the whole response has
// been written, and wouldBlock=true when the kernel returned EAGAIN so the
// reactor knows to re-arm for writability rather than treat it as an error.
func (c *Connection) WriteStep() (done bool, wouldBlock bool, err error) {
	for {
		switch c.Writer.state {
		case WriterSendingHeaders:
			n, blocked, werr := writeChunk(c.Fd, c.Writer.headerBlock, c.Writer.headerSent)
			c.Writer.headerSent += n
			if werr != nil {
				return false, false, werr
			}
			if blocked {
				return false, true, nil
			}
			if c.Writer.headerSent < len(c.Writer.headerBlock) {
				return false, true, nil
			}
			c.advancePastHeaders()

		case WriterSendingBytes:
			n, blocked, werr := writeChunk(c.Fd, c.Writer.bodyBytes, c.Writer.bodySent)
			c.Writer.bodySent += n
			if werr != nil {
				return false, false, werr
			}
			if blocked || c.Writer.bodySent < len(c.Writer.bodyBytes) {
				return false, true, nil
			}
			c.Writer.state = WriterDone
			return true, false, nil

		case WriterSendingFile:
			done, blocked, werr := c.stepFile()
			if werr != nil {
				return false, false, werr
			}
			if blocked {
				return false, true, nil
			}
			if done {
				c.Writer.state = WriterDone
				return true, false, nil
			}

		case WriterDone, WriterIdle:
			return true, false, nil
		}
	}
}

func (c *Connection) advancePastHeaders() {
	switch {
	case c.Writer.bodyBytes != nil:
		c.Writer.state = WriterSendingBytes
	case c.Writer.file != nil:
		c.Writer.state = WriterSendingFile
	default:
		c.Writer.state = WriterDone
	}
}

// stepFile sends up to one chunk-buffer's worth of file content. On a
// partial socket write it keeps the unsent tail of the current chunk in
// place rather than re-reading the file, so nothing is skipped or
// duplicated: fileOffset never advances until the chunk is fully drained.
func (c *Connection) stepFile() (done, blocked bool, err error) {
	w := &c.Writer
	if w.chunkSent >= w.chunkLen {
		if w.fileOffset >= w.fileSize {
			return true, false, nil
		}
		toRead := int64(len(w.chunk))
		if remaining := w.fileSize - w.fileOffset; remaining < toRead {
			toRead = remaining
		}
		n, rerr := w.file.ReadAt(w.chunk[:toRead], w.fileOffset)
		if n == 0 && rerr != nil {
			return false, false, rerr
		}
		w.chunkLen = n
		w.chunkSent = 0
	}

	n, blk, werr := writeChunk(c.Fd, w.chunk[:w.chunkLen], w.chunkSent)
	w.chunkSent += n
	if werr != nil {
		return false, false, werr
	}
	if blk || w.chunkSent < w.chunkLen {
		return false, true, nil
	}
	w.fileOffset += int64(w.chunkLen)
	w.chunkLen = 0
	w.chunkSent = 0
	if w.fileOffset >= w.fileSize {
		return true, false, nil
	}
	return false, false, nil
}

// writeChunk issues one non-blocking write(2) of buf[sent:], tolerating
// EAGAIN and short writes: every transition must tolerate a partial send.
func writeChunk(fd int, buf []byte, sent int) (n int, wouldBlock bool, err error) {
	if sent >= len(buf) {
		return 0, false, nil
	}
	n, err = unix.Write(fd, buf[sent:])
	if err == unix.EAGAIN {
		return 0, true, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, false, nil
}
