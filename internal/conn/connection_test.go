package conn

import (
	"testing"

	"github.com/kfcemployee/goserver/internal/httpparse"
)

func TestConnection_appendReadableGrowsOnFullBuffer(t *testing.T) {
	c := New(-1, 4, 64, httpparse.DefaultMaxHeaderBytes, 16)
	c.CommitRead(4) // fill the initial 4-byte buffer entirely

	buf := c.AppendReadable()
	if len(buf) == 0 {
		t.Fatalf("expected AppendReadable to grow and return writable space")
	}
	if len(c.buf) <= 4 {
		t.Fatalf("expected underlying buffer to grow past 4 bytes, got %d", len(c.buf))
	}
	if len(c.Unconsumed()) != 4 {
		t.Fatalf("grow must preserve already-filled bytes, got %d", len(c.Unconsumed()))
	}
}

func TestConnection_growStopsAtMaxBufSize(t *testing.T) {
	c := New(-1, 8, 16, httpparse.DefaultMaxHeaderBytes, 16)
	c.CommitRead(8)
	c.AppendReadable() // grows 8 -> 16 (capped at maxBufSize)
	c.CommitRead(8)

	if !c.AtCapacity() {
		t.Fatalf("expected connection to report AtCapacity once buffer hits maxBufSize")
	}
}

func TestConnection_tryParseNextCompactsBufferKeepingPipelinedRemainder(t *testing.T) {
	c := New(-1, 256, 1024, httpparse.DefaultMaxHeaderBytes, 16)
	first := "GET /a HTTP/1.1\r\n\r\n"
	second := "GET /b HTTP/1.1\r\n\r\n"
	raw := first + second
	copy(c.buf, raw)
	c.CommitRead(len(raw))

	res, state, err := c.TryParseNext()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != httpparse.StateComplete {
		t.Fatalf("state = %v, want StateComplete", state)
	}
	if string(res.Path) != "/a" {
		t.Fatalf("path = %q, want /a", res.Path)
	}
	if string(c.Unconsumed()) != second {
		t.Fatalf("unconsumed = %q, want %q", c.Unconsumed(), second)
	}

	res2, _, err2 := c.TryParseNext()
	if err2 != nil {
		t.Fatalf("unexpected error on second parse: %v", err2)
	}
	if string(res2.Path) != "/b" {
		t.Fatalf("path = %q, want /b", res2.Path)
	}
	if len(c.Unconsumed()) != 0 {
		t.Fatalf("expected buffer fully drained, got %q", c.Unconsumed())
	}
}

func TestConnection_resetClearsBusyAndParserStateButKeepsBuffer(t *testing.T) {
	c := New(-1, 64, 256, httpparse.DefaultMaxHeaderBytes, 16)
	pipelined := "GET /next HTTP/1.1\r\n\r\n"
	copy(c.buf, pipelined)
	c.CommitRead(len(pipelined))
	c.Busy = true
	c.ParserState = httpparse.StateBody

	c.Reset()

	if c.Busy {
		t.Fatalf("expected Busy to be cleared by Reset")
	}
	if c.ParserState != httpparse.StateRequestLine {
		t.Fatalf("parser state = %v, want StateRequestLine", c.ParserState)
	}
	if string(c.Unconsumed()) != pipelined {
		t.Fatalf("Reset must not discard already-buffered pipelined bytes")
	}
}

func TestConnection_touchDoesNotMoveLastActivityBackwards(t *testing.T) {
	c := New(-1, 16, 64, httpparse.DefaultMaxHeaderBytes, 16)
	before := c.LastActivity
	c.Touch()
	if c.LastActivity.Before(before) {
		t.Fatalf("Touch should not move LastActivity backwards")
	}
}
