// Package httpparse turns a byte window into message.Request values: a
// strict state machine over the request line, headers, and (when
// Content-Length says so) body.
package httpparse

import (
	"bytes"

	"github.com/kfcemployee/goserver/internal/message"
)

// State is the parser's position in the grammar, stored on the connection
// for observability even though this parser re-scans the whole buffered
// prefix on every call rather than resuming mid-header — a linear rescan of
// a bounded buffer is cheap; the State return just tells the caller where
// the rescan gave up.
type State uint8

const (
	StateRequestLine State = iota
	StateHeaders
	StateBody
	StateComplete
	StateError
)

// DefaultMaxHeaderBytes bounds the request-line+headers block.
const DefaultMaxHeaderBytes = 16 * 1024

// Result is the parsed prefix of a single request, ready to become a
// message.Request. Path/RawQuery/Version/Body alias the input buffer (header
// names and values are copied into strings) — valid only until the next
// mutation of that buffer, hence
// Clone on message.Request for cross-goroutine handoff.
type Result struct {
	Method   message.Method
	Path     []byte
	RawQuery []byte
	Version  []byte
	Headers  map[string]string
	Body     []byte

	// Consumed is the number of bytes of the input this request occupied,
	// so the caller can advance/compact its buffer past it.
	Consumed int
}

// Parse scans buf for one complete HTTP/1.1 request. It returns the parsed
// request and StateComplete on success, StateError (with a sentinel error)
// on a malformed request, or the State at which it ran out of bytes
// together with ErrIncomplete so the caller knows whether to keep waiting
// for a request line, more headers, or more body.
func Parse(buf []byte, maxHeaderBytes int) (*Result, State, error) {
	if maxHeaderBytes <= 0 {
		maxHeaderBytes = DefaultMaxHeaderBytes
	}

	crs := 0
	findsep := func(start int, sep byte) int {
		if start >= len(buf) {
			return -1
		}
		idx := bytes.IndexByte(buf[start:], sep)
		if idx == -1 {
			return -1
		}
		return start + idx
	}

	// --- request line ---
	sep := findsep(crs, ' ')
	if sep == -1 {
		if len(buf) > maxHeaderBytes {
			return nil, StateError, ErrHeadersTooLarge
		}
		return nil, StateRequestLine, ErrIncomplete
	}
	methodTok := buf[crs:sep]
	method, ok := message.ParseMethod(methodTok)
	if !ok {
		return nil, StateError, ErrUnknownMethod
	}
	crs = sep + 1

	sep = findsep(crs, ' ')
	if sep == -1 {
		if len(buf) > maxHeaderBytes {
			return nil, StateError, ErrHeadersTooLarge
		}
		return nil, StateRequestLine, ErrIncomplete
	}
	target := buf[crs:sep]
	crs = sep + 1

	lf := findsep(crs, '\n')
	if lf == -1 {
		if len(buf) > maxHeaderBytes {
			return nil, StateError, ErrHeadersTooLarge
		}
		return nil, StateRequestLine, ErrIncomplete
	}
	if lf == crs || buf[lf-1] != '\r' {
		return nil, StateError, ErrMalformedLine
	}
	version := buf[crs : lf-1]
	if !bytes.Equal(version, []byte("HTTP/1.1")) {
		return nil, StateError, ErrUnknownVersion
	}
	crs = lf + 1

	path, rawQuery := splitTarget(target)

	// --- headers ---
	headers := make(map[string]string, 8)
	contentLength := 0
	headersStart := crs
	for {
		if crs+1 >= len(buf) {
			if crs-headersStart > maxHeaderBytes {
				return nil, StateError, ErrHeadersTooLarge
			}
			return nil, StateHeaders, ErrIncomplete
		}
		if buf[crs] == '\r' && buf[crs+1] == '\n' {
			crs += 2
			break
		}

		lf := findsep(crs, '\n')
		if lf == -1 {
			if crs-headersStart > maxHeaderBytes {
				return nil, StateError, ErrHeadersTooLarge
			}
			return nil, StateHeaders, ErrIncomplete
		}
		if lf == crs || buf[lf-1] != '\r' {
			return nil, StateError, ErrMalformedHeader
		}
		lineEnd := lf - 1

		coloni := findsep(crs, ':')
		if coloni == -1 || coloni > lineEnd {
			return nil, StateError, ErrMalformedHeader
		}

		valStart := coloni + 1
		for valStart < lineEnd && (buf[valStart] == ' ' || buf[valStart] == '\t') {
			valStart++
		}

		key := lowerASCII(buf[crs:coloni])
		val := string(buf[valStart:lineEnd])
		headers[key] = val // last-wins on duplicates

		if key == "content-length" {
			n := 0
			for _, c := range val {
				if c < '0' || c > '9' {
					n = -1
					break
				}
				n = n*10 + int(c-'0')
			}
			if n >= 0 {
				contentLength = n
			}
		}
		if key == "transfer-encoding" {
			return nil, StateError, ErrChunkedBody
		}

		crs = lf + 1
		if crs-headersStart > maxHeaderBytes {
			return nil, StateError, ErrHeadersTooLarge
		}
	}

	// --- body ---
	var body []byte
	if contentLength > 0 {
		if crs+contentLength > len(buf) {
			return nil, StateBody, ErrIncomplete
		}
		body = buf[crs : crs+contentLength]
		crs += contentLength
	}

	return &Result{
		Method:   method,
		Path:     path,
		RawQuery: rawQuery,
		Version:  version,
		Headers:  headers,
		Body:     body,
		Consumed: crs,
	}, StateComplete, nil
}

// splitTarget separates "/path?query" into path (percent-encoding
// preserved) and the raw query component.
func splitTarget(target []byte) (path, rawQuery []byte) {
	if idx := bytes.IndexByte(target, '?'); idx != -1 {
		return target[:idx], target[idx+1:]
	}
	return target, nil
}

func lowerASCII(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
