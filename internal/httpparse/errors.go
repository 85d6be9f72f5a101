package httpparse

import "errors"

// Sentinel errors the parser distinguishes, checked with errors.Is by
// callers, so a 400 handler (or a test) can tell what went wrong without
// string matching.
var (
	ErrIncomplete      = errors.New("httpparse: incomplete request")
	ErrMalformedLine   = errors.New("httpparse: malformed request line")
	ErrUnknownMethod   = errors.New("httpparse: unsupported method")
	ErrUnknownVersion  = errors.New("httpparse: unsupported HTTP version")
	ErrMalformedHeader = errors.New("httpparse: malformed header line")
	ErrChunkedBody     = errors.New("httpparse: chunked transfer-encoding is not supported")
	ErrHeadersTooLarge = errors.New("httpparse: request header block exceeds limit")
)
