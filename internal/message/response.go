package message

import "strings"

// BodyKind tags which variant of the response body is populated. The
// writer (internal/conn) switches on this instead of inferring from which
// fields happen to be non-zero.
type BodyKind uint8

const (
	BodyEmpty BodyKind = iota
	BodyBytes
	BodyFile
)

type header struct {
	Name  string
	Value string
}

// Response is the handler-populated result, built through ResponseBuilder.
// Headers are kept in an insertion-ordered slice rather than a map so
// emission preserves the case and order the handler set them in. Server,
// Date, Connection and Content-Length are injected by the core after the
// handler returns, never by the handler directly.
type Response struct {
	Status int

	headers []header

	BodyKind    BodyKind
	Bytes       []byte
	FilePath    string
	FileSize    int64
	ContentType string
}

// NewResponse returns a Response defaulted to 200 OK with no body, the
// state a handler starts from.
func NewResponse() *Response {
	return &Response{Status: 200}
}

// Reset restores a Response to its zero-value-ish default so a Response can
// be reused across keep-alive requests without reallocating its header
// slice.
func (r *Response) Reset() {
	r.Status = 200
	r.headers = r.headers[:0]
	r.BodyKind = BodyEmpty
	r.Bytes = nil
	r.FilePath = ""
	r.FileSize = 0
	r.ContentType = ""
}

// SetHeader overwrites any existing header with the same name
// (case-insensitively), or appends a new one, preserving the position and
// casing of the first time that name was set.
func (r *Response) SetHeader(name, value string) {
	for i := range r.headers {
		if strings.EqualFold(r.headers[i].Name, name) {
			r.headers[i].Value = value
			return
		}
	}
	r.headers = append(r.headers, header{Name: name, Value: value})
}

// Header returns a header's value as the handler last set it.
func (r *Response) Header(name string) (string, bool) {
	for _, h := range r.headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// HasHeader reports whether a header name has already been set, used by the
// core to decide whether to inject a default (e.g. Server).
func (r *Response) HasHeader(name string) bool {
	_, ok := r.Header(name)
	return ok
}

// Headers returns the ordered header list for emission. Callers must not
// mutate the returned slice's backing array across a reset.
func (r *Response) Headers() []struct{ Name, Value string } {
	out := make([]struct{ Name, Value string }, len(r.headers))
	for i, h := range r.headers {
		out[i] = struct{ Name, Value string }{h.Name, h.Value}
	}
	return out
}

// ForEachHeader iterates the ordered headers without allocating.
func (r *Response) ForEachHeader(fn func(name, value string)) {
	for _, h := range r.headers {
		fn(h.Name, h.Value)
	}
}

// ResponseBuilder is the fluent surface handlers call:
// Status/Header/Body(or File)/JSON/Text/HTML.
type ResponseBuilder struct {
	resp *Response
}

// NewResponseBuilder wraps a Response for handler use.
func NewResponseBuilder(r *Response) *ResponseBuilder {
	return &ResponseBuilder{resp: r}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.resp.Status = code
	return b
}

// StatusCode reports the status code set so far, for logging middleware
// that runs after the handler.
func (b *ResponseBuilder) StatusCode() int {
	return b.resp.Status
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.resp.SetHeader(name, value)
	return b
}

// Body sets an in-memory byte body. May be called at most once per
// response along with File; the later call wins.
func (b *ResponseBuilder) Body(data []byte) *ResponseBuilder {
	b.resp.BodyKind = BodyBytes
	b.resp.Bytes = data
	return b
}

// File sets the response body to stream the given path, with the supplied
// Content-Type. Size is resolved later, at handoff, by statting the file;
// a stat failure there becomes a 500.
func (b *ResponseBuilder) File(path, contentType string) *ResponseBuilder {
	b.resp.BodyKind = BodyFile
	b.resp.FilePath = path
	b.resp.ContentType = contentType
	return b
}

// JSON sets the body to pre-encoded JSON bytes and the Content-Type header
// atomically. Encoding itself is a handler/application concern, invoked by
// handlers rather than the core, so this takes bytes rather than an
// arbitrary value.
func (b *ResponseBuilder) JSON(encoded []byte) *ResponseBuilder {
	b.resp.SetHeader("Content-Type", "application/json")
	return b.Body(encoded)
}

func (b *ResponseBuilder) Text(s string) *ResponseBuilder {
	b.resp.SetHeader("Content-Type", "text/plain; charset=utf-8")
	return b.Body([]byte(s))
}

func (b *ResponseBuilder) HTML(s string) *ResponseBuilder {
	b.resp.SetHeader("Content-Type", "text/html; charset=utf-8")
	return b.Body([]byte(s))
}
