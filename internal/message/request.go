package message

import (
	"net/url"
	"strings"
)

// Request is the immutable view a handler receives. Fields populated by the
// parser reference the connection's read buffer and are only valid for the
// lifetime of that parse; Clone copies everything into independently-owned
// storage so a worker goroutine can hold the request past the connection's
// next read.
type Request struct {
	Method  Method
	Path    []byte
	Version []byte
	RawBody []byte

	rawQuery []byte

	// header keys are stored lowercase, normalized on insert rather than
	// compared case-insensitively on every lookup. Duplicates keep the last
	// value written.
	headers map[string]string

	// params is populated by the router, never by the parser.
	params map[string]string

	queryOnce   bool
	queryValues map[string]string
}

// NewRequest builds a Request from parsed pieces. headers keys must already
// be lowercased by the caller (the parser does this at insert time).
func NewRequest(method Method, path, version, rawQuery, body []byte, headers map[string]string) *Request {
	return &Request{
		Method:   method,
		Path:     path,
		Version:  version,
		RawBody:  body,
		rawQuery: rawQuery,
		headers:  headers,
	}
}

// Clone deep-copies every byte slice and map so the result stays valid after
// the owning connection's buffer is reused for the next request. Paid once
// per task at worker hand-off rather than per field access.
func (r *Request) Clone() *Request {
	cp := &Request{
		Method:   r.Method,
		Path:     append([]byte(nil), r.Path...),
		Version:  append([]byte(nil), r.Version...),
		RawBody:  append([]byte(nil), r.RawBody...),
		rawQuery: append([]byte(nil), r.rawQuery...),
	}
	if r.headers != nil {
		cp.headers = make(map[string]string, len(r.headers))
		for k, v := range r.headers {
			cp.headers[k] = v
		}
	}
	if r.params != nil {
		cp.params = make(map[string]string, len(r.params))
		for k, v := range r.params {
			cp.params[k] = v
		}
	}
	return cp
}

// Header looks up a header by name, case-insensitively, by lowercasing the
// query key against the already-lowercased storage.
func (r *Request) Header(name string) (string, bool) {
	if r.headers == nil {
		return "", false
	}
	v, ok := r.headers[strings.ToLower(name)]
	return v, ok
}

// Headers returns the full lowercase-keyed header map. Callers must not
// mutate it.
func (r *Request) Headers() map[string]string {
	return r.headers
}

// RawQuery returns the undecoded query component (the bytes after '?' in
// the request target), preserved exactly as received.
func (r *Request) RawQuery() []byte {
	return r.rawQuery
}

// Query percent-decodes the named query parameter on first access and
// caches the decoded set for subsequent lookups on this request.
func (r *Request) Query(name string) (string, bool) {
	r.ensureQueryDecoded()
	v, ok := r.queryValues[name]
	return v, ok
}

// QueryValues returns the full decoded query map, decoding on first call.
func (r *Request) QueryValues() map[string]string {
	r.ensureQueryDecoded()
	return r.queryValues
}

func (r *Request) ensureQueryDecoded() {
	if r.queryOnce {
		return
	}
	r.queryOnce = true
	r.queryValues = make(map[string]string)
	if len(r.rawQuery) == 0 {
		return
	}
	for _, pair := range strings.Split(string(r.rawQuery), "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		dk, err := url.QueryUnescape(k)
		if err != nil {
			dk = k
		}
		dv, err := url.QueryUnescape(v)
		if err != nil {
			dv = v
		}
		r.queryValues[dk] = dv
	}
}

// SetParams installs the router-bound path parameters. Called exactly once,
// by the router, after a successful match.
func (r *Request) SetParams(p map[string]string) {
	r.params = p
}

// Param returns a path parameter bound by the router (e.g. ":id").
func (r *Request) Param(name string) (string, bool) {
	if r.params == nil {
		return "", false
	}
	v, ok := r.params[name]
	return v, ok
}

// Params returns every path parameter bound for this request.
func (r *Request) Params() map[string]string {
	return r.params
}

// KeepAlive reports whether the connection should persist after this
// request: default true on HTTP/1.1, false if the request declared
// "Connection: close".
func (r *Request) KeepAlive() bool {
	v, ok := r.Header("Connection")
	if !ok {
		return true
	}
	return !strings.EqualFold(strings.TrimSpace(v), "close")
}
