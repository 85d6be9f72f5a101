package router

import (
	"testing"

	"github.com/kfcemployee/goserver/internal/message"
)

func noopHandler(req *message.Request, resp *message.ResponseBuilder) {}

func TestRouter_match(t *testing.T) {
	r := New(nil)
	r.Handle(message.MethodGET, "/users", noopHandler)
	r.Handle(message.MethodGET, "/users/:id", noopHandler)
	r.Handle(message.MethodPOST, "/users/:id", noopHandler)
	r.Handle(message.MethodGET, "/users/:id/posts/:postID", noopHandler)
	r.Handle(message.MethodGET, "/static/*filepath", noopHandler)

	tests := []struct {
		name       string
		method     message.Method
		path       string
		wantOutc   MatchOutcome
		wantParams map[string]string
	}{
		{
			name:     "literal path matches its own node above a param child",
			method:   message.MethodGET,
			path:     "/users",
			wantOutc: Matched,
		},
		{
			name:       "param match",
			method:     message.MethodGET,
			path:       "/users/42",
			wantOutc:   Matched,
			wantParams: map[string]string{"id": "42"},
		},
		{
			name:     "method not allowed on a matched path",
			method:   message.MethodDELETE,
			path:     "/users/42",
			wantOutc: MethodNotAllowed,
		},
		{
			name:       "nested params at separate levels",
			method:     message.MethodGET,
			path:       "/users/42/posts/7",
			wantOutc:   Matched,
			wantParams: map[string]string{"id": "42", "postID": "7"},
		},
		{
			name:     "no match",
			method:   message.MethodGET,
			path:     "/nope",
			wantOutc: NotFound,
		},
		{
			name:     "partial match is not found",
			method:   message.MethodGET,
			path:     "/users/42/posts",
			wantOutc: NotFound,
		},
		{
			name:       "wildcard consumes remaining nested segments",
			method:     message.MethodGET,
			path:       "/static/css/nested/app.css",
			wantOutc:   Matched,
			wantParams: map[string]string{"filepath": "css/nested/app.css"},
		},
		{
			name:       "wildcard matches a single segment too",
			method:     message.MethodGET,
			path:       "/static/app.js",
			wantOutc:   Matched,
			wantParams: map[string]string{"filepath": "app.js"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, params, outc := r.Match(tt.method, tt.path)
			if outc != tt.wantOutc {
				t.Fatalf("outcome = %v, want %v", outc, tt.wantOutc)
			}
			if outc == Matched && h == nil {
				t.Fatalf("Matched outcome but nil handler")
			}
			for k, v := range tt.wantParams {
				if params[k] != v {
					t.Fatalf("param %q = %q, want %q", k, params[k], v)
				}
			}
		})
	}
}

func TestRouter_literalIntermediateNodeDoesNotShadowParametricTerminal(t *testing.T) {
	r := New(nil)
	r.Handle(message.MethodGET, "/files/public/:name", noopHandler)
	r.Handle(message.MethodGET, "/files/:name", noopHandler)

	h, params, outc := r.Match(message.MethodGET, "/files/public")
	if outc != Matched {
		t.Fatalf("outcome = %v, want Matched", outc)
	}
	if h == nil {
		t.Fatalf("expected a handler")
	}
	if params["name"] != "public" {
		t.Fatalf("param name = %q, want public", params["name"])
	}
}

func TestRouter_trailingSlashEquivalence(t *testing.T) {
	r := New(nil)
	r.Handle(message.MethodGET, "/about/", noopHandler)

	_, _, outc := r.Match(message.MethodGET, "/about")
	if outc != Matched {
		t.Fatalf("outcome = %v, want Matched", outc)
	}
}

func TestRouter_paramConflictKeepsFirstRegistration(t *testing.T) {
	var existing, attempted string
	calls := 0
	r := New(func(e, a string) {
		calls++
		existing, attempted = e, a
	})
	r.Handle(message.MethodGET, "/items/:id", noopHandler)
	r.Handle(message.MethodGET, "/items/:itemID", noopHandler)

	if calls != 1 {
		t.Fatalf("onConflict called %d times, want 1", calls)
	}
	if existing != "id" || attempted != "itemID" {
		t.Fatalf("got existing=%q attempted=%q", existing, attempted)
	}

	_, params, outc := r.Match(message.MethodGET, "/items/9")
	if outc != Matched {
		t.Fatalf("outcome = %v, want Matched", outc)
	}
	if params["id"] != "9" {
		t.Fatalf("param id = %q, want 9 (first registration should win)", params["id"])
	}
}

func BenchmarkRouter_matchStatic(b *testing.B) {
	r := New(nil)
	r.Handle(message.MethodGET, "/users/items/detail", noopHandler)
	for i := 0; i < b.N; i++ {
		r.Match(message.MethodGET, "/users/items/detail")
	}
}

func BenchmarkRouter_matchParam(b *testing.B) {
	r := New(nil)
	r.Handle(message.MethodGET, "/users/:id/posts/:postID", noopHandler)
	for i := 0; i < b.N; i++ {
		r.Match(message.MethodGET, "/users/42/posts/7")
	}
}
