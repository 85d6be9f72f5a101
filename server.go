// Package goserver is the root facade: route registration, middleware,
// static file helpers, and the Run/Stop lifecycle wired on top of
// internal/reactor, internal/router, and internal/workerpool.
package goserver

import (
	"runtime/debug"
	"time"

	"github.com/kfcemployee/goserver/internal/message"
	"github.com/kfcemployee/goserver/internal/reactor"
	"github.com/kfcemployee/goserver/internal/router"
)

// Handler is the application-facing route action: read the request, build
// the response. Defined here as an alias of router.Handler so application
// code never has to import the internal router package.
type Handler = router.Handler

// Request and ResponseBuilder re-export the message package's types so
// application code can write *goserver.Request/*goserver.ResponseBuilder in
// handler signatures without importing internal/message itself.
type (
	Request         = message.Request
	ResponseBuilder = message.ResponseBuilder
)

// Middleware wraps a Handler to run logic before/after it, in the usual
// onion pattern: func(next Handler) Handler.
type Middleware func(Handler) Handler

// Server is the application's route table, middleware chain, and bound
// reactor. The zero value is not usable; build one with New.
type Server struct {
	cfg        Config
	router     *router.Router
	middleware []Middleware
	reactor    *reactor.Reactor
}

// New builds a Server with an empty route table. Routes and middleware may
// be registered any time before Run.
func New(cfg Config) *Server {
	s := &Server{cfg: cfg}
	s.router = router.New(func(existing, attempted string) {
		s.cfg.Logger.Warn().
			Str("existing_param", existing).
			Str("attempted_param", attempted).
			Msg("route parameter name conflict, keeping first registration")
	})
	return s
}

// Use appends a global middleware, applied to every route in registration
// order: the first Use call is the outermost layer.
func (s *Server) Use(mw Middleware) {
	s.middleware = append(s.middleware, mw)
}

// Handle registers h for method and path. Path segments beginning with ':'
// bind a path parameter.
func (s *Server) Handle(method message.Method, path string, h Handler) {
	s.router.Handle(method, path, h)
}

func (s *Server) Get(path string, h Handler)    { s.Handle(message.MethodGET, path, h) }
func (s *Server) Post(path string, h Handler)   { s.Handle(message.MethodPOST, path, h) }
func (s *Server) Put(path string, h Handler)    { s.Handle(message.MethodPUT, path, h) }
func (s *Server) Delete(path string, h Handler) { s.Handle(message.MethodDELETE, path, h) }
func (s *Server) Patch(path string, h Handler)  { s.Handle(message.MethodPATCH, path, h) }

// Group returns a Group bound to this Server with prefix prepended to every
// path registered through it.
func (s *Server) Group(prefix string) *Group {
	return &Group{server: s, prefix: prefix}
}

// Group is a thin wrapper that prepends a shared prefix before delegating
// to the owning Server's Handle — no router semantics change.
type Group struct {
	server *Server
	prefix string
}

func (g *Group) Handle(method message.Method, path string, h Handler) {
	g.server.Handle(method, g.prefix+path, h)
}

func (g *Group) Get(path string, h Handler)    { g.Handle(message.MethodGET, path, h) }
func (g *Group) Post(path string, h Handler)   { g.Handle(message.MethodPOST, path, h) }
func (g *Group) Put(path string, h Handler)    { g.Handle(message.MethodPUT, path, h) }
func (g *Group) Delete(path string, h Handler) { g.Handle(message.MethodDELETE, path, h) }
func (g *Group) Patch(path string, h Handler)  { g.Handle(message.MethodPATCH, path, h) }

// Group further nests a prefix under this one.
func (g *Group) Group(prefix string) *Group {
	return &Group{server: g.server, prefix: g.prefix + prefix}
}

// chain wraps h with every registered middleware, outermost first, plus a
// recovery layer that always runs no matter what middleware the caller
// configured: a handler panic must never be able to skip the 500 response.
func (s *Server) chain(h Handler) Handler {
	wrapped := h
	for i := len(s.middleware) - 1; i >= 0; i-- {
		wrapped = s.middleware[i](wrapped)
	}
	return s.recoverMiddleware(wrapped)
}

func (s *Server) recoverMiddleware(next Handler) Handler {
	return func(req *message.Request, resp *message.ResponseBuilder) {
		defer func() {
			if rec := recover(); rec != nil {
				s.cfg.Logger.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Bytes("path", req.Path).
					Msg("handler panic recovered")
				resp.Status(500).JSON([]byte(`{"error":"handler_fault"}`))
			}
		}()
		next(req, resp)
	}
}

// dispatch is the reactor.Dispatch implementation: router lookup, chained
// handler invocation, and NotFound/MethodNotAllowed synthesis. It never
// panics past this boundary — recoverMiddleware is always the outermost
// layer around every matched handler and its middleware, and the
// NotFound/MethodNotAllowed paths never call application code at all.
func (s *Server) dispatch(req *message.Request) *message.Response {
	h, params, outcome := s.router.Match(req.Method, string(req.Path))

	resp := message.NewResponse()
	builder := message.NewResponseBuilder(resp)

	switch outcome {
	case router.NotFound:
		builder.Status(404).JSON([]byte(`{"error":"not_found"}`))
		return resp
	case router.MethodNotAllowed:
		builder.Status(405).JSON([]byte(`{"error":"method_not_allowed"}`))
		return resp
	}

	req.SetParams(params)
	s.chain(h)(req, builder)
	return resp
}

// bind constructs the reactor and binds its listening socket, without
// entering the event loop — split out of Run so RunFor can hand back a
// server whose Addr is already known before the caller does anything else.
func (s *Server) bind() error {
	s.reactor = reactor.New(reactor.Config{
		Host:           s.cfg.Host,
		Port:           s.cfg.Port,
		Backlog:        s.cfg.Backlog,
		Workers:        s.cfg.Workers,
		QueueCapacity:  s.cfg.QueueCapacity,
		QueuePolicy:    s.cfg.QueuePolicy,
		InitialBufSize: s.cfg.InitialBufSize,
		MaxBufSize:     s.cfg.MaxBufSize,
		MaxHeaderBytes: s.cfg.MaxHeaderBytes,
		ChunkSize:      s.cfg.ChunkSize,
		IdleTimeout:    s.cfg.IdleTimeout,
		SweepInterval:  s.cfg.SweepInterval,
		ServerName:     s.cfg.ServerName,
		Logger:         s.cfg.Logger,
	}, s.dispatch)

	return s.reactor.Bind()
}

// Run binds the listening socket and blocks in the reactor's event loop
// until Stop is called.
func (s *Server) Run() error {
	if err := s.bind(); err != nil {
		return err
	}
	return s.reactor.Run()
}

// Addr reports the address the server actually bound to, useful when
// Config.Port was 0 and the kernel picked an ephemeral port. Only valid
// after Run (or RunFor) has reached Bind.
func (s *Server) Addr() (string, int, error) {
	return s.reactor.Addr()
}

// Stop gracefully shuts the server down: the reactor stops accepting new
// events, already-queued worker tasks finish, and every connection is
// closed. Safe to call from a signal handler goroutine.
func (s *Server) Stop() {
	if s.reactor != nil {
		s.reactor.Stop()
	}
}

// RunFor is a convenience for tests and short-lived demos: it binds
// synchronously (so Addr is valid the moment this returns), then runs the
// event loop in a goroutine and returns a function that stops the server.
func (s *Server) RunFor(warmup time.Duration) (stop func(), runErr <-chan error, err error) {
	if err := s.bind(); err != nil {
		return nil, nil, err
	}
	errCh := make(chan error, 1)
	go func() { errCh <- s.reactor.Run() }()
	if warmup > 0 {
		time.Sleep(warmup)
	}
	return s.Stop, errCh, nil
}
