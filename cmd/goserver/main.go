// Command goserver is a minimal illustrative wiring of the goserver
// package: a real deployment would have its own main with its own routes,
// middleware, and signal handling. This only exists so the module has
// something runnable.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/kfcemployee/goserver"
	"github.com/kfcemployee/goserver/internal/netlog"
)

func main() {
	cfg := goserver.DefaultConfig()
	cfg.Logger = netlog.New(zerolog.InfoLevel)

	srv := goserver.New(cfg)

	srv.Use(func(next goserver.Handler) goserver.Handler {
		return func(req *goserver.Request, resp *goserver.ResponseBuilder) {
			next(req, resp)
			cfg.Logger.Info().
				Str("method", req.Method.String()).
				Bytes("path", req.Path).
				Int("status", resp.StatusCode()).
				Msg("request handled")
		}
	})

	srv.Get("/healthz", func(req *goserver.Request, resp *goserver.ResponseBuilder) {
		resp.Status(200).Text("ok")
	})

	srv.Static("/static", "./public")

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		srv.Stop()
	}()

	if err := srv.Run(); err != nil {
		cfg.Logger.Fatal().Err(err).Msg("server exited")
	}
}
