/*
Package reactorhttp is a small HTTP/1.1 server built on a readiness reactor.

A fixed number of worker goroutines, each locked to an OS thread, wait on one
shared epoll (Linux) or kqueue (BSD/macOS) instance. Every socket is armed
one-shot, so exactly one worker advances a connection at a time. Requests are
routed by regular expressions that must match the whole path; the first
registered pattern that matches and has the request method bound wins.

# Quick Start

	package main

	import (
	    "context"

	    "github.com/searchktools/reactor-http/app"
	    "github.com/searchktools/reactor-http/config"
	    "github.com/searchktools/reactor-http/core/http"
	)

	func main() {
	    cfg := config.Default()
	    application := app.New(cfg)

	    engine := application.Engine()
	    engine.GET("/hello", func(*http.Request) *http.Response {
	        return http.NewText("hi")
	    })

	    engine.GET("/users/([0-9]+)", func(req *http.Request) *http.Response {
	        return http.NewText("user " + req.Match(1))
	    })

	    application.Run(context.Background())
	}

# Timeouts

Each connection carries one deadline at a time. The header budget covers the
wait for a complete request head; the content budget covers the body read and
the response write. A fired deadline shuts the socket down and the owning
worker closes it.

# Modules

  - app: Application lifecycle and signal handling
  - config: YAML configuration with defaults and validation
  - logging: slog logger construction
  - core: Engine, connection state machine and deadlines
  - core/http: Request parsing and response building
  - core/router: Regular expression routing
  - core/middleware: Handler middleware pipeline
  - core/observability: Per-route request timings
  - core/pools: Buffer and connection pooling
  - core/poller: I/O multiplexing (epoll/kqueue)
  - cmd/reactord: Demo server
*/
package reactorhttp
