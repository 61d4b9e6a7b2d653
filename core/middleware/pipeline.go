package middleware

import (
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/searchktools/reactor-http/core/http"
)

// Middleware wraps a handler with behaviour that runs around it
type Middleware func(next http.HandlerFunc) http.HandlerFunc

// Pipeline is an ordered list of middlewares; the first one added runs outermost
type Pipeline struct {
	handlers []Middleware
}

// NewPipeline creates a new middleware pipeline
func NewPipeline() *Pipeline {
	return &Pipeline{
		handlers: make([]Middleware, 0, 8),
	}
}

// Use adds middlewares to the pipeline
func (p *Pipeline) Use(mws ...Middleware) *Pipeline {
	p.handlers = append(p.handlers, mws...)
	return p
}

// Len returns the number of middlewares
func (p *Pipeline) Len() int {
	return len(p.handlers)
}

// Then wraps final with every middleware of the pipeline
func (p *Pipeline) Then(final http.HandlerFunc) http.HandlerFunc {
	h := final
	for i := len(p.handlers) - 1; i >= 0; i-- {
		h = p.handlers[i](h)
	}
	return h
}

// Common middleware implementations

// Logger logs method, path, status and handler latency of every request
func Logger(logger *slog.Logger) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(req *http.Request) *http.Response {
			start := time.Now()
			res := next(req)

			status := 0
			if res != nil {
				status = res.Code
			}
			logger.Info("request",
				"method", req.Method,
				"path", req.Path,
				"status", status,
				"duration", time.Since(start))
			return res
		}
	}
}

// CORS adds permissive CORS headers and answers preflight requests with 204
func CORS() Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(req *http.Request) *http.Response {
			var res *http.Response
			if req.Method == "OPTIONS" {
				res = http.NewStatus(204)
			} else if res = next(req); res == nil {
				return nil
			}

			if res.Headers == nil {
				res.Headers = make(map[string]string)
			}
			res.Headers["access-control-allow-origin"] = "*"
			res.Headers["access-control-allow-methods"] = "GET, POST, PUT, DELETE, OPTIONS"
			res.Headers["access-control-allow-headers"] = "Content-Type, Authorization"
			return res
		}
	}
}

// RequestID tags every response with a process-unique sequence number
func RequestID() Middleware {
	var counter atomic.Uint64

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(req *http.Request) *http.Response {
			res := next(req)
			if res == nil {
				return nil
			}
			if res.Headers == nil {
				res.Headers = make(map[string]string)
			}
			res.Headers["x-request-id"] = strconv.FormatUint(counter.Add(1), 10)
			return res
		}
	}
}
