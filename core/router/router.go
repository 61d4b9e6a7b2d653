package router

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"runtime/debug"

	"github.com/searchktools/reactor-http/core/http"
	"github.com/searchktools/reactor-http/logging"
)

var (
	ErrRouterFrozen   = errors.New("router is frozen")
	ErrInvalidPattern = errors.New("invalid route pattern")
	ErrEmptyMethod    = errors.New("empty route method")
)

// route binds one path pattern to its per-method handlers.
type route struct {
	pattern  string
	re       *regexp.Regexp
	handlers map[string]http.HandlerFunc // method -> handler
}

// Router is an ordered table of regular expression routes. Registration order
// is match priority. Once frozen the table is only read and may be shared by
// any number of goroutines.
type Router struct {
	routes []*route
	index  map[string]*route // pattern -> route
	frozen bool
	logger *slog.Logger
}

// New creates an empty router.
func New() *Router {
	return &Router{
		index:  make(map[string]*route),
		logger: logging.Nop(),
	}
}

// SetLogger sets the logger used to report handler failures.
func (r *Router) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = logging.Nop()
	}
	r.logger = logger
}

// Add binds handler to method on pattern. The pattern must match the whole
// request path. Registering a known pattern again keeps its original position.
func (r *Router) Add(pattern, method string, handler http.HandlerFunc) error {
	if r.frozen {
		return ErrRouterFrozen
	}
	if method == "" {
		return ErrEmptyMethod
	}

	rt, ok := r.index[pattern]
	if !ok {
		re, err := regexp.Compile(`^(?:` + pattern + `)$`)
		if err != nil {
			return fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
		}
		rt = &route{
			pattern:  pattern,
			re:       re,
			handlers: make(map[string]http.HandlerFunc),
		}
		r.index[pattern] = rt
		r.routes = append(r.routes, rt)
	}
	rt.handlers[method] = handler
	return nil
}

// MustAdd is like Add but panics on error.
func (r *Router) MustAdd(pattern, method string, handler http.HandlerFunc) {
	if err := r.Add(pattern, method, handler); err != nil {
		panic(err)
	}
}

// Freeze stops further registration.
func (r *Router) Freeze() {
	r.frozen = true
}

// Patterns returns the registered patterns in match order.
func (r *Router) Patterns() []string {
	out := make([]string, len(r.routes))
	for i, rt := range r.routes {
		out[i] = rt.pattern
	}
	return out
}

// Dispatch runs the handler of the first pattern that fully matches req.Path
// and has req.Method bound. A pattern that matches but lacks the method does
// not end the search: the next patterns are still tried, and a request no
// pattern serves gets 404 rather than 405.
func (r *Router) Dispatch(req *http.Request) *http.Response {
	for _, rt := range r.routes {
		m := rt.re.FindStringSubmatch(req.Path)
		if m == nil {
			continue
		}
		h, ok := rt.handlers[req.Method]
		if !ok {
			continue
		}
		req.Matches = m
		return r.invoke(rt, h, req)
	}

	return http.NewStatus(404)
}

// invoke calls h, turning a panic or a nil result into a 500.
func (r *Router) invoke(rt *route, h http.HandlerFunc, req *http.Request) (res *http.Response) {
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("handler panicked",
				"pattern", rt.pattern,
				"method", req.Method,
				"path", req.Path,
				"panic", v,
				"stack", string(debug.Stack()))
			res = http.NewStatus(500)
		}
	}()

	res = h(req)
	if res == nil {
		r.logger.Error("handler returned no response", "pattern", rt.pattern, "method", req.Method)
		return http.NewStatus(500)
	}
	return res
}
