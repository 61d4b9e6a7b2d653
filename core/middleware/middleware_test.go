package middleware

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/searchktools/reactor-http/core/http"
	"github.com/searchktools/reactor-http/logging"
)

func ok(*http.Request) *http.Response { return http.NewText("ok") }

func TestPipelineOrder(t *testing.T) {
	var order []int
	mark := func(n int) Middleware {
		return func(next http.HandlerFunc) http.HandlerFunc {
			return func(req *http.Request) *http.Response {
				order = append(order, n)
				return next(req)
			}
		}
	}

	p := NewPipeline().Use(mark(1), mark(2)).Use(mark(3))
	assert.Equal(t, 3, p.Len())

	res := p.Then(ok)(&http.Request{Method: "GET", Path: "/"})
	assert.Equal(t, "ok", string(res.Body))
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestPipelineEmpty(t *testing.T) {
	res := NewPipeline().Then(ok)(&http.Request{})
	assert.Equal(t, "ok", string(res.Body))
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelInfo, Output: &buf})

	h := Logger(logger)(ok)
	h(&http.Request{Method: "GET", Path: "/logged"})

	assert.Contains(t, buf.String(), "path=/logged")
	assert.Contains(t, buf.String(), "status=200")
}

func TestCORS(t *testing.T) {
	called := false
	h := CORS()(func(req *http.Request) *http.Response {
		called = true
		return http.NewText("body")
	})

	res := h(&http.Request{Method: "OPTIONS", Path: "/x"})
	assert.False(t, called, "preflight short-circuits")
	assert.Equal(t, 204, res.Code)
	assert.Equal(t, "*", res.Headers["access-control-allow-origin"])

	res = h(&http.Request{Method: "GET", Path: "/x"})
	assert.True(t, called)
	assert.Equal(t, "body", string(res.Body))
	assert.Equal(t, "*", res.Headers["access-control-allow-origin"])
}

func TestRequestID(t *testing.T) {
	h := RequestID()(ok)
	first := h(&http.Request{}).Headers["x-request-id"]
	second := h(&http.Request{}).Headers["x-request-id"]
	assert.Equal(t, "1", first)
	assert.Equal(t, "2", second)

	nilHandler := RequestID()(func(*http.Request) *http.Response { return nil })
	assert.Nil(t, nilHandler(&http.Request{}))
}
