package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchktools/reactor-http/core/http"
)

func text(s string) http.HandlerFunc {
	return func(*http.Request) *http.Response { return http.NewText(s) }
}

func get(path string) *http.Request {
	return &http.Request{Method: "GET", Path: path, Version: "1.1", Headers: map[string]string{}}
}

func TestRouterBasic(t *testing.T) {
	r := New()
	r.MustAdd("/", "GET", text("root"))
	r.MustAdd("/hello", "GET", text("hello"))

	tests := []struct {
		path string
		code int
		body string
	}{
		{"/", 200, "root"},
		{"/hello", 200, "hello"},
		{"/hello/", 404, ""},
		{"/missing", 404, ""},
		{"", 404, ""},
	}

	for _, tt := range tests {
		res := r.Dispatch(get(tt.path))
		assert.Equal(t, tt.code, res.Code, tt.path)
		assert.Equal(t, tt.body, string(res.Body), tt.path)
	}
}

func TestRouterFullMatchOnly(t *testing.T) {
	r := New()
	r.MustAdd("/ab", "GET", text("ab"))

	assert.Equal(t, 404, r.Dispatch(get("/abc")).Code)
	assert.Equal(t, 404, r.Dispatch(get("/x/ab")).Code)
	assert.Equal(t, 200, r.Dispatch(get("/ab")).Code)

	r2 := New()
	r2.MustAdd("/a|/b", "GET", text("alt"))
	assert.Equal(t, 200, r2.Dispatch(get("/b")).Code, "alternation is anchored as a whole")
	assert.Equal(t, 404, r2.Dispatch(get("/bc")).Code)
}

func TestRouterRegistrationOrderWins(t *testing.T) {
	r := New()
	r.MustAdd("/a.*", "GET", text("P1"))
	r.MustAdd("/ab", "GET", text("P2"))

	assert.Equal(t, "P1", string(r.Dispatch(get("/ab")).Body))
	assert.Equal(t, []string{"/a.*", "/ab"}, r.Patterns())
}

// A pattern that matches the path but lacks the method does not stop the
// search; a later pattern serving the method wins, and a total miss is 404.
func TestRouterMethodMismatchFallsThrough(t *testing.T) {
	r := New()
	r.MustAdd("/items", "POST", text("create"))
	r.MustAdd("/it.*", "GET", text("list"))

	res := r.Dispatch(get("/items"))
	assert.Equal(t, 200, res.Code)
	assert.Equal(t, "list", string(res.Body))

	del := get("/items")
	del.Method = "DELETE"
	assert.Equal(t, 404, r.Dispatch(del).Code, "no 405")
}

func TestRouterCaptures(t *testing.T) {
	r := New()
	r.MustAdd(`/users/([0-9]+)/posts/(\w+)`, "GET", func(req *http.Request) *http.Response {
		return http.NewText(req.Match(1) + ":" + req.Match(2))
	})

	req := get("/users/42/posts/intro")
	res := r.Dispatch(req)
	assert.Equal(t, "42:intro", string(res.Body))
	assert.Equal(t, []string{"/users/42/posts/intro", "42", "intro"}, req.Matches)
}

func TestRouterSamePatternKeepsPosition(t *testing.T) {
	r := New()
	r.MustAdd("/x", "GET", text("get"))
	r.MustAdd("/.*", "GET", text("any"))
	r.MustAdd("/x", "PUT", text("put"))

	assert.Equal(t, []string{"/x", "/.*"}, r.Patterns())

	put := get("/x")
	put.Method = "PUT"
	assert.Equal(t, "put", string(r.Dispatch(put).Body))
	assert.Equal(t, "get", string(r.Dispatch(get("/x")).Body))
}

func TestRouterHandlerFailures(t *testing.T) {
	r := New()
	r.MustAdd("/panic", "GET", func(*http.Request) *http.Response { panic("boom") })
	r.MustAdd("/nil", "GET", func(*http.Request) *http.Response { return nil })

	res := r.Dispatch(get("/panic")).Commit()
	assert.Equal(t, 500, res.Code)
	assert.Equal(t, "500 Internal Server Error\r\n", string(res.Body))

	assert.Equal(t, 500, r.Dispatch(get("/nil")).Code)
}

func TestRouterAddErrors(t *testing.T) {
	r := New()
	assert.ErrorIs(t, r.Add("/(", "GET", text("x")), ErrInvalidPattern)
	assert.ErrorIs(t, r.Add("/ok", "", text("x")), ErrEmptyMethod)

	require.NoError(t, r.Add("/ok", "GET", text("x")))
	r.Freeze()
	assert.ErrorIs(t, r.Add("/late", "GET", text("x")), ErrRouterFrozen)
	assert.Panics(t, func() { r.MustAdd("/late", "GET", text("x")) })
}

func BenchmarkRouterDispatch(b *testing.B) {
	r := New()
	r.MustAdd("/health", "GET", text("ok"))
	r.MustAdd(`/users/([0-9]+)`, "GET", text("user"))
	r.Freeze()

	req := get("/users/123")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Dispatch(req)
	}
}
