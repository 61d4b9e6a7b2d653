package http

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"google.golang.org/protobuf/proto"
)

// HandlerFunc serves one request and returns the response to write back.
type HandlerFunc func(req *Request) *Response

// Request is one parsed HTTP request, owned by its connection for a single cycle.
type Request struct {
	Method  string
	Path    string
	Version string

	// Params holds the raw tokens that followed '?' and '&' in the target.
	Params []string

	Headers map[string]string

	// Body is set only when a Content-Length header was received.
	Body    []byte
	HasBody bool

	// Matches holds the capture groups of the route that matched, whole match first.
	Matches []string
}

// NewRequest returns an empty request ready for parsing.
func NewRequest() *Request {
	return &Request{
		Headers: make(map[string]string, 8),
	}
}

// Header returns the value of the named header, trying an exact match first.
func (r *Request) Header(name string) string {
	if v, ok := r.Headers[name]; ok {
		return v
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// ContentLength returns the declared body length and whether the header was present.
func (r *Request) ContentLength() (int, bool, error) {
	v, ok := r.Headers[HeaderContentLength]
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0, true, ErrBadContentLength
	}
	return n, true, nil
}

// KeepAlive reports whether the connection may serve another request after this one.
func (r *Request) KeepAlive() bool {
	v, err := strconv.ParseFloat(r.Version, 64)
	if err != nil {
		return false
	}
	return v > 1.05
}

// Match returns capture group i of the matching route, or "" if absent.
func (r *Request) Match(i int) string {
	if i < 0 || i >= len(r.Matches) {
		return ""
	}
	return r.Matches[i]
}

// BodyReader exposes the body as a stream.
func (r *Request) BodyReader() io.Reader {
	return bytes.NewReader(r.Body)
}

// BindJSON decodes the body as JSON into v.
func (r *Request) BindJSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// BindProto decodes the body as a binary protobuf message.
func (r *Request) BindProto(m proto.Message) error {
	return proto.Unmarshal(r.Body, m)
}
