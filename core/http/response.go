package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"
	"google.golang.org/protobuf/proto"
)

const (
	headerContentLength = "content-length"
	headerContentType   = "content-type"

	mimeJSON     = "application/json"
	mimeProtobuf = "application/x-protobuf"
)

var ErrInvalidHeader = errors.New("invalid response header")

// Response is a status code, headers and body waiting to be committed and written.
type Response struct {
	Code    int
	Headers map[string]string
	Body    []byte
}

// NewText returns a 200 response carrying s.
func NewText(s string) *Response {
	return &Response{Code: 200, Headers: make(map[string]string), Body: []byte(s)}
}

// NewBytes returns a 200 response carrying b.
func NewBytes(b []byte) *Response {
	return &Response{Code: 200, Headers: make(map[string]string), Body: b}
}

// NewStatus returns an empty response with the given code. An unknown code is
// a programming error and panics.
func NewStatus(code int) *Response {
	if !KnownStatus(code) {
		panic(fmt.Sprintf("http: unknown status code %d", code))
	}
	return &Response{Code: code, Headers: make(map[string]string)}
}

// NewJSON encodes v as the body of a 200 response.
func NewJSON(v any) (*Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json body: %w", err)
	}
	res := NewBytes(data)
	res.Headers[headerContentType] = mimeJSON
	return res, nil
}

// NewProto encodes m as the body of a 200 response.
func NewProto(m proto.Message) (*Response, error) {
	data, err := proto.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode protobuf body: %w", err)
	}
	res := NewBytes(data)
	res.Headers[headerContentType] = mimeProtobuf
	return res, nil
}

// WithCode sets the status code and returns r for chaining.
func (r *Response) WithCode(code int) *Response {
	r.Code = code
	return r
}

// SetHeader sets a header after checking it can be written on the wire.
func (r *Response) SetHeader(name, value string) error {
	if !httpguts.ValidHeaderFieldName(name) || !httpguts.ValidHeaderFieldValue(value) {
		return fmt.Errorf("%w: %q", ErrInvalidHeader, name)
	}
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[name] = value
	return nil
}

// Commit fills the defaults that are still missing: the reason phrase as the
// body of an empty error response, and content-length for a non-empty body.
// Committing twice changes nothing.
func (r *Response) Commit() *Response {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	if r.Code >= 400 && len(r.Body) == 0 {
		r.Body = []byte(statusText(r.Code))
	}
	if len(r.Body) > 0 && !r.hasHeader(headerContentLength) {
		r.Headers[headerContentLength] = strconv.Itoa(len(r.Body))
	}
	return r
}

func (r *Response) hasHeader(name string) bool {
	for k := range r.Headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

// AppendTo serializes r onto b: status line, headers, blank line, body.
// Header order is sorted by name.
func (r *Response) AppendTo(b []byte) []byte {
	line, _ := StatusLine(r.Code)
	b = append(b, line...)

	names := make([]string, 0, len(r.Headers))
	for k := range r.Headers {
		names = append(names, k)
	}
	slices.Sort(names)

	for _, k := range names {
		b = append(b, k...)
		b = append(b, ": "...)
		b = append(b, r.Headers[k]...)
		b = append(b, "\r\n"...)
	}
	b = append(b, "\r\n"...)
	return append(b, r.Body...)
}

// Bytes returns the serialized response.
func (r *Response) Bytes() []byte {
	return r.AppendTo(make([]byte, 0, 128+len(r.Body)))
}
