package http

import (
	"bytes"
	"errors"
	"strings"
)

// Header names the engine looks at.
const (
	HeaderContentLength = "Content-Length"
	HeaderContentType   = "Content-Type"
)

// HeaderTerminator ends the request line and header block.
var HeaderTerminator = []byte("\r\n\r\n")

var (
	ErrMalformedRequest = errors.New("malformed HTTP request")
	ErrBadContentLength = errors.New("invalid Content-Length")
)

// Parse builds a Request from head, the buffered bytes up to and including
// the header terminator. The body is never read here.
//
// A request line that does not look like "METHOD TARGET HTTP/VERSION" leaves
// the request empty; a line missing its CR stops parsing. In both cases the
// partial request is returned together with ErrMalformedRequest so callers can
// still route it.
func Parse(head []byte) (*Request, error) {
	req := NewRequest()

	line, rest, ok := nextLine(head)
	if !ok {
		return req, ErrMalformedRequest
	}

	method, target, version, ok := parseRequestLine(line)
	if !ok {
		return req, ErrMalformedRequest
	}
	req.Method = method
	req.Version = version
	parseTarget(req, target)

	for {
		line, rest, ok = nextLine(rest)
		if !ok {
			return req, ErrMalformedRequest
		}
		name, value, ok := parseHeaderLine(line)
		if !ok {
			break
		}
		req.Headers[name] = value
	}

	return req, nil
}

// nextLine cuts one CRLF terminated line off data.
func nextLine(data []byte) (line, rest []byte, ok bool) {
	lineEnd := bytes.IndexByte(data, '\n')
	if lineEnd == -1 {
		return nil, data, false
	}
	line = data[:lineEnd]
	if len(line) == 0 || line[len(line)-1] != '\r' {
		return nil, data, false
	}
	return line[:len(line)-1], data[lineEnd+1:], true
}

// parseRequestLine accepts exactly three space separated fields, the last one
// starting with "HTTP/".
func parseRequestLine(line []byte) (method, target, version string, ok bool) {
	sp1 := bytes.IndexByte(line, ' ')
	if sp1 == -1 {
		return "", "", "", false
	}
	sp2 := bytes.IndexByte(line[sp1+1:], ' ')
	if sp2 == -1 {
		return "", "", "", false
	}
	sp2 += sp1 + 1

	proto := line[sp2+1:]
	if bytes.IndexByte(proto, ' ') != -1 || !bytes.HasPrefix(proto, []byte("HTTP/")) {
		return "", "", "", false
	}

	return string(line[:sp1]), string(line[sp1+1 : sp2]), string(proto[len("HTTP/"):]), true
}

// parseTarget splits the request target into the path and raw query tokens.
func parseTarget(req *Request, target string) {
	if strings.IndexByte(target, '?') == -1 {
		req.Path = target
		return
	}

	tokens := strings.FieldsFunc(target, func(r rune) bool {
		return r == '?' || r == '&'
	})
	if len(tokens) == 0 {
		return
	}
	req.Path = tokens[0]
	req.Params = append(req.Params, tokens[1:]...)
}

// parseHeaderLine matches "NAME: VALUE"; the space after the colon is optional.
func parseHeaderLine(line []byte) (name, value string, ok bool) {
	colon := bytes.IndexByte(line, ':')
	if colon == -1 {
		return "", "", false
	}
	v := line[colon+1:]
	if len(v) > 0 && v[0] == ' ' {
		v = v[1:]
	}
	return string(line[:colon]), string(v), true
}
