package http

// statusLines maps every supported code to its literal wire status line.
var statusLines = map[int]string{
	200: "HTTP/1.1 200 OK\r\n",
	201: "HTTP/1.1 201 Created\r\n",
	202: "HTTP/1.1 202 Accepted\r\n",
	204: "HTTP/1.1 204 No Content\r\n",

	300: "HTTP/1.1 300 Multiple Choices\r\n",
	301: "HTTP/1.1 301 Moved Permanently\r\n",
	302: "HTTP/1.1 302 Moved Temporarily\r\n",
	304: "HTTP/1.1 304 Not Modified\r\n",

	400: "HTTP/1.1 400 Bad Request\r\n",
	401: "HTTP/1.1 401 Unauthorized\r\n",
	403: "HTTP/1.1 403 Forbidden\r\n",
	404: "HTTP/1.1 404 Not Found\r\n",

	500: "HTTP/1.1 500 Internal Server Error\r\n",
	501: "HTTP/1.1 501 Not Implemented\r\n",
	502: "HTTP/1.1 502 Bad Gateway\r\n",
	503: "HTTP/1.1 503 Service Unavailable\r\n",
}

// statusPrefix is the "HTTP/1.1 " part stripped when a status line is used as a body.
const statusPrefix = len("HTTP/1.1 ")

// StatusLine returns the status line for code, CRLF included.
func StatusLine(code int) (string, bool) {
	line, ok := statusLines[code]
	return line, ok
}

// KnownStatus reports whether code has an entry in the status table.
func KnownStatus(code int) bool {
	_, ok := statusLines[code]
	return ok
}

// statusText returns the reason phrase body for code ("404 Not Found\r\n").
func statusText(code int) string {
	line, ok := statusLines[code]
	if !ok {
		return ""
	}
	return line[statusPrefix:]
}
