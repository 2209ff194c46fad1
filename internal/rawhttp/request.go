// Package rawhttp serves the calculation endpoints over a plain TCP listener,
// parsing HTTP/1.x request text by hand. Each connection carries exactly one
// request and is closed after the response is written.
package rawhttp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedRequest is returned for request text that is not HTTP/1.x.
var ErrMalformedRequest = errors.New("malformed request")

// Request is the parsed request line and headers. Bodies are never read.
type Request struct {
	Method   string
	Target   string
	Path     string
	RawQuery string
	Proto    string
	// Header keys are lower-cased; the first occurrence wins.
	Header map[string]string
}

// ReadRequest reads one request line and its header block from r.
// It returns io.EOF when the peer closed the connection before sending anything.
func ReadRequest(r *bufio.Reader) (*Request, error) {
	line, err := readLine(r)
	if err != nil {
		if errors.Is(err, io.EOF) && line == "" {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: read request line: %v", ErrMalformedRequest, err)
	}

	parts := strings.Split(line, " ")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: request line %q", ErrMalformedRequest, line)
	}
	if !strings.HasPrefix(parts[2], "HTTP/1.") {
		return nil, fmt.Errorf("%w: protocol %q", ErrMalformedRequest, parts[2])
	}

	req := &Request{
		Method: parts[0],
		Target: parts[1],
		Proto:  parts[2],
		Header: make(map[string]string),
	}
	req.Path, req.RawQuery = splitTarget(req.Target)

	for {
		line, err := readLine(r)
		if err != nil {
			return nil, fmt.Errorf("%w: read header: %v", ErrMalformedRequest, err)
		}
		if line == "" {
			break
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok || key == "" || strings.ContainsAny(key, " \t") {
			return nil, fmt.Errorf("%w: header %q", ErrMalformedRequest, line)
		}
		key = strings.ToLower(key)
		if _, seen := req.Header[key]; !seen {
			req.Header[key] = strings.TrimSpace(value)
		}
	}

	return req, nil
}

// readLine returns the next line without its LF or CRLF terminator.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return line, err
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

// splitTarget separates path and query, accepting origin-form ("/p?q") and
// absolute-form ("http://host/p?q") targets. Fragments are dropped.
func splitTarget(target string) (path, rawQuery string) {
	target, _, _ = strings.Cut(target, "#")
	if i := strings.Index(target, "://"); i >= 0 {
		rest := target[i+3:]
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			target = rest[j:]
		} else {
			target = "/"
		}
	}
	path, rawQuery, _ = strings.Cut(target, "?")
	return path, rawQuery
}
