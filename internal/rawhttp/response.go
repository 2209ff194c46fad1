package rawhttp

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
)

const (
	contentTypeJSON = "application/json"
	contentTypeText = "text/plain; charset=utf-8"
)

// Response is a complete response, written in one piece.
type Response struct {
	Status      int
	ContentType string
	RequestID   string
	Body        []byte
}

func jsonResponse(v any) *Response {
	body, err := json.Marshal(v)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, "")
	}
	return &Response{Status: http.StatusOK, ContentType: contentTypeJSON, Body: body}
}

// errorResponse builds a plain-text body of the status text, plus ": detail".
func errorResponse(status int, detail string) *Response {
	body := http.StatusText(status)
	if detail != "" {
		body += ": " + detail
	}
	return &Response{Status: status, ContentType: contentTypeText, Body: []byte(body)}
}

func notFound() *Response {
	return errorResponse(http.StatusNotFound, "")
}

// WriteTo writes the status line, the fixed header set and the body.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	var b bytes.Buffer
	b.WriteString("HTTP/1.1 ")
	b.WriteString(strconv.Itoa(r.Status))
	b.WriteByte(' ')
	b.WriteString(http.StatusText(r.Status))
	b.WriteString("\r\n")

	writeHeader(&b, "Content-Type", r.ContentType)
	writeHeader(&b, "Content-Length", strconv.Itoa(len(r.Body)))
	writeHeader(&b, "Access-Control-Allow-Origin", "*")
	writeHeader(&b, "Connection", "close")
	if r.RequestID != "" {
		writeHeader(&b, "X-Request-ID", r.RequestID)
	}
	b.WriteString("\r\n")
	b.Write(r.Body)

	return b.WriteTo(w)
}

func writeHeader(b *bytes.Buffer, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\r\n")
}
