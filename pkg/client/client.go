// Package client is a Go client for the abacus calculation API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DivisionByZero is the division value reported when the divisor is zero.
const DivisionByZero = "undefined (division by zero)"

// ErrUnexpectedStatus is wrapped by StatusError.
var ErrUnexpectedStatus = errors.New("unexpected status")

// maxErrorBody caps how much of an error response is kept in StatusError.
const maxErrorBody = 4 << 10

// StatusError reports a non-200 response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: %d", ErrUnexpectedStatus, e.StatusCode)
	}
	return fmt.Sprintf("%s: %d: %s", ErrUnexpectedStatus, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// Float decodes a JSON number, reading null as NaN. The server sends null for
// results that overflow float64.
type Float float64

// UnmarshalJSON implements json.Unmarshaler for Float.
func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// MarshalJSON implements json.Marshaler for Float.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// Result is the response of GET /calculate.
type Result struct {
	Addition       Float  `json:"addition"`
	Subtraction    Float  `json:"subtraction"`
	Multiplication Float  `json:"multiplication"`
	Division       string `json:"division"`
}

// Record is one entry of GET /history.
type Record struct {
	Num1           Float  `json:"num1"`
	Num2           Float  `json:"num2"`
	Addition       Float  `json:"addition"`
	Subtraction    Float  `json:"subtraction"`
	Multiplication Float  `json:"multiplication"`
	Division       string `json:"division"`
}

// Client talks to one abacus server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL (for example
// "http://127.0.0.1:8080"). A zero timeout means no timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// Calculate asks the server to compute and store num1 op num2.
func (c *Client) Calculate(ctx context.Context, num1, num2 float64) (*Result, error) {
	q := url.Values{}
	q.Set("num1", strconv.FormatFloat(num1, 'g', -1, 64))
	q.Set("num2", strconv.FormatFloat(num2, 'g', -1, 64))

	var result Result
	if err := c.get(ctx, "/calculate?"+q.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// History returns every stored calculation in insertion order.
func (c *Client) History(ctx context.Context) ([]Record, error) {
	var records []Record
	if err := c.get(ctx, "/history", &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// Ping checks that the server answers GET /history.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, "/history")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	resp, err := c.do(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// do sends a GET and returns the response only when the status is 200.
func (c *Client) do(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(bytes.TrimSpace(body)),
		}
	}
	return resp, nil
}
