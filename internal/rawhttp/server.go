package rawhttp

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hyperengineering/abacus/internal/calc"
	"github.com/hyperengineering/abacus/internal/metrics"
	"github.com/hyperengineering/abacus/internal/types"
	"github.com/oklog/ulid/v2"
)

// TransportName labels metrics recorded by this package.
const TransportName = "raw"

const (
	lingerTimeout = 500 * time.Millisecond
	lingerLimit   = 64 << 10
)

// ErrServerClosed is returned by Serve after Shutdown, matching net/http.
var ErrServerClosed = http.ErrServerClosed

// Service is the calculation flow served over raw connections.
type Service interface {
	Calculate(ctx context.Context, rawQuery string) (*types.CalculationResult, error)
	History(ctx context.Context) ([]types.CalculationRecord, error)
}

// Server accepts connections and answers one request on each.
type Server struct {
	Addr         string
	Service      Service
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener
	closed   bool
	conns    sync.WaitGroup
}

// ListenAndServe listens on s.Addr and serves until Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln, handling each in its own goroutine.
// A failing connection never stops the loop. Serve always returns a non-nil
// error; after Shutdown it is ErrServerClosed.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	s.listener = ln
	s.mu.Unlock()

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			backoff = nextBackoff(backoff)
			slog.Warn("accept failed",
				"component", "rawhttp",
				"error", err,
				"retry_in", backoff,
			)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		// Registering under mu orders every Add before the Wait in Shutdown.
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return ErrServerClosed
		}
		s.conns.Add(1)
		s.mu.Unlock()

		go func() {
			defer s.conns.Done()
			s.handleConn(conn)
		}()
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	if d *= 2; d > time.Second {
		d = time.Second
	}
	return d
}

// Shutdown stops accepting connections and waits for in-flight requests
// to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) handleConn(conn net.Conn) {
	defer closeConn(conn)

	start := time.Now()
	requestID := ulid.Make().String()

	if s.ReadTimeout > 0 {
		conn.SetReadDeadline(start.Add(s.ReadTimeout))
	}

	req, err := ReadRequest(bufio.NewReader(conn))
	if errors.Is(err, io.EOF) {
		return
	}

	var resp *Response
	method, path := "", ""
	if err != nil {
		slog.Debug("unparseable request",
			"component", "rawhttp",
			"error", err,
			"remote_addr", conn.RemoteAddr().String(),
			"request_id", requestID,
		)
		resp = notFound()
	} else {
		method, path = req.Method, req.Path
		resp = s.dispatch(requestID, req)
	}
	resp.RequestID = requestID

	if s.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.WriteTimeout))
	}
	if _, err := resp.WriteTo(conn); err != nil {
		slog.Warn("write response failed",
			"component", "rawhttp",
			"error", err,
			"request_id", requestID,
		)
	}

	elapsed := time.Since(start)
	metrics.ObserveRequest(TransportName, metrics.RouteFor(path), resp.Status, elapsed)
	slog.Info("request",
		"transport", TransportName,
		"method", method,
		"path", path,
		"status", resp.Status,
		"duration_ms", elapsed.Milliseconds(),
		"request_id", requestID,
	)
}

// closeConn half-closes the write side and drains what the peer still sends,
// so unread request bytes do not turn the close into a reset that discards
// the response.
func closeConn(conn net.Conn) {
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.CloseWrite()
		tc.SetReadDeadline(time.Now().Add(lingerTimeout))
		io.Copy(io.Discard, io.LimitReader(tc, lingerLimit))
	}
	conn.Close()
}

// dispatch routes a parsed request. Panics become 500 responses.
func (s *Server) dispatch(requestID string, req *Request) (resp *Response) {
	defer func() {
		if recovered := recover(); recovered != nil {
			slog.Error("panic recovered",
				"error", recovered,
				"stack", string(debug.Stack()),
				"path", req.Path,
				"method", req.Method,
				"request_id", requestID,
			)
			resp = errorResponse(http.StatusInternalServerError, "")
		}
	}()

	if req.Method != http.MethodGet {
		return notFound()
	}

	ctx := context.Background()
	switch req.Path {
	case "/calculate":
		result, err := s.Service.Calculate(ctx, req.RawQuery)
		if err != nil {
			slog.Error("calculate failed", "error", err, "query", req.RawQuery, "request_id", requestID)
			return errorFor(err)
		}
		return jsonResponse(result)
	case "/history":
		records, err := s.Service.History(ctx)
		if err != nil {
			slog.Error("history failed", "error", err, "request_id", requestID)
			return errorFor(err)
		}
		if records == nil {
			records = []types.CalculationRecord{}
		}
		return jsonResponse(records)
	default:
		return notFound()
	}
}

// statusFor maps service errors to response status codes.
func statusFor(err error) int {
	if errors.Is(err, calc.ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func errorFor(err error) *Response {
	status := statusFor(err)
	if status == http.StatusBadRequest {
		return errorResponse(status, err.Error())
	}
	return errorResponse(status, "")
}
