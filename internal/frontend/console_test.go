package frontend

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/hyperengineering/abacus/pkg/client"
)

func runConsole(t *testing.T, backend Backend, input string) string {
	t.Helper()
	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := NewConsole(backend).Run(ctx, strings.NewReader(input), &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return out.String()
}

func TestConsole_Calculates(t *testing.T) {
	backend := &mockBackend{result: &client.Result{Addition: 14, Subtraction: 6, Multiplication: 40, Division: "2.5"}}

	out := runConsole(t, backend, "10 4\n")

	for _, want := range []string{
		"10 + 4 = 14\n",
		"10 - 4 = 6\n",
		"10 * 4 = 40\n",
		"10 / 4 = 2.5\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConsole_WaitsForInflightAtEOF(t *testing.T) {
	backend := &mockBackend{delay: func(num1 float64) time.Duration {
		return time.Duration(num1) * 10 * time.Millisecond
	}}

	out := runConsole(t, backend, "5 1\n1 1\n")

	if got := len(backend.Calls()); got != 2 {
		t.Fatalf("backend calls = %d, want 2", got)
	}
	// The slower request was issued first but renders last.
	fast := strings.Index(out, "1 + 1 = 2")
	slow := strings.Index(out, "5 + 1 = 6")
	if fast < 0 || slow < 0 {
		t.Fatalf("output missing results:\n%s", out)
	}
	if fast > slow {
		t.Errorf("results rendered in request order, want completion order:\n%s", out)
	}
}

func TestConsole_RejectsBadInput(t *testing.T) {
	backend := &mockBackend{}

	out := runConsole(t, backend, "ten four\n1 2 3\n\n")

	if len(backend.Calls()) != 0 {
		t.Errorf("backend called for bad input: %v", backend.Calls())
	}
	if !strings.Contains(out, `cannot read "ten four" as two numbers`) {
		t.Errorf("output missing parse error:\n%s", out)
	}
	if strings.Count(out, consoleHelp) != 2 {
		t.Errorf("expected help at start and for the 3-field line:\n%s", out)
	}
}

func TestConsole_QuitStopsReading(t *testing.T) {
	backend := &mockBackend{}

	runConsole(t, backend, "quit\n1 2\n")

	if len(backend.Calls()) != 0 {
		t.Errorf("backend called after quit: %v", backend.Calls())
	}
}

func TestConsole_History(t *testing.T) {
	backend := &mockBackend{records: []client.Record{
		{Num1: 5, Num2: 0, Addition: 5, Subtraction: 5, Multiplication: 0, Division: client.DivisionByZero},
	}}

	out := runConsole(t, backend, "history\n")

	if !strings.Contains(out, "5, 0: 5 5 0 undefined (division by zero)") {
		t.Errorf("output missing history row:\n%s", out)
	}
}

func TestConsole_EmptyHistory(t *testing.T) {
	out := runConsole(t, &mockBackend{}, "history\n")
	if !strings.Contains(out, "no calculations yet") {
		t.Errorf("output = %q", out)
	}
}

func TestConsole_BackendErrors(t *testing.T) {
	backend := &mockBackend{
		calcErr:    errors.New("connection refused"),
		historyErr: errors.New("connection refused"),
	}

	out := runConsole(t, backend, "1 2\nhistory\n")

	if !strings.Contains(out, "1, 2: request failed: connection refused") {
		t.Errorf("output missing calculate failure:\n%s", out)
	}
	if !strings.Contains(out, "history failed: connection refused") {
		t.Errorf("output missing history failure:\n%s", out)
	}
}

func TestConsole_StopsOnContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewConsole(&mockBackend{}).Run(ctx, pr, io.Discard)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{2.5, "2.5"},
		{-3, "-3"},
		{1e21, "1000000000000000000000"},
		{math.NaN(), "overflow"},
	}
	for _, tt := range tests {
		if got := formatFloat(tt.in); got != tt.want {
			t.Errorf("formatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
