//go:build e2e

package e2e

import (
	"bufio"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

// Failure & resilience tests against the real binary.

// TestResilience_HistorySurvivesRestart verifies records persist across processes.
func TestResilience_HistorySurvivesRestart(t *testing.T) {
	srv := startAbacus(t, "chi")
	srv.get(t, "/calculate?num1=7&num2=2")
	srv.get(t, "/calculate?num1=8&num2=0")

	restarted := srv.restartOnSameData(t)

	_, _, body := restarted.get(t, "/history")
	if !strings.Contains(body, `"division":"3.5"`) || !strings.Contains(body, "undefined (division by zero)") {
		t.Errorf("history after restart = %s", body)
	}

	// New ids continue after the old ones.
	restarted.get(t, "/calculate?num1=1&num2=1")
	if n := restarted.rowCount(t); n != 3 {
		t.Errorf("rows = %d, want 3", n)
	}
}

// TestResilience_RawSurvivesGarbage verifies malformed and abandoned
// connections never stop the raw accept loop.
func TestResilience_RawSurvivesGarbage(t *testing.T) {
	srv := startAbacus(t, "raw")

	// Connect and hang up.
	for i := 0; i < 5; i++ {
		conn, err := net.Dial("tcp", srv.address)
		if err != nil {
			t.Fatal(err)
		}
		conn.Close()
	}

	// Garbage request line.
	conn, err := net.Dial("tcp", srv.address)
	if err != nil {
		t.Fatal(err)
	}
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	conn.Write([]byte("NOT-HTTP\r\n\r\n"))
	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	resp.Body.Close()
	conn.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("garbage request = %d, want 404", resp.StatusCode)
	}

	status, _, _ := srv.get(t, "/calculate?num1=1&num2=1")
	if status != http.StatusOK {
		t.Errorf("status after garbage = %d, want 200", status)
	}
}

// TestResilience_GracefulShutdownLogged verifies SIGINT runs the shutdown sequence.
func TestResilience_GracefulShutdownLogged(t *testing.T) {
	srv := startAbacus(t, "chi")
	srv.get(t, "/calculate?num1=1&num2=2")
	srv.stop()

	if code := srv.cmd.ProcessState.ExitCode(); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	for _, msg := range []string{"shutdown initiated", "shutdown complete"} {
		if !srv.logContains(t, msg) {
			t.Errorf("log missing %q", msg)
		}
	}
}
