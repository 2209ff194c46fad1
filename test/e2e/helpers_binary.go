//go:build e2e

package e2e

import (
	"database/sql"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// abacusServer manages a running abacus server process.
type abacusServer struct {
	cmd       *exec.Cmd
	dataDir   string
	address   string
	transport string
	logFile   string
}

// startAbacus launches the abacus binary with the given transport and waits
// for it to answer. It is configured entirely via environment variables.
func startAbacus(t *testing.T, transport string) *abacusServer {
	t.Helper()
	requireAbacus(t)
	return launch(t, t.TempDir(), transport, "abacus.log")
}

func launch(t *testing.T, dataDir, transport, logName string) *abacusServer {
	t.Helper()

	address := fmt.Sprintf("127.0.0.1:%d", freePort(t))
	logFile := filepath.Join(dataDir, logName)

	cmd := exec.Command(abacusBin)
	cmd.Env = append(os.Environ(),
		"ABACUS_ADDRESS="+address,
		"ABACUS_TRANSPORT="+transport,
		"ABACUS_DB_PATH="+filepath.Join(dataDir, "calculations.db"),
		"ABACUS_METRICS_ADDRESS=off",
		"ABACUS_CONFIG_PATH="+filepath.Join(dataDir, "nonexistent.yaml"), // skip YAML file
	)

	lf, err := os.Create(logFile)
	if err != nil {
		t.Fatalf("create log file: %v", err)
	}
	cmd.Stdout = lf
	cmd.Stderr = lf

	if err := cmd.Start(); err != nil {
		lf.Close()
		t.Fatalf("start abacus: %v", err)
	}

	s := &abacusServer{
		cmd:       cmd,
		dataDir:   dataDir,
		address:   address,
		transport: transport,
		logFile:   logFile,
	}

	t.Cleanup(func() {
		s.stop()
		lf.Close()
	})

	if err := s.waitHealthy(10 * time.Second); err != nil {
		t.Fatalf("abacus not healthy: %v", err)
	}

	return s
}

func (s *abacusServer) stop() {
	if s.cmd != nil && s.cmd.Process != nil && s.cmd.ProcessState == nil {
		_ = s.cmd.Process.Signal(os.Interrupt)
		_ = s.cmd.Wait()
	}
}

// restartOnSameData stops the server and starts a new one on the same database.
func (s *abacusServer) restartOnSameData(t *testing.T) *abacusServer {
	t.Helper()

	s.stop()
	time.Sleep(200 * time.Millisecond) // allow port release

	return launch(t, s.dataDir, s.transport, "abacus-restart.log")
}

func (s *abacusServer) baseURL() string {
	return fmt.Sprintf("http://%s", s.address)
}

func (s *abacusServer) waitHealthy(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := s.baseURL() + "/history"

	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("abacus not healthy after %s", timeout)
}

// get performs a GET and returns status, headers and body.
func (s *abacusServer) get(t *testing.T, path string) (int, http.Header, string) {
	t.Helper()
	resp, err := http.Get(s.baseURL() + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return resp.StatusCode, resp.Header, string(body)
}

// rowCount reads the calculations table directly.
func (s *abacusServer) rowCount(t *testing.T) int {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(s.dataDir, "calculations.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM calculations").Scan(&n); err != nil {
		t.Fatalf("count calculations: %v", err)
	}
	return n
}

// logContains reports whether the server log mentions substr.
func (s *abacusServer) logContains(t *testing.T, substr string) bool {
	t.Helper()
	data, err := os.ReadFile(s.logFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return strings.Contains(string(data), substr)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

var transports = []string{"chi", "raw"}
