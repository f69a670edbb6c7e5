package ipc

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/xveil/internal/lock"
)

func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "xveil-ipc")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func TestTrackerCountsFailures(t *testing.T) {
	tr := NewTracker()
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return start }

	tr.Record(lock.Locked)
	tr.now = func() time.Time { return start.Add(time.Hour) }
	tr.Record(lock.Failed)
	tr.Record(lock.Failed)

	state, since, failed := tr.Snapshot()
	if state != lock.Failed || failed != 2 {
		t.Fatalf("expected two failures in the failed state, got %v %d", state, failed)
	}
	if !since.Equal(start) {
		t.Fatalf("expected the lock time to stay at the first record, got %v", since)
	}

	tr.Record(lock.Unlocked)
	if state, _, _ := tr.Snapshot(); state != lock.Unlocked {
		t.Fatalf("expected unlock, got %v", state)
	}
}

func TestServerStatus(t *testing.T) {
	path := socketPath(t)
	tr := NewTracker()
	tr.Record(lock.Locked)
	tr.Record(lock.Failed)

	srv := NewServer(path, Info{Display: ":0", Screens: 2, Filters: "pixelate=2 noise=16"}, tr, nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer srv.Stop()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat socket: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("expected socket mode 0600, got %v", info.Mode().Perm())
	}

	c := NewClient(path)
	if err := c.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	st, err := c.GetStatus()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.State != "failed" || st.FailedAttempts != 1 || st.Screens != 2 || st.Display != ":0" {
		t.Fatalf("unexpected status %+v", st)
	}
	if st.PID != os.Getpid() || st.LockedSince == 0 {
		t.Fatalf("expected pid and lock time, got %+v", st)
	}
}

func TestServerRejectsUnknownCommands(t *testing.T) {
	path := socketPath(t)
	srv := NewServer(path, Info{}, NewTracker(), nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer srv.Stop()

	c := NewClient(path)
	if _, err := c.roundTrip("unlock"); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected an unknown command error, got %v", err)
	}

	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.Write([]byte("not json\n"))
	buf := make([]byte, 256)
	n, _ := conn.Read(buf)
	if !strings.Contains(string(buf[:n]), "invalid request") {
		t.Fatalf("expected an invalid request error, got %q", buf[:n])
	}
}

func TestDecodeRequest(t *testing.T) {
	req, err := decodeRequest([]byte(`{"command":"status"}` + "\n"))
	if err != nil || req.Command != CommandStatus {
		t.Fatalf("decode status: %+v %v", req, err)
	}
	if _, err := decodeRequest([]byte(`{}`)); err == nil {
		t.Fatalf("expected a request without a command to fail")
	}
}

func TestServerStopRemovesSocket(t *testing.T) {
	path := socketPath(t)
	srv := NewServer(path, Info{}, nil, nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	srv.Stop()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected the socket to be removed, got %v", err)
	}
	if err := NewClient(path).Ping(); err == nil {
		t.Fatalf("expected ping to fail once stopped")
	}
}
