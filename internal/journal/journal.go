// Package journal appends one timestamped line per session milestone:
// locking, every failed attempt and the unlock.
package journal

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/1broseidon/xveil/internal/lock"
)

const timeFormat = "2006-01-02 15:04:05"

// Config selects the journal sink.
type Config struct {
	// FilePath, when set, is appended to. Otherwise records go to stderr
	// only when Verbose > 0.
	FilePath string
	Verbose  int
	// MaxSizeMB rotates the file once it grows past this size. Zero never
	// rotates.
	MaxSizeMB int
	// MaxFiles is the number of rotated files kept.
	MaxFiles int
}

// Journal writes state records. The zero value discards everything.
type Journal struct {
	mu          sync.Mutex
	w           io.Writer
	file        *os.File
	config      Config
	currentSize int64
	now         func() time.Time
	logger      *slog.Logger
}

// Open returns a journal for cfg. A log file that cannot be opened is
// reported on logger and stderr is used instead.
func Open(cfg Config, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	j := &Journal{config: cfg, now: time.Now, logger: logger}

	if cfg.FilePath == "" {
		if cfg.Verbose > 0 {
			j.w = os.Stderr
		}
		return j
	}

	if err := j.openFile(); err != nil {
		logger.Warn("journal file unavailable, using stderr", "path", cfg.FilePath, "error", err)
		j.w = os.Stderr
	}
	return j
}

func (j *Journal) openFile() error {
	if dir := filepath.Dir(j.config.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create journal directory %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(j.config.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open journal %s: %w", j.config.FilePath, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat journal: %w", err)
	}
	j.file = f
	j.w = f
	j.currentSize = stat.Size()
	return nil
}

// Message returns the journal text for s, or "" for states that are not
// recorded.
func Message(s lock.State) string {
	switch s {
	case lock.Locked:
		return "locked"
	case lock.Failed:
		return "failed attempt"
	case lock.Unlocked:
		return "unlock"
	default:
		return ""
	}
}

// Record appends the line for s.
func (j *Journal) Record(s lock.State) {
	if j == nil {
		return
	}
	msg := Message(s)
	if msg == "" {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.w == nil {
		return
	}

	if j.file != nil && j.config.MaxSizeMB > 0 && j.currentSize >= int64(j.config.MaxSizeMB)*1024*1024 {
		if err := j.rotate(); err != nil {
			j.logger.Warn("journal rotation failed", "error", err)
		}
		if j.w == nil {
			return
		}
	}

	n, err := fmt.Fprintf(j.w, "%s %s\n", j.now().Format(timeFormat), msg)
	if err != nil {
		j.logger.Warn("journal write failed", "error", err)
		return
	}
	j.currentSize += int64(n)
}

// Close releases the journal file, if any.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	j.w = nil
	return err
}

// rotate shifts path.1..path.N up by one, drops the oldest and reopens path.
func (j *Journal) rotate() error {
	j.file.Close()
	j.file = nil
	j.w = nil

	base := j.config.FilePath
	keep := j.config.MaxFiles
	if keep < 1 {
		keep = 1
	}
	os.Remove(fmt.Sprintf("%s.%d", base, keep))
	for i := keep - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", base, i), fmt.Sprintf("%s.%d", base, i+1))
	}
	if err := os.Rename(base, base+".1"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rotate journal: %w", err)
	}
	return j.openFile()
}
