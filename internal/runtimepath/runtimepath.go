package runtimepath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// ErrAlreadyRunning is returned when another locker holds the instance lock.
var ErrAlreadyRunning = errors.New("another xveil instance is already locking this display")

// Dir returns the runtime directory for xveil state. Priority:
// 1) XDG_RUNTIME_DIR (if set)
// 2) /run/user/<uid> (if present)
// 3) /tmp/xveil-runtime-<uid> (created)
func Dir() (string, error) {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return runtimeDir, nil
	}

	uid := os.Getuid()
	runUserDir := fmt.Sprintf("/run/user/%d", uid)
	if info, err := os.Stat(runUserDir); err == nil && info.IsDir() {
		return runUserDir, nil
	}

	tmpDir := fmt.Sprintf("/tmp/xveil-runtime-%d", uid)
	if err := os.MkdirAll(tmpDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return tmpDir, nil
}

// InstanceLockPath returns the lock file guarding display.
func InstanceLockPath(display string) (string, error) {
	runtimeDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(runtimeDir, "xveil-"+sanitize(display)+".lock"), nil
}

// SocketPath returns the status socket of the locker on display.
func SocketPath(display string) (string, error) {
	runtimeDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(runtimeDir, "xveil-"+sanitize(display)+".sock"), nil
}

func sanitize(display string) string {
	if display == "" {
		return "default"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, display)
}

// Instance is a held instance lock.
type Instance struct {
	file *os.File
}

// AcquireInstance takes the instance lock for display without blocking.
func AcquireInstance(display string) (*Instance, error) {
	path, err := InstanceLockPath(display)
	if err != nil {
		return nil, err
	}
	return acquire(path)
}

func acquire(path string) (*Instance, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open instance lock: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%w (%s)", ErrAlreadyRunning, path)
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if err := f.Truncate(0); err == nil {
		fmt.Fprintf(f, "%d\n", os.Getpid())
	}
	return &Instance{file: f}, nil
}

// Path returns the lock file path.
func (i *Instance) Path() string {
	return i.file.Name()
}

// Release drops the lock. The file is left in place.
func (i *Instance) Release() error {
	if i == nil || i.file == nil {
		return nil
	}
	err := unix.Flock(int(i.file.Fd()), unix.LOCK_UN)
	if cerr := i.file.Close(); err == nil {
		err = cerr
	}
	i.file = nil
	return err
}
