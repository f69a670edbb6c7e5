package ipc

import (
	"sync"
	"time"

	"github.com/1broseidon/xveil/internal/lock"
)

// Tracker follows the recorded session states for status queries. It is a
// lock.Recorder and is safe to read from the server goroutines.
type Tracker struct {
	mu          sync.RWMutex
	state       lock.State
	lockedSince time.Time
	failed      int
	now         func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// Record implements lock.Recorder.
func (t *Tracker) Record(s lock.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch s {
	case lock.Locked:
		if t.lockedSince.IsZero() {
			t.lockedSince = t.now()
		}
	case lock.Failed:
		t.failed++
	}
	t.state = s
}

// Snapshot returns the last recorded state, when the session locked and the
// number of failed attempts so far.
func (t *Tracker) Snapshot() (lock.State, time.Time, int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state, t.lockedSince, t.failed
}
