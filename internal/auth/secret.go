// Package auth holds the typed secret and decides whether it matches the
// user's credential.
package auth

import (
	"runtime"
	"sync"
	"unicode/utf8"

	"golang.org/x/sys/unix"
)

// SecretSize is the capacity of the secret buffer in bytes.
const SecretSize = 128

// Secret is the fixed-capacity buffer the typed password accumulates in.
// It is zeroed on every reset and locked in RAM when the process may do so.
type Secret struct {
	mu     sync.Mutex
	buf    [SecretSize]byte
	n      int
	locked bool
}

// NewSecret allocates a secret and tries to mlock it. The returned error is
// informational: the secret is usable either way.
func NewSecret() (*Secret, error) {
	s := &Secret{}
	if err := unix.Mlock(s.buf[:]); err != nil {
		return s, err
	}
	s.locked = true
	return s, nil
}

// Len returns the number of bytes typed so far.
func (s *Secret) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// Append adds text if it fits with one byte to spare. It reports whether
// the text was stored.
func (s *Secret) Append(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(text) == 0 || s.n+len(text)+1 >= len(s.buf) {
		return false
	}
	s.n += copy(s.buf[s.n:], text)
	return true
}

// Backspace removes the last UTF-8 character. Continuation bytes are walked
// over so a multi-byte character goes in one step.
func (s *Secret) Backspace() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.n > 0 {
		s.n--
		c := s.buf[s.n]
		s.buf[s.n] = 0
		if utf8.RuneStart(c) {
			break
		}
	}
}

// Reset zeroes the buffer and rewinds the cursor.
func (s *Secret) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wipe()
}

// Check runs v over the typed bytes without copying them out.
func (s *Secret) Check(v Verifier) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v == nil {
		return false
	}
	return v.Verify(s.buf[:s.n])
}

// Destroy zeroes the buffer and releases the memory lock. The secret stays
// usable but is no longer locked in RAM.
func (s *Secret) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wipe()
	if s.locked {
		_ = unix.Munlock(s.buf[:])
		s.locked = false
	}
}

func (s *Secret) wipe() {
	clear(s.buf[:])
	s.n = 0
	runtime.KeepAlive(&s.buf)
}
