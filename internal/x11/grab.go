package x11

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

const (
	// DefaultGrabAttempts is how often a grab is tried before giving up.
	DefaultGrabAttempts = 100
	// DefaultGrabBackoff is the pause between grab attempts.
	DefaultGrabBackoff = time.Millisecond
)

// ErrGrabFailed is returned when input could not be grabbed in time.
var ErrGrabFailed = errors.New("failed to grab input devices")

// Retry calls try until it reports done, returns an error, or attempts run
// out. It sleeps backoff between attempts.
func Retry(attempts int, backoff time.Duration, try func() (bool, error)) error {
	for i := 0; i < attempts; i++ {
		done, err := try()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(backoff)
		}
	}
	return ErrGrabFailed
}

// grabInputs grabs pointer and keyboard on root. Each grab is retried until
// both are held; another client holding a grab only delays us.
func grabInputs(conn *xgb.Conn, root xproto.Window, attempts int, backoff time.Duration) error {
	var pointer, keyboard bool
	err := Retry(attempts, backoff, func() (bool, error) {
		if !pointer {
			reply, err := xproto.GrabPointer(conn, false, root, 0,
				xproto.GrabModeAsync, xproto.GrabModeAsync,
				xproto.WindowNone, xproto.CursorNone, xproto.TimeCurrentTime).Reply()
			if err == nil && reply.Status == xproto.GrabStatusSuccess {
				pointer = true
			}
		}
		if !keyboard {
			reply, err := xproto.GrabKeyboard(conn, true, root, xproto.TimeCurrentTime,
				xproto.GrabModeAsync, xproto.GrabModeAsync).Reply()
			if err == nil && reply.Status == xproto.GrabStatusSuccess {
				keyboard = true
			}
		}
		return pointer && keyboard, nil
	})
	if err != nil {
		return fmt.Errorf("root %d (pointer=%t keyboard=%t): %w", root, pointer, keyboard, err)
	}
	return nil
}

func ungrabInputs(conn *xgb.Conn) {
	xproto.UngrabKeyboard(conn, xproto.TimeCurrentTime)
	xproto.UngrabPointer(conn, xproto.TimeCurrentTime)
}
