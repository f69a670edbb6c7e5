package lock

import (
	"errors"
	"fmt"
)

// ErrDisplayClosed is returned by a Display when its connection is gone.
var ErrDisplayClosed = errors.New("display connection closed")

// EventKind classifies a display event.
type EventKind int

const (
	EventOther EventKind = iota
	EventKeyPress
	EventKeyRelease
	EventMap
	EventExpose
	EventConfigure
	EventScreenChange
)

// Event is a display event reduced to what the session loop needs.
type Event struct {
	Kind   EventKind
	Key    Key
	Window uint32
	Width  int
	Height int
}

// Display is the surface the session runs on.
type Display interface {
	// WaitEvent blocks until the next event arrives.
	WaitEvent() (Event, error)
	// PollEvent returns the next queued event, if any, without blocking.
	PollEvent() (Event, bool, error)
	// Repaint redraws the image and frame of the screen owning window.
	Repaint(window uint32, s State) error
	// Reconfigure follows a root geometry or monitor layout change.
	Reconfigure(ev Event, s State) error
	// PaintBorders redraws every monitor frame in the colour of s.
	PaintBorders(s State) error
	Flush() error
}

// Run records the locked state and processes events until the session is
// unlocked. It returns only after the configured timeout has elapsed with
// the unlocked frame visible, or on the first display error.
func (c *Controller) Run(d Display) error {
	c.journal.Record(c.state)

	for c.state != Unlocked {
		old := c.state

		ev, err := d.WaitEvent()
		if err != nil {
			return fmt.Errorf("wait for event: %w", err)
		}
		for {
			if err := c.dispatch(d, ev); err != nil {
				return err
			}
			if c.state == Unlocked {
				break
			}
			var ok bool
			ev, ok, err = d.PollEvent()
			if err != nil {
				return fmt.Errorf("poll for event: %w", err)
			}
			if !ok {
				break
			}
		}

		if c.state != old {
			if err := d.PaintBorders(c.state); err != nil {
				return fmt.Errorf("paint borders: %w", err)
			}
			if err := d.Flush(); err != nil {
				return fmt.Errorf("flush: %w", err)
			}
		}
	}

	c.sleep(c.timeout)
	return nil
}

func (c *Controller) dispatch(d Display, ev Event) error {
	switch ev.Kind {
	case EventKeyPress:
		c.HandleKey(ev.Key)
	case EventKeyRelease:
		c.HandleKeyRelease()
	case EventMap, EventExpose:
		if err := d.Repaint(ev.Window, c.state); err != nil {
			return fmt.Errorf("repaint: %w", err)
		}
	case EventConfigure, EventScreenChange:
		if err := d.Reconfigure(ev, c.state); err != nil {
			return fmt.Errorf("reconfigure: %w", err)
		}
	default:
		c.logger.Debug("unhandled event", "kind", int(ev.Kind))
	}
	return nil
}
