// Package lock drives the locked session: it owns the typed secret, turns
// key events into state transitions and asks the display to repaint when
// the state changes.
package lock

import "fmt"

// State is the session state. Each state has its own frame colour.
type State int

const (
	Locked State = iota
	Input
	Erase
	Failed
	Unlocked

	// NumStates is the number of states, for per-state tables.
	NumStates = int(Unlocked) + 1
)

func (s State) String() string {
	switch s {
	case Locked:
		return "locked"
	case Input:
		return "input"
	case Erase:
		return "erase"
	case Failed:
		return "failed"
	case Unlocked:
		return "unlock"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ParseState maps a state name back to its State.
func ParseState(name string) (State, error) {
	for s := Locked; s <= Unlocked; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown state %q", name)
}
