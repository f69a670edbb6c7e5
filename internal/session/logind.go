// Package session tells systemd-logind when the session is locked.
package session

import (
	"errors"
	"fmt"
	"os"

	"github.com/godbus/dbus/v5"
)

const (
	login1Dest       = "org.freedesktop.login1"
	login1Path       = "/org/freedesktop/login1"
	managerInterface = "org.freedesktop.login1.Manager"
	sessionInterface = "org.freedesktop.login1.Session"
	sessionIDEnv     = "XDG_SESSION_ID"
)

// ErrNoSession is returned when the caller's logind session cannot be found.
var ErrNoSession = errors.New("logind session not found")

// sessionEntry is one element of Manager.ListSessions, a(susso).
type sessionEntry struct {
	ID   string
	UID  uint32
	User string
	Seat string
	Path dbus.ObjectPath
}

// Logind sets the LockedHint of one logind session.
type Logind struct {
	conn    *dbus.Conn
	session dbus.BusObject
}

// NewLogind connects to the system bus and resolves sessionID. An empty
// sessionID uses $XDG_SESSION_ID, then the session of this process.
func NewLogind(sessionID string) (*Logind, error) {
	if sessionID == "" {
		sessionID = os.Getenv(sessionIDEnv)
	}

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	manager := conn.Object(login1Dest, login1Path)

	path, err := resolveSession(manager, sessionID)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Logind{
		conn:    conn,
		session: conn.Object(login1Dest, path),
	}, nil
}

func resolveSession(manager dbus.BusObject, sessionID string) (dbus.ObjectPath, error) {
	if sessionID == "" {
		var path dbus.ObjectPath
		err := manager.Call(managerInterface+".GetSessionByPID", 0, uint32(os.Getpid())).Store(&path)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrNoSession, err)
		}
		return path, nil
	}

	var sessions []sessionEntry
	if err := manager.Call(managerInterface+".ListSessions", 0).Store(&sessions); err != nil {
		return "", fmt.Errorf("could not list sessions: %w", err)
	}
	path, ok := findSession(sessions, sessionID)
	if !ok {
		return "", fmt.Errorf("%w: id %q", ErrNoSession, sessionID)
	}
	return path, nil
}

func findSession(sessions []sessionEntry, id string) (dbus.ObjectPath, bool) {
	for _, s := range sessions {
		if s.ID == id && s.Path.IsValid() {
			return s.Path, true
		}
	}
	return "", false
}

// Path returns the session object path.
func (l *Logind) Path() dbus.ObjectPath {
	return l.session.Path()
}

// SetLockedHint publishes whether the session is locked.
func (l *Logind) SetLockedHint(locked bool) error {
	if err := l.session.Call(sessionInterface+".SetLockedHint", 0, locked).Err; err != nil {
		return fmt.Errorf("could not set locked hint: %w", err)
	}
	return nil
}

// LockedHint reads the current hint back.
func (l *Logind) LockedHint() (bool, error) {
	variant, err := l.session.GetProperty(sessionInterface + ".LockedHint")
	if err != nil {
		return false, fmt.Errorf("could not get locked hint: %w", err)
	}
	locked, ok := variant.Value().(bool)
	if !ok {
		return false, fmt.Errorf("LockedHint is %T, not a boolean", variant.Value())
	}
	return locked, nil
}

func (l *Logind) Close() error {
	return l.conn.Close()
}
