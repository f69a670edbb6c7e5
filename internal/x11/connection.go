package x11

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
)

// Connection manages the X11 connection and the server-wide state every
// screen shares.
type Connection struct {
	XUtil *xgbutil.XUtil
	Setup *xproto.SetupInfo
	// RandR is true when the server speaks the RandR extension.
	RandR bool

	logger *slog.Logger
}

// NewConnection connects to display (empty for $DISPLAY), loads the keyboard
// mapping and probes RandR. A server without RandR is not an error.
func NewConnection(display string, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("could not connect to X server: %w", err)
	}

	keybind.Initialize(xu)

	c := &Connection{
		XUtil:  xu,
		Setup:  xproto.Setup(xu.Conn()),
		logger: logger,
	}
	if err := randr.Init(xu.Conn()); err != nil {
		logger.Info("randr unavailable, one monitor per screen", "error", err)
	} else {
		c.RandR = true
	}
	return c, nil
}

// Conn returns the raw protocol connection.
func (c *Connection) Conn() *xgb.Conn {
	return c.XUtil.Conn()
}

// Screens returns every screen of the display.
func (c *Connection) Screens() []xproto.ScreenInfo {
	return c.Setup.Roots
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
