package x11

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/xveil/internal/filter"
	"github.com/1broseidon/xveil/internal/lock"
)

// Options configures a Locker.
type Options struct {
	Border   int
	Colors   [lock.NumStates]string
	Pipeline filter.Pipeline
	Debug    int

	GrabAttempts int
	GrabBackoff  time.Duration
}

// Locker covers every screen of a connection. It is the lock.Display the
// session runs on.
type Locker struct {
	conn    *Connection
	opts    Options
	screens []*Screen
	lookup  lookupFunc
	logger  *slog.Logger
}

var _ lock.Display = (*Locker)(nil)

// Open locks every screen: grab inputs, discover monitors, create the
// window, capture and filter the screen, and show the result. On error the
// screens set up so far are released.
func Open(conn *Connection, opts Options, logger *slog.Logger) (*Locker, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.GrabAttempts <= 0 {
		opts.GrabAttempts = DefaultGrabAttempts
	}
	if opts.GrabBackoff <= 0 {
		opts.GrabBackoff = DefaultGrabBackoff
	}

	l := &Locker{
		conn:   conn,
		opts:   opts,
		lookup: xutilLookup(conn.XUtil),
		logger: logger,
	}
	roots := conn.Screens()
	for i := range roots {
		s, err := l.openScreen(&roots[i])
		if s != nil {
			l.screens = append(l.screens, s)
		}
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("screen %d: %w", i, err)
		}
	}
	return l, nil
}

func (l *Locker) openScreen(info *xproto.ScreenInfo) (*Screen, error) {
	c := l.conn.Conn()
	if err := grabInputs(c, info.Root, l.opts.GrabAttempts, l.opts.GrabBackoff); err != nil {
		return nil, err
	}

	s := &Screen{info: info}
	monitors, err := l.conn.Monitors(info)
	if err != nil {
		return s, err
	}
	s.monitors = monitors

	if err := s.createResources(c); err != nil {
		return s, err
	}
	if err := s.allocColors(c, l.opts.Colors); err != nil {
		return s, err
	}
	if l.conn.RandR {
		if err := selectScreenChange(c, info.Root); err != nil {
			return s, fmt.Errorf("could not select randr input: %w", err)
		}
	}
	if err := xproto.MapWindowChecked(c, s.window).Check(); err != nil {
		return s, fmt.Errorf("could not map window: %w", err)
	}

	start := time.Now()
	img, err := s.capture(c, l.conn.Setup)
	if err != nil {
		return s, err
	}
	l.opts.Pipeline.Apply(img)
	s.image = img
	l.logger.Debug("screen captured",
		"root", info.Root,
		"width", img.Width,
		"height", img.Height,
		"monitors", len(monitors),
		"filters", l.opts.Pipeline.String(),
		"elapsed", time.Since(start))

	if err := s.putImage(c, l.conn.Setup, l.opts.Debug); err != nil {
		return s, err
	}
	return s, nil
}

// Screens returns the locked screens.
func (l *Locker) Screens() []*Screen {
	return l.screens
}

func (l *Locker) byWindow(w xproto.Window) *Screen {
	for _, s := range l.screens {
		if s.window == w {
			return s
		}
	}
	return nil
}

func (l *Locker) byRoot(w xproto.Window) *Screen {
	for _, s := range l.screens {
		if s.info.Root == w {
			return s
		}
	}
	return nil
}

// WaitEvent blocks for the next X event.
func (l *Locker) WaitEvent() (lock.Event, error) {
	ev, xerr := l.conn.Conn().WaitForEvent()
	if ev == nil && xerr == nil {
		return lock.Event{}, lock.ErrDisplayClosed
	}
	if xerr != nil {
		return lock.Event{}, fmt.Errorf("x error: %w", xerr)
	}
	return l.decode(ev), nil
}

// PollEvent returns a queued X event without blocking.
func (l *Locker) PollEvent() (lock.Event, bool, error) {
	ev, xerr := l.conn.Conn().PollForEvent()
	if xerr != nil {
		return lock.Event{}, false, fmt.Errorf("x error: %w", xerr)
	}
	if ev == nil {
		return lock.Event{}, false, nil
	}
	return l.decode(ev), true, nil
}

func (l *Locker) decode(ev xgb.Event) lock.Event {
	switch e := ev.(type) {
	case xproto.KeyPressEvent:
		l.logger.Debug("key press", "keycode", e.Detail, "state", e.State)
		return lock.Event{
			Kind:   lock.EventKeyPress,
			Key:    decodeKey(l.lookup, e.Detail, e.State),
			Window: uint32(e.Event),
		}
	case xproto.KeyReleaseEvent:
		l.logger.Debug("key release", "keycode", e.Detail, "state", e.State)
		return lock.Event{Kind: lock.EventKeyRelease, Window: uint32(e.Event)}
	case xproto.MapNotifyEvent:
		l.logger.Debug("map notify", "window", e.Window)
		return lock.Event{Kind: lock.EventMap, Window: uint32(e.Window)}
	case xproto.ExposeEvent:
		l.logger.Debug("expose", "window", e.Window, "x", e.X, "y", e.Y, "w", e.Width, "h", e.Height)
		return lock.Event{Kind: lock.EventExpose, Window: uint32(e.Window)}
	case xproto.ConfigureNotifyEvent:
		l.logger.Debug("configure notify", "window", e.Window, "w", e.Width, "h", e.Height)
		return lock.Event{
			Kind:   lock.EventConfigure,
			Window: uint32(e.Window),
			Width:  int(e.Width),
			Height: int(e.Height),
		}
	case randr.ScreenChangeNotifyEvent:
		l.logger.Debug("randr screen change", "root", e.Root, "w", e.Width, "h", e.Height)
		return lock.Event{
			Kind:   lock.EventScreenChange,
			Window: uint32(e.Root),
			Width:  int(e.Width),
			Height: int(e.Height),
		}
	default:
		l.logger.Debug("unhandled event", "event", ev.String())
		return lock.Event{Kind: lock.EventOther}
	}
}

// Repaint redraws the image and frame of the screen whose lock window is
// window.
func (l *Locker) Repaint(window uint32, state lock.State) error {
	s := l.byWindow(xproto.Window(window))
	if s == nil {
		return nil
	}
	c := l.conn.Conn()
	if err := s.putImage(c, l.conn.Setup, l.opts.Debug); err != nil {
		return err
	}
	if err := s.paintBorder(c, l.opts.Border, state); err != nil {
		return err
	}
	return l.Flush()
}

// Reconfigure follows root resizes and RandR layout changes.
func (l *Locker) Reconfigure(ev lock.Event, state lock.State) error {
	s := l.byRoot(xproto.Window(ev.Window))
	if s == nil {
		return nil
	}
	c := l.conn.Conn()

	switch ev.Kind {
	case lock.EventConfigure:
		err := xproto.ConfigureWindowChecked(c, s.window,
			xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
			[]uint32{uint32(ev.Width), uint32(ev.Height)}).Check()
		if err != nil {
			return fmt.Errorf("could not resize window: %w", err)
		}
	case lock.EventScreenChange:
		monitors, err := l.conn.Monitors(s.info)
		if err != nil {
			return err
		}
		s.monitors = monitors
	}

	if err := s.paintBorder(c, l.opts.Border, state); err != nil {
		return err
	}
	return l.Flush()
}

// PaintBorders redraws the frame on every screen.
func (l *Locker) PaintBorders(state lock.State) error {
	for _, s := range l.screens {
		if err := s.paintBorder(l.conn.Conn(), l.opts.Border, state); err != nil {
			return err
		}
	}
	return nil
}

// Flush waits for the server to process every request sent so far.
func (l *Locker) Flush() error {
	if _, err := xproto.GetInputFocus(l.conn.Conn()).Reply(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	return nil
}

// Close zeroes every captured frame, frees the screens' server resources
// and releases the grabs. The connection itself stays open.
func (l *Locker) Close() {
	c := l.conn.Conn()
	for _, s := range l.screens {
		s.release(c)
	}
	l.screens = nil
	ungrabInputs(c)
}
