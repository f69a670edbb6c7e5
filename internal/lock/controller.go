package lock

import (
	"log/slog"
	"time"

	"github.com/1broseidon/xveil/internal/auth"
	"github.com/1broseidon/xveil/internal/keysym"
)

// debugBypassLen is the secret length that unlocks any debug session.
const debugBypassLen = 3

// Key is a decoded key press.
type Key struct {
	Sym  uint32
	Text string
}

// Recorder receives the state after every submission and at session start.
type Recorder interface {
	Record(State)
}

// Recorders fans one record out to several recorders.
type Recorders []Recorder

func (rs Recorders) Record(s State) {
	for _, r := range rs {
		if r != nil {
			r.Record(s)
		}
	}
}

type discardRecorder struct{}

func (discardRecorder) Record(State) {}

// Options configures a Controller.
type Options struct {
	Secret   *auth.Secret
	Verifier auth.Verifier
	// Debug > 0 enables the three-character bypass.
	Debug   int
	Journal Recorder
	Logger  *slog.Logger
	// Timeout is how long the unlocked frame stays up before Run returns.
	Timeout time.Duration
}

// Controller is the session state machine.
type Controller struct {
	state    State
	secret   *auth.Secret
	verifier auth.Verifier
	debug    int
	journal  Recorder
	logger   *slog.Logger
	timeout  time.Duration
	sleep    func(time.Duration)
}

// NewController returns a controller in the Locked state.
func NewController(opts Options) *Controller {
	c := &Controller{
		state:    Locked,
		secret:   opts.Secret,
		verifier: opts.Verifier,
		debug:    opts.Debug,
		journal:  opts.Journal,
		logger:   opts.Logger,
		timeout:  opts.Timeout,
		sleep:    time.Sleep,
	}
	if c.secret == nil {
		c.secret = &auth.Secret{}
	}
	if c.verifier == nil {
		c.verifier = auth.Deny
	}
	if c.journal == nil {
		c.journal = discardRecorder{}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// HandleKey applies one key press. Unlocked is terminal: keys after it are
// dropped.
func (c *Controller) HandleKey(k Key) {
	if c.state == Unlocked {
		return
	}
	if keysym.Ignored(k.Sym) {
		c.logger.Warn("ignoring key", "keysym", k.Sym)
		return
	}

	switch {
	case keysym.IsEnter(k.Sym):
		typed := c.secret.Len()
		if c.secret.Check(c.verifier) {
			c.state = Unlocked
		} else {
			c.state = Failed
		}
		if c.debug > 0 && typed == debugBypassLen {
			c.state = Unlocked
		}
		c.secret.Reset()
		c.journal.Record(c.state)

	case k.Sym == keysym.Escape:
		if c.state != Failed {
			c.state = Failed
			c.secret.Reset()
		}

	case k.Sym == keysym.BackSpace:
		c.state = Erase
		c.secret.Backspace()
		if c.secret.Len() == 0 {
			c.state = Failed
		}

	default:
		if k.Text == "" {
			c.logger.Info("key has no text", "keysym", k.Sym)
			return
		}
		if c.secret.Append(k.Text) {
			c.state = Input
		} else {
			c.logger.Info("secret is full, key dropped")
		}
	}
}

// HandleKeyRelease drops any transient state back to Locked.
func (c *Controller) HandleKeyRelease() {
	if c.state != Unlocked {
		c.state = Locked
	}
}
