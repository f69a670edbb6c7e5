package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/1broseidon/xveil/internal/filter"
	"github.com/1broseidon/xveil/internal/lock"
)

const (
	DefaultTimeout = 250
	DefaultBorder  = 5

	// MinBorder is the narrowest frame that still has a fill and an outline.
	MinBorder = 2
	MaxBorder = 512

	DefaultJournalMaxSizeMB = 10
	DefaultJournalMaxFiles  = 3
)

// Colors holds the frame colour for each session state. Values are "#RRGGBB"
// or an X colour name.
type Colors struct {
	Locked string `yaml:"locked" toml:"locked"`
	Input  string `yaml:"input" toml:"input"`
	Erase  string `yaml:"erase" toml:"erase"`
	Failed string `yaml:"failed" toml:"failed"`
	Unlock string `yaml:"unlock" toml:"unlock"`
}

// JournalConfig selects where lock, failure and unlock records go.
type JournalConfig struct {
	File      string `yaml:"file,omitempty" toml:"file,omitempty"`
	MaxSizeMB int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" toml:"max_files"`
}

type Config struct {
	// Timeout is how long the unlock colour stays up, in milliseconds.
	Timeout int           `yaml:"timeout" toml:"timeout"`
	Border  int           `yaml:"border" toml:"border"`
	Colors  Colors        `yaml:"colors" toml:"colors"`
	Filters []string      `yaml:"filters" toml:"filters"`
	Journal JournalConfig `yaml:"journal" toml:"journal"`
	// Hash replaces the user's shadow entry when set.
	Hash    string `yaml:"hash,omitempty" toml:"hash,omitempty"`
	Logind  bool   `yaml:"logind" toml:"logind"`
	Display string `yaml:"display,omitempty" toml:"display,omitempty"`
	Verbose int    `yaml:"verbose" toml:"verbose"`

	// Debug is only ever set from the command line.
	Debug int `yaml:"-" toml:"-"`
}

func DefaultConfig() *Config {
	return &Config{
		Timeout: DefaultTimeout,
		Border:  DefaultBorder,
		Colors: Colors{
			Locked: "#101010",
			Input:  "#005577",
			Erase:  "#C08030",
			Failed: "#FF2010",
			Unlock: "#407040",
		},
		Filters: []string{"pixelate=2", "noise=16"},
		Journal: JournalConfig{
			MaxSizeMB: DefaultJournalMaxSizeMB,
			MaxFiles:  DefaultJournalMaxFiles,
		},
		Logind: true,
	}
}

// UnlockDelay returns Timeout as a duration.
func (c *Config) UnlockDelay() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// ColorArray returns the colours indexed by lock.State.
func (c *Config) ColorArray() [lock.NumStates]string {
	var out [lock.NumStates]string
	out[lock.Locked] = c.Colors.Locked
	out[lock.Input] = c.Colors.Input
	out[lock.Erase] = c.Colors.Erase
	out[lock.Failed] = c.Colors.Failed
	out[lock.Unlocked] = c.Colors.Unlock
	return out
}

// Pipeline parses and validates the configured filters.
func (c *Config) Pipeline() (filter.Pipeline, error) {
	return filter.ParsePipeline(c.Filters)
}

func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return &ValidationError{Path: "timeout", Err: fmt.Errorf("must be >= 0 (got %d)", c.Timeout)}
	}
	if c.Border != 0 && (c.Border < MinBorder || c.Border > MaxBorder) {
		return &ValidationError{Path: "border", Err: fmt.Errorf("must be 0 or between %d and %d (got %d)", MinBorder, MaxBorder, c.Border)}
	}

	colors := c.ColorArray()
	for i, spec := range colors {
		if strings.TrimSpace(spec) == "" {
			return &ValidationError{Path: "colors." + lock.State(i).String(), Err: fmt.Errorf("must not be empty")}
		}
	}

	for i, spec := range c.Filters {
		f, err := filter.Parse(spec)
		if err != nil {
			return &ValidationError{Path: "filters", Err: fmt.Errorf("entry %d: %w", i, err)}
		}
		if err := f.Validate(); err != nil {
			return &ValidationError{Path: "filters", Err: fmt.Errorf("entry %d: %w", i, err)}
		}
	}

	if c.Journal.MaxSizeMB < 0 {
		return &ValidationError{Path: "journal.max_size_mb", Err: fmt.Errorf("must be >= 0 (got %d)", c.Journal.MaxSizeMB)}
	}
	if c.Journal.MaxFiles < 0 {
		return &ValidationError{Path: "journal.max_files", Err: fmt.Errorf("must be >= 0 (got %d)", c.Journal.MaxFiles)}
	}
	return nil
}

// ValidationError points at the offending config path and, once sources are
// attached, the file position that set it.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if (e.Source.Kind == SourceFile && e.Source.File != "") || e.Source.Kind == SourceEnv || e.Source.Kind == SourceFlag {
		return fmt.Sprintf("%s: %s: %v", FormatSource(e.Source), e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }
