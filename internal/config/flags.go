package config

import (
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/1broseidon/xveil/internal/filter"
)

// Overrides holds what the command line set. Nil fields were not given.
type Overrides struct {
	ConfigPath string

	Timeout  *int
	Border   *int
	LogFile  *string
	Hash     *string
	Display  *string
	NoLogind bool
	Colors   map[string]string

	// Filters are in command-line order. Any filter flag replaces the
	// configured pipeline.
	Filters []string

	Debug   int
	Verbose int
}

// counter is a repeatable boolean flag. "-D -D" counts two, "-D=3" sets
// three.
type counter int

func (c *counter) String() string { return strconv.Itoa(int(*c)) }

func (c *counter) Set(s string) error {
	switch s {
	case "true":
		*c++
		return nil
	case "false":
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("expected a count, got %q", s)
	}
	*c = counter(n)
	return nil
}

func (c *counter) IsBoolFlag() bool { return true }

// filterFlag appends one filter spec per occurrence, so the pipeline keeps
// the order the flags were given in.
type filterFlag struct {
	name    string
	boolean bool
	out     *[]string
}

func (f *filterFlag) String() string { return "" }

func (f *filterFlag) Set(v string) error {
	spec := f.name
	if f.boolean {
		if v == "false" {
			return nil
		}
	} else {
		spec += "=" + v
	}
	if _, err := filter.Parse(spec); err != nil {
		return err
	}
	*f.out = append(*f.out, spec)
	return nil
}

func (f *filterFlag) IsBoolFlag() bool { return f.boolean }

type filterOption struct {
	names   []string
	filter  string
	boolean bool
	usage   string
}

var filterOptions = []filterOption{
	{[]string{"g", "blur", "gauss"}, "blur", false, "Gaussian blur with radius `r` (2..29)"},
	{[]string{"p", "pixelate"}, "pixelate", false, "pixelate in square blocks of `size` pixels"},
	{[]string{"n", "noise"}, "noise", false, "add noise in [-`level`, +level] to every channel"},
	{[]string{"c", "colourise", "colorize"}, "colourise", false, "blend with `#AARRGGBB`"},
	{[]string{"t", "tile"}, "tile", false, "tile `x,y` miniature copies"},
	{[]string{"Z", "shift"}, "shift", false, "shift alternate rows left and right by `n` pixels"},
	{[]string{"i", "invert"}, "invert", true, "invert all colours"},
	{[]string{"S", "null"}, "null", true, "no-op filter"},
	{[]string{"G", "grey"}, "grey", true, "convert to grey-scale"},
	{[]string{"F", "flip"}, "flip", true, "flip vertically"},
	{[]string{"f", "flop"}, "flop", true, "flop horizontally"},
	{[]string{"E", "edge"}, "edge", true, "edge detection"},
}

// RegisterFilterFlags adds the filter flags to fs. Each occurrence appends
// to out.
func RegisterFilterFlags(fs *flag.FlagSet, out *[]string) {
	for _, opt := range filterOptions {
		v := &filterFlag{name: opt.filter, boolean: opt.boolean, out: out}
		for _, name := range opt.names {
			fs.Var(v, name, opt.usage)
		}
	}
}

// ParseFlags parses the locker's command line. flag.ErrHelp is returned for
// -h.
func ParseFlags(name string, args []string, output io.Writer) (*Overrides, error) {
	o := &Overrides{Colors: map[string]string{}}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	var (
		timeout, border        int
		logfile, hash, display string
		debug, verbose, quiet  counter
	)
	colors := map[string]*string{}
	for _, n := range []string{"T", "timeout"} {
		fs.IntVar(&timeout, n, DefaultTimeout, "keep the unlock colour up for `msec` after unlocking")
	}
	for _, n := range []string{"B", "border"} {
		fs.IntVar(&border, n, DefaultBorder, "frame `width` in pixels (0 disables)")
	}
	for _, n := range []string{"L", "logfile"} {
		fs.StringVar(&logfile, n, "", "append lock, failure and unlock records to `path`")
	}
	fs.StringVar(&hash, "hash", "", "crypt(3) or bcrypt `hash` to check instead of the user's")
	fs.StringVar(&display, "display", "", "X `display` to lock (default $DISPLAY)")
	fs.StringVar(&o.ConfigPath, "config", "", "config file `path`")
	fs.BoolVar(&o.NoLogind, "no-logind", false, "do not set the logind LockedHint")
	for _, n := range []string{"D", "debug"} {
		fs.Var(&debug, n, "increase debug level; at 1 any three characters unlock")
	}
	for _, n := range []string{"v", "verbose"} {
		fs.Var(&verbose, n, "log more")
	}
	for _, n := range []string{"q", "quiet"} {
		fs.Var(&quiet, n, "log less")
	}
	for _, key := range []string{"locked", "input", "erase", "failed", "unlock"} {
		v := new(string)
		colors[key] = v
		fs.StringVar(v, "colour-"+key, "", "frame `colour` in the "+key+" state")
		fs.StringVar(v, "color-"+key, "", "alias of -colour-"+key)
	}
	RegisterFilterFlags(fs, &o.Filters)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "T", "timeout":
			o.Timeout = &timeout
		case "B", "border":
			o.Border = &border
		case "L", "logfile":
			o.LogFile = &logfile
		case "hash":
			o.Hash = &hash
		case "display":
			o.Display = &display
		}
	})
	for key, v := range colors {
		if *v != "" {
			o.Colors[key] = *v
		}
	}
	o.Debug = int(debug)
	o.Verbose = int(verbose) - int(quiet)
	return o, nil
}

// Apply writes the overrides into res and records them as flag sources.
func (o *Overrides) Apply(res *LoadResult) {
	cfg := res.Config
	mark := func(path, flagName string) {
		res.Sources[path] = Source{Kind: SourceFlag, Name: flagName}
	}

	if o.Timeout != nil {
		cfg.Timeout = *o.Timeout
		mark("timeout", "timeout")
	}
	if o.Border != nil {
		cfg.Border = *o.Border
		mark("border", "border")
	}
	if o.LogFile != nil {
		cfg.Journal.File = *o.LogFile
		mark("journal.file", "logfile")
	}
	if o.Hash != nil {
		cfg.Hash = *o.Hash
		mark("hash", "hash")
	}
	if o.Display != nil {
		cfg.Display = *o.Display
		mark("display", "display")
	}
	if o.NoLogind {
		cfg.Logind = false
		mark("logind", "no-logind")
	}
	for key, v := range o.Colors {
		switch key {
		case "locked":
			cfg.Colors.Locked = v
		case "input":
			cfg.Colors.Input = v
		case "erase":
			cfg.Colors.Erase = v
		case "failed":
			cfg.Colors.Failed = v
		case "unlock":
			cfg.Colors.Unlock = v
		}
		mark("colors."+key, "colour-"+key)
	}
	if len(o.Filters) > 0 {
		cfg.Filters = append([]string{}, o.Filters...)
		mark("filters", "filter flags")
	}
	cfg.Debug += o.Debug
	cfg.Verbose += o.Verbose
}
