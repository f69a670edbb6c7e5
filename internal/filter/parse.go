package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// Names lists the canonical filter names accepted by Parse.
var Names = []string{
	"blur", "pixelate", "noise", "colourise", "tile", "shift",
	"grey", "edge", "invert", "flip", "flop", "null",
}

var aliases = map[string]string{
	"gauss":     "blur",
	"gaussian":  "blur",
	"gray":      "grey",
	"greyscale": "grey",
	"grayscale": "grey",
	"colorize":  "colourise",
	"colorise":  "colourise",
	"colourize": "colourise",
}

// Parse builds a filter from "name" or "name=arg". It does not validate the
// parameter; see Pipeline.Validate.
func Parse(spec string) (Filter, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(spec), "=")
	name = strings.ToLower(strings.TrimSpace(name))
	arg = strings.TrimSpace(arg)
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}

	needArg := func() error {
		if !hasArg || arg == "" {
			return fmt.Errorf("filter %q requires an argument", name)
		}
		return nil
	}
	noArg := func(f Filter) (Filter, error) {
		if hasArg {
			return nil, fmt.Errorf("filter %q takes no argument", name)
		}
		return f, nil
	}

	switch name {
	case "blur":
		if err := needArg(); err != nil {
			return nil, err
		}
		u, err := parseUint(name, arg)
		return Blur{Radius: u}, err
	case "pixelate":
		if err := needArg(); err != nil {
			return nil, err
		}
		u, err := parseUint(name, arg)
		return Pixelate{Size: u}, err
	case "noise":
		if err := needArg(); err != nil {
			return nil, err
		}
		u, err := parseUint(name, arg)
		return Noise{Level: u}, err
	case "shift":
		if err := needArg(); err != nil {
			return nil, err
		}
		u, err := parseUint(name, arg)
		return Shift{Pixels: u}, err
	case "colourise":
		if err := needArg(); err != nil {
			return nil, err
		}
		u, err := parseARGB(arg)
		return Colourise{ARGB: u}, err
	case "tile":
		if err := needArg(); err != nil {
			return nil, err
		}
		hs, vs, ok := strings.Cut(arg, ",")
		if !ok {
			return nil, fmt.Errorf("tile: %q is not comma separated", arg)
		}
		h, err := parseUint(name, strings.TrimSpace(hs))
		if err != nil {
			return nil, err
		}
		v, err := parseUint(name, strings.TrimSpace(vs))
		return Tile{Horizontal: h, Vertical: v}, err
	case "grey":
		return noArg(Greyscale{})
	case "edge":
		return noArg(Edge{})
	case "invert":
		return noArg(Invert{})
	case "flip":
		return noArg(Flip{})
	case "flop":
		return noArg(Flop{})
	case "null":
		return noArg(Null{})
	case "stop":
		return noArg(Stop{})
	default:
		return nil, fmt.Errorf("unknown filter %q", name)
	}
}

func parseUint(name, s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an unsigned integer", name, s)
	}
	return uint32(v), nil
}

func parseARGB(s string) (uint32, error) {
	var (
		v   uint64
		err error
	)
	if rest, ok := strings.CutPrefix(s, "#"); ok {
		v, err = strconv.ParseUint(rest, 16, 32)
	} else {
		v, err = strconv.ParseUint(s, 0, 32)
	}
	if err != nil {
		return 0, fmt.Errorf("colourise: %q is not an #AARRGGBB colour", s)
	}
	return uint32(v), nil
}

// ParsePipeline parses every spec in order and validates the result.
func ParsePipeline(specs []string) (Pipeline, error) {
	p := make(Pipeline, 0, len(specs))
	for _, spec := range specs {
		f, err := Parse(spec)
		if err != nil {
			return nil, err
		}
		p = append(p, f)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Format renders f in the syntax accepted by Parse.
func Format(f Filter) string {
	switch v := f.(type) {
	case Blur:
		return fmt.Sprintf("blur=%d", v.Radius)
	case Pixelate:
		return fmt.Sprintf("pixelate=%d", v.Size)
	case Noise:
		return fmt.Sprintf("noise=%d", v.Level)
	case Shift:
		return fmt.Sprintf("shift=%d", v.Pixels)
	case Colourise:
		return fmt.Sprintf("colourise=#%08X", v.ARGB)
	case Tile:
		return fmt.Sprintf("tile=%d,%d", v.Horizontal, v.Vertical)
	default:
		return f.Name()
	}
}
