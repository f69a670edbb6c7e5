package x11

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// ParseColor parses "#RRGGBB". ok is false for anything else, which the
// caller then resolves as a server colour name.
func ParseColor(spec string) (r, g, b uint8, ok bool) {
	hex, found := strings.CutPrefix(spec, "#")
	if !found || len(hex) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}

// BorderShade nudges each channel 0x10 towards mid grey so the outline
// contrasts with the fill.
func BorderShade(r, g, b uint8) (uint8, uint8, uint8) {
	return shade(r), shade(g), shade(b)
}

func shade(c uint8) uint8 {
	if c < 0x80 {
		return c + 0x10
	}
	return c - 0x10
}

// stateColors holds the allocated fill and outline pixel of one state.
type stateColors struct {
	Fill   uint32
	Border uint32
}

// allocColor allocates an 8-bit-per-channel colour in cmap.
func allocColor(conn *xgb.Conn, cmap xproto.Colormap, r, g, b uint8) (uint32, error) {
	reply, err := xproto.AllocColor(conn, cmap, uint16(r)*257, uint16(g)*257, uint16(b)*257).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to alloc color %02x%02x%02x: %w", r, g, b, err)
	}
	return reply.Pixel, nil
}

// resolveColor allocates the fill colour named by spec and its outline
// shade.
func resolveColor(conn *xgb.Conn, cmap xproto.Colormap, spec string) (stateColors, error) {
	var sc stateColors

	r, g, b, ok := ParseColor(spec)
	if ok {
		pixel, err := allocColor(conn, cmap, r, g, b)
		if err != nil {
			return sc, err
		}
		sc.Fill = pixel
	} else {
		reply, err := xproto.AllocNamedColor(conn, cmap, uint16(len(spec)), spec).Reply()
		if err != nil {
			return sc, fmt.Errorf("failed to alloc color %s: %w", spec, err)
		}
		sc.Fill = reply.Pixel
		r, g, b = uint8(reply.ExactRed>>8), uint8(reply.ExactGreen>>8), uint8(reply.ExactBlue>>8)
	}

	r, g, b = BorderShade(r, g, b)
	pixel, err := allocColor(conn, cmap, r, g, b)
	if err != nil {
		return sc, err
	}
	sc.Border = pixel
	return sc, nil
}
