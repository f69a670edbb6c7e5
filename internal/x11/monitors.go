package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// Rect is a monitor's area in root window coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Monitors returns the active monitor areas of screen. Without RandR, or when
// RandR reports no active CRTC, the whole screen is one monitor. A failing
// RandR query is an error.
func (c *Connection) Monitors(screen *xproto.ScreenInfo) ([]Rect, error) {
	whole := Rect{Width: int(screen.WidthInPixels), Height: int(screen.HeightInPixels)}
	if !c.RandR {
		return []Rect{whole}, nil
	}

	resources, err := randr.GetScreenResources(c.Conn(), screen.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("unable to get randr screen resources: %w", err)
	}

	var monitors []Rect
	for _, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("unable to get randr crtc info: %w", err)
		}

		// Skip disabled CRTCs
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		r, ok := clip(Rect{
			X:      int(info.X),
			Y:      int(info.Y),
			Width:  int(info.Width),
			Height: int(info.Height),
		}, whole)
		if !ok || contains(monitors, r) {
			continue
		}
		monitors = append(monitors, r)
		c.logger.Debug("monitor", "root", screen.Root, "x", r.X, "y", r.Y, "w", r.Width, "h", r.Height)
	}

	if len(monitors) == 0 {
		return []Rect{whole}, nil
	}
	return monitors, nil
}

// clip intersects r with bounds. Mirrored outputs share a CRTC rect and
// panned outputs can hang off the root window.
func clip(r, bounds Rect) (Rect, bool) {
	x1 := max(r.X, bounds.X)
	y1 := max(r.Y, bounds.Y)
	x2 := min(r.X+r.Width, bounds.X+bounds.Width)
	y2 := min(r.Y+r.Height, bounds.Y+bounds.Height)

	if x2 <= x1 || y2 <= y1 {
		return Rect{}, false
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}, true
}

func contains(rects []Rect, r Rect) bool {
	for _, have := range rects {
		if have == r {
			return true
		}
	}
	return false
}
