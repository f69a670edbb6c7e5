package x11

import "github.com/BurntSushi/xgb/xproto"

// BorderRects returns the frame drawn around m: four filled strips in the
// state colour, then two nested outlines in the shade. A width below 2 draws
// nothing.
func BorderRects(m Rect, width int) (fill [4]Rect, outline [2]Rect, ok bool) {
	b := width
	if b < 2 || m.Width < 2*b || m.Height < 2*b {
		return fill, outline, false
	}
	x, y, w, h := m.X, m.Y, m.Width, m.Height

	fill = [4]Rect{
		{X: x + 1, Y: y + 1, Width: b - 2, Height: h - 2},
		{X: x + w - b + 1, Y: y + 1, Width: b - 2, Height: h - 2},
		{X: x + b - 1, Y: y + 1, Width: w - 2*b + 2, Height: b - 2},
		{X: x + b - 1, Y: y + h - b + 1, Width: w - 2*b + 2, Height: b - 2},
	}

	b, w, h = b-1, w-1, h-1
	outline = [2]Rect{
		{X: x, Y: y, Width: w, Height: h},
		{X: x + b, Y: y + b, Width: w - 2*b, Height: h - 2*b},
	}
	return fill, outline, true
}

func xrect(r Rect) xproto.Rectangle {
	return xproto.Rectangle{
		X:      int16(r.X),
		Y:      int16(r.Y),
		Width:  uint16(max(r.Width, 0)),
		Height: uint16(max(r.Height, 0)),
	}
}

func xrects(rs []Rect) []xproto.Rectangle {
	out := make([]xproto.Rectangle, len(rs))
	for i, r := range rs {
		out[i] = xrect(r)
	}
	return out
}

// swatchRects are the debug colour samples: one column per state, fill
// colour on top and outline shade below.
func swatchRects(states int) (fill, border []Rect) {
	for i := 0; i < states; i++ {
		x := 50 + 100*i
		fill = append(fill, Rect{X: x, Y: 50, Width: 50, Height: 50})
		border = append(border, Rect{X: x, Y: 150, Width: 50, Height: 50})
	}
	return fill, border
}
