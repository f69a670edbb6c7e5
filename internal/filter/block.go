package filter

import "fmt"

const maxTiles = 64

// Pixelate replaces every Size×Size tile aligned to the origin with its
// average colour. Partial tiles at the right and bottom edge are left alone.
type Pixelate struct {
	Size uint32
}

func (Pixelate) Name() string { return "pixelate" }
func (Pixelate) filter()      {}

func (f Pixelate) Validate() error {
	if f.Size < 2 {
		return paramErr(f, fmt.Sprintf("pixels=%d", f.Size), "must be ≥ 2")
	}
	return nil
}

func (f Pixelate) Apply(img *Image) {
	siz := int(f.Size)
	for y := 0; y <= img.Height-siz; y += siz {
		for x := 0; x <= img.Width-siz; x += siz {
			avg := blockAverage(img, x, y, siz, siz)
			for dy := y; dy < y+siz; dy++ {
				row := img.Row(dy)
				for dx := x; dx < x+siz; dx++ {
					row[dx] = avg
				}
			}
		}
	}
}

// blockAverage returns the per-channel mean of the w×h block at (x, y).
func blockAverage(img *Image, x, y, w, h int) uint32 {
	var r, g, b int64
	for dy := y; dy < y+h; dy++ {
		row := img.Row(dy)
		for dx := x; dx < x+w; dx++ {
			pr, pg, pb := Channels(row[dx])
			r += int64(pr)
			g += int64(pg)
			b += int64(pb)
		}
	}
	n := int64(w * h)
	return RGB(int(r/n), int(g/n), int(b/n))
}

// Tile shrinks the image by block averaging into a (w/Horizontal)×(h/Vertical)
// miniature and repeats that miniature over the whole frame.
type Tile struct {
	Horizontal uint32
	Vertical   uint32
}

func (Tile) Name() string { return "tile" }
func (Tile) filter()      {}

func (f Tile) Validate() error {
	if f.Horizontal >= maxTiles {
		return paramErr(f, fmt.Sprintf("htile=%d", f.Horizontal), "nonsensically large, must be < %d", maxTiles)
	}
	if f.Vertical >= maxTiles {
		return paramErr(f, fmt.Sprintf("vtile=%d", f.Vertical), "nonsensically large, must be < %d", maxTiles)
	}
	if f.Horizontal == 0 {
		return paramErr(f, "htile=0", "must be non-zero")
	}
	if f.Vertical == 0 {
		return paramErr(f, "vtile=0", "must be non-zero")
	}
	if f.Horizontal == 1 && f.Vertical == 1 {
		return paramErr(f, "htile=1,vtile=1", "both cannot be one")
	}
	return nil
}

func (f Tile) Apply(img *Image) {
	nw, nh := int(f.Horizontal), int(f.Vertical)
	w, h := img.Width, img.Height
	sw, sh := w/nw, h/nh
	if sw == 0 || sh == 0 {
		return
	}

	small := make([]uint32, 0, sw*sh)
	for y := 0; y <= h-nh; y += nh {
		for x := 0; x <= w-nw; x += nw {
			small = append(small, blockAverage(img, x, y, nw, nh))
		}
	}

	for y := 0; y < h; y++ {
		row := img.Row(y)
		srow := small[(y%sh)*sw : (y%sh+1)*sw]
		for x := 0; x < w; x++ {
			row[x] = srow[x%sw]
		}
	}
}
