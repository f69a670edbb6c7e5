package filter

// Flip mirrors the image top to bottom.
type Flip struct{}

func (Flip) Name() string    { return "flip" }
func (Flip) Validate() error { return nil }
func (Flip) filter()         {}

func (Flip) Apply(img *Image) {
	tmp := make([]uint32, img.Width)
	for y := 0; y < img.Height/2; y++ {
		hi := img.Row(y)
		lo := img.Row(img.Height - y - 1)
		copy(tmp, hi)
		copy(hi, lo)
		copy(lo, tmp)
	}
}

// Flop mirrors the image left to right.
type Flop struct{}

func (Flop) Name() string    { return "flop" }
func (Flop) Validate() error { return nil }
func (Flop) filter()         {}

func (Flop) Apply(img *Image) {
	w := img.Width
	for y := 0; y < img.Height; y++ {
		row := img.Row(y)
		for x := 0; x < w/2; x++ {
			row[x], row[w-x-1] = row[w-x-1], row[x]
		}
	}
}

// Shift barrel-rotates every scanline by Pixels whole pixels: odd rows to the
// left, even rows to the right.
type Shift struct {
	Pixels uint32
}

func (Shift) Name() string { return "shift" }
func (Shift) filter()      {}

func (f Shift) Validate() error {
	if f.Pixels == 0 {
		return paramErr(f, "pixels=0", "must be non-zero")
	}
	return nil
}

func (f Shift) Apply(img *Image) {
	w := img.Width
	if w == 0 {
		return
	}
	n := int(f.Pixels % uint32(w))
	if n == 0 {
		return
	}
	tmp := make([]uint32, w)
	for y := 0; y < img.Height; y++ {
		row := img.Row(y)
		copy(tmp, row)
		if y%2 == 1 {
			// left: row[x] = old[x+n]
			copy(row, tmp[n:])
			copy(row[w-n:], tmp[:n])
		} else {
			// right: row[x+n] = old[x]
			copy(row[n:], tmp[:w-n])
			copy(row, tmp[w-n:])
		}
	}
}
