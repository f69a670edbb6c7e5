package filter

import (
	"fmt"
	"math/rand/v2"
)

// luma uses integer weights so a grey pixel maps onto itself.
func luma(p uint32) int {
	r, g, b := Channels(p)
	return clamp((30*r + 58*g + 12*b) / 100)
}

// Greyscale replaces every pixel with its luma.
type Greyscale struct{}

func (Greyscale) Name() string    { return "grey" }
func (Greyscale) Validate() error { return nil }
func (Greyscale) filter()         {}

func (Greyscale) Apply(img *Image) {
	for i, p := range img.Pix {
		v := luma(p)
		img.Pix[i] = RGB(v, v, v)
	}
}

// Edge is a grey Sobel gradient magnitude. The outermost pixel ring keeps its
// original colour.
type Edge struct{}

func (Edge) Name() string    { return "edge" }
func (Edge) Validate() error { return nil }
func (Edge) filter()         {}

func (Edge) Apply(img *Image) {
	w, h := img.Width, img.Height
	grey := make([]int, len(img.Pix))
	for i, p := range img.Pix {
		grey[i] = luma(p)
	}
	for y := 1; y < h-1; y++ {
		rp := grey[(y-1)*w : y*w]
		rc := grey[y*w : (y+1)*w]
		rn := grey[(y+1)*w : (y+2)*w]
		for x := 1; x < w-1; x++ {
			dx := abs((-rp[x-1] - 2*rp[x] - rp[x+1] + rn[x-1] + 2*rn[x] + rn[x+1]) / 8)
			dy := abs((-rp[x-1] - 2*rc[x-1] - rn[x-1] + rp[x+1] + 2*rc[x+1] + rn[x+1]) / 8)
			avg := (dx + dy) / 2
			img.Pix[y*w+x] = RGB(avg, avg, avg)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Invert complements the RGB channels.
type Invert struct{}

func (Invert) Name() string    { return "invert" }
func (Invert) Validate() error { return nil }
func (Invert) filter()         {}

func (Invert) Apply(img *Image) {
	for i := range img.Pix {
		img.Pix[i] ^= 0xFFFFFF
	}
}

// Colourise blends every pixel towards the colour in ARGB, using its alpha
// byte as the blend factor.
type Colourise struct {
	ARGB uint32
}

func (Colourise) Name() string    { return "colourise" }
func (Colourise) Validate() error { return nil }
func (Colourise) filter()         {}

func (f Colourise) Apply(img *Image) {
	a := float64(f.ARGB>>24&0xFF) / 255.0
	cr, cg, cb := Channels(f.ARGB)
	rr, gg, bb := float64(cr)*a, float64(cg)*a, float64(cb)*a
	keep := 1 - a
	for i, p := range img.Pix {
		r, g, b := Channels(p)
		img.Pix[i] = RGB(
			round(float64(r)*keep+rr),
			round(float64(g)*keep+gg),
			round(float64(b)*keep+bb),
		)
	}
}

// Noise displaces every channel by a random amount in (-Level, Level).
type Noise struct {
	Level uint32
	// Rand is the randomness source. A nil Rand uses a freshly seeded PCG.
	Rand *rand.Rand
}

func (Noise) Name() string { return "noise" }
func (Noise) filter()      {}

func (f Noise) Validate() error {
	if f.Level > 0xFF {
		return paramErr(f, fmt.Sprintf("noise=0x%04x", f.Level), "must be ≤ 0xFF")
	}
	return nil
}

func (f Noise) Apply(img *Image) {
	n := int(f.Level)
	if n == 0 {
		return
	}
	rng := f.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	for i, p := range img.Pix {
		base := rng.Uint32()
		br, bg, bb := Channels(base)
		r, g, b := Channels(p)
		r += (br % n) * sign(base, 0x01000000)
		g += (bg % n) * sign(base, 0x02000000)
		b += (bb % n) * sign(base, 0x04000000)
		img.Pix[i] = RGB(r, g, b)
	}
}

func sign(word, bit uint32) int {
	if word&bit != 0 {
		return 1
	}
	return -1
}
