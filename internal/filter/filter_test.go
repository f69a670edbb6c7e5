package filter

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func testImage(w, h int, seed uint64) *Image {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	img := NewImage(w, h)
	for i := range img.Pix {
		img.Pix[i] = rng.Uint32() & 0xFFFFFF
	}
	return img
}

func TestValidateRejectsInvalidParameters(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
	}{
		{"blur radius 1", Blur{Radius: 1}},
		{"blur radius 30", Blur{Radius: 30}},
		{"pixelate size 1", Pixelate{Size: 1}},
		{"pixelate size 0", Pixelate{Size: 0}},
		{"tile h zero", Tile{Horizontal: 0, Vertical: 2}},
		{"tile v zero", Tile{Horizontal: 2, Vertical: 0}},
		{"tile both one", Tile{Horizontal: 1, Vertical: 1}},
		{"tile too large", Tile{Horizontal: 64, Vertical: 2}},
		{"shift zero", Shift{Pixels: 0}},
		{"noise too large", Noise{Level: 256}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if err == nil {
				t.Fatalf("expected %s to be rejected", Format(tt.filter))
			}
			var pe *ParamError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParamError, got %T", err)
			}
			if pe.Filter != tt.filter.Name() {
				t.Fatalf("expected filter name %q, got %q", tt.filter.Name(), pe.Filter)
			}
		})
	}
}

func TestValidateAcceptsBoundaryParameters(t *testing.T) {
	valid := []Filter{
		Blur{Radius: 2}, Blur{Radius: 29},
		Pixelate{Size: 2},
		Tile{Horizontal: 1, Vertical: 2}, Tile{Horizontal: 63, Vertical: 63},
		Shift{Pixels: 1},
		Noise{Level: 0}, Noise{Level: 255},
		Colourise{ARGB: 0xFFFFFFFF},
		Greyscale{}, Edge{}, Invert{}, Flip{}, Flop{}, Null{},
	}
	for _, f := range valid {
		if err := f.Validate(); err != nil {
			t.Fatalf("%s: unexpected error %v", Format(f), err)
		}
	}
}

func TestPipelineValidateStopsAtFirstRejection(t *testing.T) {
	p := Pipeline{Pixelate{Size: 4}, Blur{Radius: 1}, Shift{Pixels: 0}}
	err := p.Validate()
	var pe *ParamError
	if !errors.As(err, &pe) || pe.Filter != "blur" {
		t.Fatalf("expected blur rejection, got %v", err)
	}
}

func TestEmptyPipelineIsIdentity(t *testing.T) {
	img := testImage(17, 11, 1)
	orig := img.Clone()
	Pipeline{}.Apply(img)
	if !img.Equal(orig) {
		t.Fatalf("empty pipeline changed the image")
	}
}

func TestPipelineStopsAtSentinel(t *testing.T) {
	img := testImage(8, 8, 2)
	want := img.Clone()
	Invert{}.Apply(want)

	Pipeline{Invert{}, Stop{}, Invert{}, Flip{}}.Apply(img)
	if !img.Equal(want) {
		t.Fatalf("filters after Stop were applied")
	}
}

func TestPipelineAppliesInOrder(t *testing.T) {
	img := NewImage(4, 1)
	copy(img.Pix, []uint32{1, 2, 3, 4})

	// flop then shift-right-by-one on row 0 (even).
	Pipeline{Flop{}, Shift{Pixels: 1}}.Apply(img)
	want := []uint32{1, 4, 3, 2}
	for i := range want {
		if img.Pix[i] != want[i] {
			t.Fatalf("pixel %d: expected %d, got %d (%v)", i, want[i], img.Pix[i], img.Pix)
		}
	}
}

func TestInvolutions(t *testing.T) {
	for _, f := range []Filter{Flip{}, Flop{}, Invert{}} {
		for _, size := range [][2]int{{1, 1}, {5, 4}, {16, 9}, {7, 13}} {
			img := testImage(size[0], size[1], 3)
			orig := img.Clone()
			f.Apply(img)
			f.Apply(img)
			if !img.Equal(orig) {
				t.Fatalf("%s applied twice on %dx%d is not the identity", f.Name(), size[0], size[1])
			}
		}
	}
}

func TestFlipAndFlopMirror(t *testing.T) {
	img := NewImage(3, 2)
	copy(img.Pix, []uint32{1, 2, 3, 4, 5, 6})

	flipped := img.Clone()
	Flip{}.Apply(flipped)
	if got := flipped.Pix; got[0] != 4 || got[2] != 6 || got[3] != 1 || got[5] != 3 {
		t.Fatalf("unexpected flip result %v", got)
	}

	flopped := img.Clone()
	Flop{}.Apply(flopped)
	if got := flopped.Pix; got[0] != 3 || got[1] != 2 || got[2] != 1 || got[3] != 6 {
		t.Fatalf("unexpected flop result %v", got)
	}
}

func TestInvertComplementsChannels(t *testing.T) {
	img := NewImage(1, 1)
	img.Pix[0] = 0x123456
	Invert{}.Apply(img)
	if img.Pix[0] != 0xEDCBA9 {
		t.Fatalf("expected 0xEDCBA9, got 0x%06X", img.Pix[0])
	}
}

func TestGreyscaleEqualChannelsAndIdempotent(t *testing.T) {
	img := testImage(23, 19, 4)
	Greyscale{}.Apply(img)
	for i, p := range img.Pix {
		r, g, b := Channels(p)
		if r != g || g != b {
			t.Fatalf("pixel %d has unequal channels %d,%d,%d", i, r, g, b)
		}
	}
	once := img.Clone()
	Greyscale{}.Apply(img)
	if !img.Equal(once) {
		t.Fatalf("greyscale is not idempotent")
	}
}

func TestGreyscaleWeights(t *testing.T) {
	img := NewImage(3, 1)
	copy(img.Pix, []uint32{0xFF0000, 0x00FF00, 0x0000FF})
	Greyscale{}.Apply(img)
	want := []int{76, 147, 30}
	for i, w := range want {
		if r, _, _ := Channels(img.Pix[i]); r != w {
			t.Fatalf("pixel %d: expected luma %d, got %d", i, w, r)
		}
	}
}

func TestPixelateUniformBlocks(t *testing.T) {
	for _, s := range []int{2, 3, 4, 7} {
		img := testImage(30, 22, uint64(s))
		orig := img.Clone()
		Pixelate{Size: uint32(s)}.Apply(img)

		fullW := (img.Width / s) * s
		fullH := (img.Height / s) * s
		for by := 0; by < fullH; by += s {
			for bx := 0; bx < fullW; bx += s {
				want := img.At(bx, by)
				for y := by; y < by+s; y++ {
					for x := bx; x < bx+s; x++ {
						if img.At(x, y) != want {
							t.Fatalf("size %d: block (%d,%d) not uniform at (%d,%d)", s, bx, by, x, y)
						}
					}
				}
			}
		}
		// Trailing partial tiles are untouched.
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				if (x >= fullW || y >= fullH) && img.At(x, y) != orig.At(x, y) {
					t.Fatalf("size %d: partial tile pixel (%d,%d) changed", s, x, y)
				}
			}
		}
	}
}

func TestPixelateAveragesChannels(t *testing.T) {
	img := NewImage(2, 2)
	copy(img.Pix, []uint32{0x000000, 0x040404, 0x080808, 0x0C0C0C})
	Pixelate{Size: 2}.Apply(img)
	for _, p := range img.Pix {
		if p != 0x060606 {
			t.Fatalf("expected 0x060606, got 0x%06X", p)
		}
	}
}

func TestPixelateAlreadyUniformBlocksUnchanged(t *testing.T) {
	img := NewImage(16, 12)
	rng := rand.New(rand.NewPCG(9, 9))
	for by := 0; by < 12; by += 4 {
		for bx := 0; bx < 16; bx += 4 {
			c := rng.Uint32() & 0xFFFFFF
			for y := by; y < by+4; y++ {
				for x := bx; x < bx+4; x++ {
					img.Set(x, y, c)
				}
			}
		}
	}
	orig := img.Clone()
	pipeline, err := ParsePipeline([]string{"pixelate=4"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	pipeline.Apply(img)
	if !img.Equal(orig) {
		t.Fatalf("pixelate changed an image made of uniform 4x4 blocks")
	}
}

func TestBlurKeepsUniformImage(t *testing.T) {
	for _, r := range []uint32{2, 5, 29} {
		img := NewImage(13, 9)
		for i := range img.Pix {
			img.Pix[i] = 0x7F3A11
		}
		Blur{Radius: r}.Apply(img)
		for i, p := range img.Pix {
			if p != 0x7F3A11 {
				t.Fatalf("radius %d: pixel %d changed to 0x%06X", r, i, p)
			}
		}
	}
}

func TestBlurSmoothsImpulse(t *testing.T) {
	img := NewImage(9, 9)
	img.Set(4, 4, 0xFFFFFF)
	Blur{Radius: 2}.Apply(img)

	center, _, _ := Channels(img.At(4, 4))
	neighbour, _, _ := Channels(img.At(5, 4))
	far, _, _ := Channels(img.At(8, 8))
	if center >= 0xFF || center == 0 {
		t.Fatalf("expected centre to be spread, got %d", center)
	}
	if neighbour == 0 || neighbour > center {
		t.Fatalf("expected neighbour in (0, %d], got %d", center, neighbour)
	}
	if far != 0 {
		t.Fatalf("expected pixel outside the kernel to stay black, got %d", far)
	}
}

func TestBinomialKernel(t *testing.T) {
	kern := binomialKernel(2)
	want := []uint64{1, 4, 6, 4, 1}
	for i := range want {
		if kern[i] != want[i] {
			t.Fatalf("kernel %v, expected %v", kern, want)
		}
	}
	if k := binomialKernel(29); k[29] != 30067266499541040 {
		t.Fatalf("unexpected central weight for radius 29: %d", k[29])
	}
}

func TestTileRepeatsMiniature(t *testing.T) {
	img := NewImage(4, 4)
	// Left half red, right half blue.
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if x < 2 {
				img.Set(x, y, 0xFF0000)
			} else {
				img.Set(x, y, 0x0000FF)
			}
		}
	}
	Tile{Horizontal: 2, Vertical: 2}.Apply(img)
	// The 2x2 miniature is [red blue; red blue], repeated twice in each axis.
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := uint32(0xFF0000)
			if x%2 == 1 {
				want = 0x0000FF
			}
			if img.At(x, y) != want {
				t.Fatalf("(%d,%d): expected 0x%06X, got 0x%06X", x, y, want, img.At(x, y))
			}
		}
	}
}

func TestTileTooSmallImageIsUntouched(t *testing.T) {
	img := testImage(3, 3, 5)
	orig := img.Clone()
	Tile{Horizontal: 4, Vertical: 4}.Apply(img)
	if !img.Equal(orig) {
		t.Fatalf("tile modified an image smaller than one block")
	}
}

func TestShiftRotatesRows(t *testing.T) {
	img := NewImage(5, 2)
	copy(img.Pix, []uint32{0, 1, 2, 3, 4, 0, 1, 2, 3, 4})
	Shift{Pixels: 2}.Apply(img)

	even := []uint32{3, 4, 0, 1, 2}
	odd := []uint32{2, 3, 4, 0, 1}
	for x := 0; x < 5; x++ {
		if img.At(x, 0) != even[x] {
			t.Fatalf("row 0: got %v, expected %v", img.Row(0), even)
		}
		if img.At(x, 1) != odd[x] {
			t.Fatalf("row 1: got %v, expected %v", img.Row(1), odd)
		}
	}
}

func TestShiftByWidthIsIdentity(t *testing.T) {
	img := testImage(6, 4, 6)
	orig := img.Clone()
	Shift{Pixels: 6}.Apply(img)
	if !img.Equal(orig) {
		t.Fatalf("shifting by the full width changed the image")
	}
	Shift{Pixels: 13}.Apply(img)
	Shift{Pixels: 1}.Apply(img)
	// 13 mod 6 = 1; rows shift by 2 in total, never wrapping outside the row.
	for y := 0; y < img.Height; y++ {
		seen := map[uint32]int{}
		for _, p := range img.Row(y) {
			seen[p]++
		}
		for _, p := range orig.Row(y) {
			seen[p]--
		}
		for p, n := range seen {
			if n != 0 {
				t.Fatalf("row %d lost or gained pixel 0x%06X", y, p)
			}
		}
	}
}

func TestNoiseStaysWithinLevel(t *testing.T) {
	img := testImage(32, 32, 7)
	orig := img.Clone()
	Noise{Level: 16, Rand: rand.New(rand.NewPCG(1, 2))}.Apply(img)

	changed := false
	for i := range img.Pix {
		r0, g0, b0 := Channels(orig.Pix[i])
		r1, g1, b1 := Channels(img.Pix[i])
		for _, d := range []int{r1 - r0, g1 - g0, b1 - b0} {
			if d <= -16 || d >= 16 {
				t.Fatalf("pixel %d moved by %d, outside (-16, 16)", i, d)
			}
			if d != 0 {
				changed = true
			}
		}
	}
	if !changed {
		t.Fatalf("noise did not change any pixel")
	}
}

func TestNoiseClampsChannels(t *testing.T) {
	img := NewImage(64, 1)
	for i := range img.Pix {
		if i%2 == 0 {
			img.Pix[i] = 0xFFFFFF
		}
	}
	Noise{Level: 255, Rand: rand.New(rand.NewPCG(3, 4))}.Apply(img)
	for _, p := range img.Pix {
		if p > 0xFFFFFF {
			t.Fatalf("pixel overflowed into the unused byte: 0x%08X", p)
		}
	}
}

func TestNoiseZeroLevelIsNoop(t *testing.T) {
	img := testImage(4, 4, 8)
	orig := img.Clone()
	Noise{Level: 0}.Apply(img)
	if !img.Equal(orig) {
		t.Fatalf("noise level 0 changed the image")
	}
}

func TestColouriseBlendsPerChannel(t *testing.T) {
	img := NewImage(1, 1)
	img.Pix[0] = 0x204060

	opaque := img.Clone()
	Colourise{ARGB: 0xFF0A0B0C}.Apply(opaque)
	if opaque.Pix[0] != 0x0A0B0C {
		t.Fatalf("opaque colourise: expected 0x0A0B0C, got 0x%06X", opaque.Pix[0])
	}

	clear := img.Clone()
	Colourise{ARGB: 0x00FFFFFF}.Apply(clear)
	if clear.Pix[0] != 0x204060 {
		t.Fatalf("transparent colourise: expected unchanged, got 0x%06X", clear.Pix[0])
	}

	half := img.Clone()
	Colourise{ARGB: 0x80FF0000}.Apply(half)
	r, g, b := Channels(half.Pix[0])
	if r <= 0x20 || g >= 0x40 || b >= 0x60 {
		t.Fatalf("half colourise: unexpected channels %d,%d,%d", r, g, b)
	}
}

func TestEdgeLeavesBorderAndDetectsStep(t *testing.T) {
	img := NewImage(6, 6)
	for y := 0; y < 6; y++ {
		for x := 3; x < 6; x++ {
			img.Set(x, y, 0xFFFFFF)
		}
	}
	orig := img.Clone()
	Edge{}.Apply(img)

	for x := 0; x < 6; x++ {
		if img.At(x, 0) != orig.At(x, 0) || img.At(x, 5) != orig.At(x, 5) {
			t.Fatalf("edge modified the top or bottom border at x=%d", x)
		}
	}
	for y := 0; y < 6; y++ {
		if img.At(0, y) != orig.At(0, y) || img.At(5, y) != orig.At(5, y) {
			t.Fatalf("edge modified the left or right border at y=%d", y)
		}
	}
	if v, _, _ := Channels(img.At(1, 2)); v != 0 {
		t.Fatalf("flat region should have zero gradient, got %d", v)
	}
	// Horizontal step: dy = 4*255/8 = 127, dx = 0, avg = 63.
	if v, _, _ := Channels(img.At(2, 2)); v != 63 {
		t.Fatalf("expected gradient 63 at the step, got %d", v)
	}
}

func TestReleaseZeroesBuffer(t *testing.T) {
	img := testImage(4, 4, 10)
	pix := img.Pix
	img.Release()
	if img.Pix != nil || img.Width != 0 || img.Height != 0 {
		t.Fatalf("expected an empty image after Release")
	}
	for _, p := range pix {
		if p != 0 {
			t.Fatalf("expected released pixels to be zeroed")
		}
	}
}
