package filter

import "fmt"

const maxBlurRadius = 30

// Blur is a separable binomial blur. Samples outside the image are dropped
// from both the weighted sum and the divisor.
type Blur struct {
	Radius uint32
}

func (Blur) Name() string { return "blur" }
func (Blur) filter()      {}

func (f Blur) Validate() error {
	if f.Radius < 2 {
		return paramErr(f, fmt.Sprintf("radius=%d", f.Radius), "must be ≥ 2")
	}
	if f.Radius >= maxBlurRadius {
		return paramErr(f, fmt.Sprintf("radius=%d", f.Radius), "must be < %d, kernel weights overflow", maxBlurRadius)
	}
	return nil
}

// binomialKernel returns the 2r+1 binomial coefficients C(2r, i).
func binomialKernel(radius int) []uint64 {
	n := 2*radius + 1
	kern := make([]uint64, n)
	kern[0] = 1
	for i := 1; i < n; i++ {
		kern[i] = kern[i-1] * uint64(n-i) / uint64(i)
	}
	return kern
}

func (f Blur) Apply(img *Image) {
	w, h := img.Width, img.Height
	if w == 0 || h == 0 {
		return
	}
	rad := int(f.Radius)
	kern := binomialKernel(rad)
	tmp := make([]uint32, len(img.Pix))

	for y := 0; y < h; y++ {
		row := img.Row(y)
		for x := 0; x < w; x++ {
			var r, g, b, div float64
			for i, k := range kern {
				dx := x - rad + i
				if dx < 0 || dx >= w {
					continue
				}
				wt := float64(k)
				pr, pg, pb := Channels(row[dx])
				r += float64(pr) * wt
				g += float64(pg) * wt
				b += float64(pb) * wt
				div += wt
			}
			tmp[y*w+x] = RGB(round(r/div), round(g/div), round(b/div))
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, b, div float64
			for i, k := range kern {
				dy := y - rad + i
				if dy < 0 || dy >= h {
					continue
				}
				wt := float64(k)
				pr, pg, pb := Channels(tmp[dy*w+x])
				r += float64(pr) * wt
				g += float64(pg) * wt
				b += float64(pb) * wt
				div += wt
			}
			img.Pix[y*w+x] = RGB(round(r/div), round(g/div), round(b/div))
		}
	}
}

func round(v float64) int {
	return int(v + 0.5)
}
