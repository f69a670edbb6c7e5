package filter

import (
	"image"
	"image/color"
)

// Image is a captured frame: Width*Height pixels, row-major, one uint32 per
// pixel laid out as 0x__RRGGBB.
type Image struct {
	Pix    []uint32
	Width  int
	Height int
}

// NewImage allocates a zeroed w×h image.
func NewImage(w, h int) *Image {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Image{Pix: make([]uint32, w*h), Width: w, Height: h}
}

// At returns the pixel at (x, y).
func (img *Image) At(x, y int) uint32 {
	return img.Pix[y*img.Width+x]
}

// Set stores p at (x, y).
func (img *Image) Set(x, y int, p uint32) {
	img.Pix[y*img.Width+x] = p
}

// Row returns the pixels of row y, sharing storage with img.
func (img *Image) Row(y int) []uint32 {
	return img.Pix[y*img.Width : (y+1)*img.Width]
}

// Clone returns a deep copy.
func (img *Image) Clone() *Image {
	pix := make([]uint32, len(img.Pix))
	copy(pix, img.Pix)
	return &Image{Pix: pix, Width: img.Width, Height: img.Height}
}

// Equal reports whether both images have the same size and pixels.
func (img *Image) Equal(other *Image) bool {
	if img.Width != other.Width || img.Height != other.Height || len(img.Pix) != len(other.Pix) {
		return false
	}
	for i := range img.Pix {
		if img.Pix[i] != other.Pix[i] {
			return false
		}
	}
	return true
}

// Release zeroes the pixels and drops the buffer. The image is empty afterwards.
func (img *Image) Release() {
	if img == nil {
		return
	}
	clear(img.Pix)
	img.Pix = nil
	img.Width = 0
	img.Height = 0
}

// Channels unpacks p into its red, green and blue components.
func Channels(p uint32) (r, g, b int) {
	return int(p>>16) & 0xFF, int(p>>8) & 0xFF, int(p) & 0xFF
}

// RGB packs three channels, clamping each to [0, 255].
func RGB(r, g, b int) uint32 {
	return uint32(clamp(r))<<16 | uint32(clamp(g))<<8 | uint32(clamp(b))
}

func clamp(v int) int {
	if v > 0xFF {
		return 0xFF
	}
	if v < 0 {
		return 0
	}
	return v
}

// FromImage converts any image.Image into a frame.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	img := NewImage(b.Dx(), b.Dy())
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c := color.RGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			img.Set(x, y, RGB(int(c.R), int(c.G), int(c.B)))
		}
	}
	return img
}

// RGBA converts the frame to an opaque *image.RGBA.
func (img *Image) RGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, g, b := Channels(img.At(x, y))
			i := out.PixOffset(x, y)
			out.Pix[i+0] = uint8(r)
			out.Pix[i+1] = uint8(g)
			out.Pix[i+2] = uint8(b)
			out.Pix[i+3] = 0xFF
		}
	}
	return out
}
