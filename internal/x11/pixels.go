package x11

import (
	"encoding/binary"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/xveil/internal/filter"
)

// putImageHeader is the fixed size of a PutImage request in bytes.
const putImageHeader = 24

// byteOrder returns the server's image byte order.
func byteOrder(setup *xproto.SetupInfo) binary.ByteOrder {
	if setup.ImageByteOrder == xproto.ImageOrderMSBFirst {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// bitsPerPixel returns the Z-pixmap bits per pixel for depth.
func bitsPerPixel(setup *xproto.SetupInfo, depth byte) (int, error) {
	for _, f := range setup.PixmapFormats {
		if f.Depth == depth {
			return int(f.BitsPerPixel), nil
		}
	}
	return 0, fmt.Errorf("no pixmap format for depth %d", depth)
}

// decodePixels turns 32 bpp Z-pixmap data into a frame.
func decodePixels(data []byte, w, h int, order binary.ByteOrder) (*filter.Image, error) {
	if len(data) < w*h*4 {
		return nil, fmt.Errorf("image data too short: %d bytes for %dx%d", len(data), w, h)
	}
	img := filter.NewImage(w, h)
	for i := range img.Pix {
		img.Pix[i] = order.Uint32(data[i*4:])
	}
	return img, nil
}

// encodeRows renders rows [y0, y1) of img as 32 bpp Z-pixmap data.
func encodeRows(img *filter.Image, y0, y1 int, order binary.ByteOrder) []byte {
	pix := img.Pix[y0*img.Width : y1*img.Width]
	out := make([]byte, len(pix)*4)
	for i, p := range pix {
		order.PutUint32(out[i*4:], p)
	}
	return out
}

// bandRows returns how many rows of width pixels fit in one request of at
// most maxBytes.
func bandRows(width, maxBytes int) int {
	if width <= 0 {
		return 0
	}
	rows := (maxBytes - putImageHeader) / (width * 4)
	return max(rows, 1)
}
