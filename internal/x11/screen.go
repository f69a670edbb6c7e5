package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/xveil/internal/filter"
	"github.com/1broseidon/xveil/internal/lock"
)

const windowEventMask = xproto.EventMaskExposure |
	xproto.EventMaskKeyPress |
	xproto.EventMaskKeyRelease |
	xproto.EventMaskVisibilityChange |
	xproto.EventMaskStructureNotify

// Screen is one X screen under lock. The window, GC, colormap, image and
// monitor rects live and die together.
type Screen struct {
	info     *xproto.ScreenInfo
	window   xproto.Window
	gc       xproto.Gcontext
	cmap     xproto.Colormap
	image    *filter.Image
	monitors []Rect
	colors   [lock.NumStates]stateColors
}

// Root returns the screen's root window.
func (s *Screen) Root() xproto.Window { return s.info.Root }

// Window returns the lock window.
func (s *Screen) Window() xproto.Window { return s.window }

// Monitors returns the current monitor rects.
func (s *Screen) Monitors() []Rect { return s.monitors }

// createResources sets up the graphics context, colormap and the full-screen
// override-redirect window.
func (s *Screen) createResources(conn *xgb.Conn) error {
	root := s.info.Root

	// Root geometry changes arrive as ConfigureNotify.
	err := xproto.ChangeWindowAttributesChecked(conn, root, xproto.CwEventMask,
		[]uint32{xproto.EventMaskStructureNotify}).Check()
	if err != nil {
		return fmt.Errorf("could not select root events: %w", err)
	}

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		return err
	}
	err = xproto.CreateGCChecked(conn, gc, xproto.Drawable(root),
		xproto.GcForeground|xproto.GcGraphicsExposures,
		[]uint32{s.info.WhitePixel, 0}).Check()
	if err != nil {
		return fmt.Errorf("could not create gc: %w", err)
	}
	s.gc = gc

	cmap, err := xproto.NewColormapId(conn)
	if err != nil {
		return err
	}
	err = xproto.CreateColormapChecked(conn, xproto.ColormapAllocNone, cmap, root, s.info.RootVisual).Check()
	if err != nil {
		return fmt.Errorf("could not create colormap: %w", err)
	}
	s.cmap = cmap

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return err
	}
	err = xproto.CreateWindowChecked(
		conn,
		s.info.RootDepth,
		wid,
		root,
		0, 0,
		s.info.WidthInPixels, s.info.HeightInPixels,
		0,
		xproto.WindowClassInputOutput,
		s.info.RootVisual,
		xproto.CwOverrideRedirect|xproto.CwEventMask|xproto.CwColormap,
		[]uint32{1, windowEventMask, uint32(cmap)},
	).Check()
	if err != nil {
		return fmt.Errorf("could not create window: %w", err)
	}
	s.window = wid
	return nil
}

func (s *Screen) allocColors(conn *xgb.Conn, specs [lock.NumStates]string) error {
	for i, spec := range specs {
		sc, err := resolveColor(conn, s.cmap, spec)
		if err != nil {
			return fmt.Errorf("%s colour: %w", lock.State(i), err)
		}
		s.colors[i] = sc
	}
	return nil
}

func selectScreenChange(conn *xgb.Conn, root xproto.Window) error {
	return randr.SelectInputChecked(conn, root, randr.NotifyMaskScreenChange).Check()
}

// capture reads the root window contents into a frame.
func (s *Screen) capture(conn *xgb.Conn, setup *xproto.SetupInfo) (*filter.Image, error) {
	bpp, err := bitsPerPixel(setup, s.info.RootDepth)
	if err != nil {
		return nil, err
	}
	if bpp != 32 {
		return nil, fmt.Errorf("unsupported root format: depth %d at %d bpp", s.info.RootDepth, bpp)
	}

	w, h := int(s.info.WidthInPixels), int(s.info.HeightInPixels)
	reply, err := xproto.GetImage(conn, xproto.ImageFormatZPixmap, xproto.Drawable(s.info.Root),
		0, 0, uint16(w), uint16(h), 0xFFFFFFFF).Reply()
	if err != nil {
		return nil, fmt.Errorf("unable to get image: %w", err)
	}
	img, err := decodePixels(reply.Data, w, h, byteOrder(setup))
	clear(reply.Data)
	return img, err
}

// setForeground changes the GC foreground.
func (s *Screen) setForeground(conn *xgb.Conn, pixel uint32) error {
	if err := xproto.ChangeGCChecked(conn, s.gc, xproto.GcForeground, []uint32{pixel}).Check(); err != nil {
		return fmt.Errorf("could not change gc foreground to 0x%08x: %w", pixel, err)
	}
	return nil
}

// putImage draws the obscured frame, in bands that fit the request limit.
func (s *Screen) putImage(conn *xgb.Conn, setup *xproto.SetupInfo, debug int) error {
	img := s.image
	if img == nil || img.Width == 0 {
		return nil
	}
	order := byteOrder(setup)
	rows := bandRows(img.Width, int(setup.MaximumRequestLength)*4)
	for y := 0; y < img.Height; y += rows {
		y1 := min(y+rows, img.Height)
		data := encodeRows(img, y, y1, order)
		err := xproto.PutImageChecked(conn, xproto.ImageFormatZPixmap, xproto.Drawable(s.window), s.gc,
			uint16(img.Width), uint16(y1-y), 0, int16(y), 0, s.info.RootDepth, data).Check()
		clear(data)
		if err != nil {
			return fmt.Errorf("could not put image: %w", err)
		}
	}

	if debug > 2 {
		return s.paintSwatches(conn)
	}
	return nil
}

func (s *Screen) paintSwatches(conn *xgb.Conn) error {
	fill, border := swatchRects(lock.NumStates)
	for i := range fill {
		if err := s.setForeground(conn, s.colors[i].Fill); err != nil {
			return err
		}
		xproto.PolyFillRectangle(conn, xproto.Drawable(s.window), s.gc, []xproto.Rectangle{xrect(fill[i])})
		if err := s.setForeground(conn, s.colors[i].Border); err != nil {
			return err
		}
		xproto.PolyFillRectangle(conn, xproto.Drawable(s.window), s.gc, []xproto.Rectangle{xrect(border[i])})
	}
	return nil
}

// paintBorder frames every monitor in the colour of state.
func (s *Screen) paintBorder(conn *xgb.Conn, width int, state lock.State) error {
	sc := s.colors[state]
	for _, m := range s.monitors {
		fill, outline, ok := BorderRects(m, width)
		if !ok {
			continue
		}
		if err := s.setForeground(conn, sc.Fill); err != nil {
			return err
		}
		xproto.PolyFillRectangle(conn, xproto.Drawable(s.window), s.gc, xrects(fill[:]))
		if err := s.setForeground(conn, sc.Border); err != nil {
			return err
		}
		xproto.PolyRectangle(conn, xproto.Drawable(s.window), s.gc, xrects(outline[:]))
	}
	return nil
}

// release frees the server resources and zeroes the frame.
func (s *Screen) release(conn *xgb.Conn) {
	s.image.Release()
	s.image = nil
	if s.window != 0 {
		xproto.DestroyWindow(conn, s.window)
	}
	if s.cmap != 0 {
		xproto.FreeColormap(conn, s.cmap)
	}
	if s.gc != 0 {
		xproto.FreeGC(conn, s.gc)
	}
}
