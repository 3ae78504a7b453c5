package ssd1327

import (
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/conn/v3/display"

	"periph.io/x/devices/v3/ssd1327/image4bit"
)

// Graphics is a display handle in buffered graphics mode.
//
// It owns a packed 4-bit framebuffer in the panel's native orientation.
// Drawing operations only mutate the buffer; nothing reaches the bus until
// Flush is called. Graphics implements display.Drawer, so it can be used as
// a target by any image composition code.
type Graphics struct {
	*Dev

	buf *image4bit.HorizontalNibble

	// Dirty row range in native orientation, inclusive. Empty when
	// dirtyMin > dirtyMax. Widened by writes, never narrowed; cleared only
	// by a successful Flush.
	dirtyMin, dirtyMax int
}

// Graphics switches the display into buffered graphics mode.
//
// The transition allocates a zero-filled framebuffer and is one-way: raw
// frame writes through Dev.Write fail afterwards, so buffered drawing and
// raw streaming cannot interleave. Repeated calls return the same handle.
func (d *Dev) Graphics() *Graphics {
	if d.graphics == nil {
		d.graphics = &Graphics{
			Dev:      d,
			buf:      image4bit.NewHorizontalNibble(d.rect),
			dirtyMin: d.rect.Dy(),
			dirtyMax: -1,
		}
	}
	return d.graphics
}

// ColorModel implements display.Drawer.
//
// Colors are reduced to 4-bit grayscale through image4bit.Gray4Model.
func (g *Graphics) ColorModel() color.Model {
	return image4bit.Gray4Model
}

// SetPixel sets the pixel at (x, y), in logical coordinates, to the given
// intensity. It returns ErrBounds when the coordinate is outside Bounds().
//
// The dirty row range is widened only when the write changes the buffer.
func (g *Graphics) SetPixel(x, y int, c image4bit.Gray4) error {
	if !(image.Point{X: x, Y: y}.In(g.Bounds())) {
		return ErrBounds
	}
	bx, by := g.rotation.transform(x, y)
	idx := by*g.buf.Stride + bx/2
	old := g.buf.Pix[idx]
	g.buf.SetGray4(bx, by, c)
	if g.buf.Pix[idx] != old {
		g.markDirty(by, by)
	}
	return nil
}

// PixelAt returns the intensity of the pixel at (x, y), in logical
// coordinates. It returns ErrBounds when the coordinate is outside Bounds().
func (g *Graphics) PixelAt(x, y int) (image4bit.Gray4, error) {
	if !(image.Point{X: x, Y: y}.In(g.Bounds())) {
		return image4bit.Gray4{}, ErrBounds
	}
	bx, by := g.rotation.transform(x, y)
	return g.buf.Gray4At(bx, by), nil
}

// Clear fills the framebuffer with the given intensity and marks it all
// dirty.
func (g *Graphics) Clear(c image4bit.Gray4) {
	b := c.Y & 0x0F
	b |= b << 4
	for i := range g.buf.Pix {
		g.buf.Pix[i] = b
	}
	g.markDirty(0, g.rect.Dy()-1)
}

// Draw implements display.Drawer.
//
// It composites src into the framebuffer through the Gray4 color model and
// marks the covered rows dirty. Draw performs no bus I/O; call Flush to
// update the panel.
func (g *Graphics) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(g.Bounds())
	if r.Empty() {
		return nil
	}
	if g.rotation.vertical() {
		// The buffer is stored unrotated; transpose pixel by pixel.
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				bx, by := g.rotation.transform(x, y)
				g.buf.Set(bx, by, src.At(sp.X+x-r.Min.X, sp.Y+y-r.Min.Y))
			}
		}
		// Logical x spans native rows after the axis swap.
		g.markDirty(r.Min.X, r.Max.X-1)
		return nil
	}
	draw.Draw(g.buf, r, src, sp, draw.Src)
	g.markDirty(r.Min.Y, r.Max.Y-1)
	return nil
}

// Flush transmits the framebuffer to the display.
//
// When nothing changed since the last successful Flush, it returns without
// any bus I/O. Otherwise it programs the full addressing window and streams
// the whole packed buffer; the controller's address pointer auto-increments
// across the window, so a partial stream would leave it out of sync with the
// host buffer. On transport failure the dirty range is left untouched and a
// retry resends the same frame.
func (g *Graphics) Flush() error {
	if g.dirtyMin > g.dirtyMax {
		return nil
	}
	if g.halted {
		return errHalted
	}
	if err := g.setWindow(0, g.rect.Dx()/2-1, 0, g.rect.Dy()-1); err != nil {
		return err
	}
	if err := g.sendData(g.buf.Pix); err != nil {
		return err
	}
	g.dirtyMin = g.rect.Dy()
	g.dirtyMax = -1
	return nil
}

// SetRotation changes the rotation of the logical coordinate space.
//
// The framebuffer stores pixels in native orientation, so its content
// survives the change, but the panel-side remap changes and the next Flush
// covers the full buffer.
func (g *Graphics) SetRotation(r Rotation) error {
	if g.halted {
		return errHalted
	}
	remap, startLine := r.remap()
	if err := g.sendCommand([]byte{
		setRemap, remap,
		setDisplayStartLine, startLine,
	}); err != nil {
		return err
	}
	g.rotation = r
	g.markDirty(0, g.rect.Dy()-1)
	return nil
}

func (g *Graphics) markDirty(minRow, maxRow int) {
	if minRow < g.dirtyMin {
		g.dirtyMin = minRow
	}
	if maxRow > g.dirtyMax {
		g.dirtyMax = maxRow
	}
}

// Interface check
var _ display.Drawer = &Graphics{}
