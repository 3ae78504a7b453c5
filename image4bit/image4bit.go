// Package image4bit implements 4-bit grayscale (16 levels) 2D graphics in
// the packed layout used by SSD13xx grayscale OLED controllers.
//
// It is compatible with package image/draw. Each byte holds two horizontally
// adjacent pixels: the high nibble is the left (even x) pixel, the low
// nibble the right (odd x) pixel. This matches the controller's GDDRAM scan
// order, so the Pix slice can be streamed to the display as-is.
package image4bit

import (
	"image"
	"image/color"
	"image/draw"
)

// HorizontalNibble is a 4-bit grayscale image packed two pixels per byte.
type HorizontalNibble struct {
	// Pix holds the packed pixels, in row-major order.
	Pix []byte
	// Stride is the Pix distance in bytes between two vertically adjacent
	// pixels; Dx()/2 for images created by NewHorizontalNibble.
	Stride int
	// Rect is the image bounds.
	Rect image.Rectangle
}

// NewHorizontalNibble returns an initialized (zeroed) image.
//
// The width must be even, since a byte cannot be split across rows; odd
// widths panic.
func NewHorizontalNibble(r image.Rectangle) *HorizontalNibble {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &HorizontalNibble{Rect: r}
	}
	if w%2 != 0 {
		panic("image4bit: width must be even")
	}
	stride := w / 2
	return &HorizontalNibble{
		Pix:    make([]byte, stride*h),
		Stride: stride,
		Rect:   r,
	}
}

// ColorModel implements image.Image.
func (p *HorizontalNibble) ColorModel() color.Model {
	return Gray4Model
}

// Bounds implements image.Image.
func (p *HorizontalNibble) Bounds() image.Rectangle {
	return p.Rect
}

// At implements image.Image.
func (p *HorizontalNibble) At(x, y int) color.Color {
	return p.Gray4At(x, y)
}

// Gray4At returns the intensity of the pixel at (x, y). Out of bounds
// coordinates return black.
func (p *HorizontalNibble) Gray4At(x, y int) Gray4 {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return Gray4{}
	}
	offset, shift := p.pixOffset(x, y)
	return Gray4{Y: (p.Pix[offset] >> shift) & 0x0F}
}

// Set implements draw.Image. Out of bounds writes are ignored.
func (p *HorizontalNibble) Set(x, y int, c color.Color) {
	p.SetGray4(x, y, Gray4Model.Convert(c).(Gray4))
}

// SetGray4 sets the intensity of the pixel at (x, y) without going through
// color model conversion. The neighboring pixel sharing the byte is left
// untouched. Out of bounds writes are ignored.
func (p *HorizontalNibble) SetGray4(x, y int, c Gray4) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	offset, shift := p.pixOffset(x, y)
	p.Pix[offset] = (p.Pix[offset] &^ (0x0F << shift)) | ((c.Y & 0x0F) << shift)
}

// pixOffset returns the byte index and nibble shift for (x, y). Even x maps
// to the high nibble, odd x to the low nibble.
func (p *HorizontalNibble) pixOffset(x, y int) (offset int, shift uint) {
	offset = (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)/2
	shift = uint(4 * (1 - (x & 1)))
	return
}

// Interface checks
var (
	_ image.Image = &HorizontalNibble{}
	_ draw.Image  = &HorizontalNibble{}
)
