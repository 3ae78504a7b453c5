package image4bit

import "image/color"

// Gray4 is a 4-bit grayscale color with 16 intensity levels. Only the low
// nibble of Y is meaningful; out of range values are masked.
type Gray4 struct {
	Y uint8
}

// RGBA implements color.Color. The 4-bit intensity is replicated across the
// 16-bit channel, so 0x0 maps to 0x0000 and 0xF to 0xFFFF.
func (c Gray4) RGBA() (r, g, b, a uint32) {
	y := uint32(c.Y&0x0F) * 0x1111
	return y, y, y, 0xFFFF
}

// Gray4Model converts any color.Color to Gray4.
var Gray4Model = color.ModelFunc(gray4Model)

func gray4Model(c color.Color) color.Color {
	if g, ok := c.(Gray4); ok {
		return Gray4{Y: g.Y & 0x0F}
	}
	r, g, b, _ := c.RGBA()
	// Luminance reduction with the JFIF coefficients, same as
	// image/color.GrayModel, truncated to the high nibble.
	y := (299*r + 587*g + 114*b + 500) / 1000
	return Gray4{Y: uint8(y >> 12)}
}
