package ssd1327

// Rotation defines the rotation of the logical coordinate space relative to
// the panel. It is selected at construction time.
type Rotation uint8

// Supported rotations, clockwise.
const (
	Rotate0 Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

func (r Rotation) String() string {
	switch r % 4 {
	case Rotate90:
		return "90°"
	case Rotate180:
		return "180°"
	case Rotate270:
		return "270°"
	default:
		return "0°"
	}
}

// vertical reports whether the rotation swaps the display's axes.
func (r Rotation) vertical() bool {
	return r == Rotate90 || r == Rotate270
}

// remap returns the segment remap parameter and display start line for the
// rotation. The remap bits select column order, nibble order and COM scan
// direction; the parameter combinations are fixed by the panel wiring and
// must match the datasheet.
func (r Rotation) remap() (remap, startLine byte) {
	switch r % 4 {
	case Rotate90:
		return 0x58, 0x00
	case Rotate180:
		return 0x15, 0x00
	case Rotate270:
		return 0x17, 0x78
	default:
		return 0x5C, 0x00
	}
}

// transform maps a logical coordinate to the native buffer coordinate.
// Mirroring for 180° (and the mirror component of 270°) is performed by the
// controller remap, so only the axis swap happens host-side. The mapping is
// its own inverse.
func (r Rotation) transform(x, y int) (int, int) {
	if r.vertical() {
		return y, x
	}
	return x, y
}
