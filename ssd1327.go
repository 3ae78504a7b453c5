package ssd1327

import (
	"errors"
	"fmt"
	"image"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// SSD1327 command set. Values are mandated by the datasheet.
const (
	scrollSetup         = 0x26 // 6 params; bit 0 selects the direction
	deactivateScroll    = 0x2E
	activateScroll      = 0x2F
	setColumnAddr       = 0x15 // start, end; 0..63, one column per 2 pixels
	setRowAddr          = 0x75 // start, end; 0..127
	setContrast         = 0x81 // level; 0..255
	setRemap            = 0xA0 // segment remap / scan direction bits
	setDisplayStartLine = 0xA1 // line; 0..127
	setDisplayOffset    = 0xA2 // vertical offset; 0..127
	setDisplayNormal    = 0xA4
	setDisplayAllOn     = 0xA5
	setDisplayAllOff    = 0xA6
	setDisplayInvert    = 0xA7
	setMultiplexRatio   = 0xA8 // ratio; height-1
	setFunctionA        = 0xAB // 0x01 enables the internal VDD regulator
	setDisplayOff       = 0xAE
	setDisplayOn        = 0xAF
	setPhaseLength      = 0xB1
	setClockDivider     = 0xB3
	setSecondPrecharge  = 0xB6
	setPrechargeVoltage = 0xBC
	setVCOMH            = 0xBE
	setFunctionB        = 0xD5
	setCommandLock      = 0xFD // 0x12 unlocks, 0x16 locks
)

// I²C transactions carry a control byte announcing whether the rest of the
// transfer is a command stream or a data stream.
const (
	i2cCmd  = 0x00
	i2cData = 0x40
)

// The controller addresses at most 64 columns (2 pixels each) and 128 rows.
const (
	maxWidth  = 128
	maxHeight = 128
)

// ErrBounds is returned when a pixel coordinate falls outside the display.
var ErrBounds = errors.New("ssd1327: out of display bounds")

var errHalted = errors.New("ssd1327: halted")

// DisplayMode selects how the controller maps GDDRAM content to the panel.
type DisplayMode byte

// Supported display modes.
const (
	DisplayNormal DisplayMode = setDisplayNormal
	DisplayAllOn  DisplayMode = setDisplayAllOn
	DisplayAllOff DisplayMode = setDisplayAllOff
	DisplayInvert DisplayMode = setDisplayInvert
)

// ScrollSpeed is the number of frame intervals between each scroll step.
type ScrollSpeed byte

// Supported scroll speeds, slowest last.
const (
	Scroll2Frames   ScrollSpeed = 0b111
	Scroll3Frames   ScrollSpeed = 0b100
	Scroll4Frames   ScrollSpeed = 0b101
	Scroll5Frames   ScrollSpeed = 0b110
	Scroll6Frames   ScrollSpeed = 0b000
	Scroll32Frames  ScrollSpeed = 0b001
	Scroll64Frames  ScrollSpeed = 0b010
	Scroll256Frames ScrollSpeed = 0b011
)

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	W:    128,
	H:    128,
	Addr: 0x3C,
}

// Opts is the configuration for the SSD1327 display.
//
// The dimensions are those of the panel in its native orientation; Rotation
// only changes the logical coordinate space exposed to callers.
type Opts struct {
	W int // Width in pixels (must be even, 2..128)
	H int // Height in pixels (1..128)

	// Rotation applied to the logical coordinate space.
	Rotation Rotation

	// Addr is the I²C address. Ignored for SPI. Defaults to 0x3C.
	Addr uint16

	// RST is an optional reset pin. When set, a hardware reset pulse is
	// issued before initialization.
	RST gpio.PinIO
}

// Dev is an open handle to a SSD1327 display in raw command mode.
//
// Raw mode issues controller commands directly and owns no pixel buffer.
// Call Graphics to enter buffered graphics mode; the transition is one-way.
type Dev struct {
	// Communication
	c   conn.Conn
	dc  gpio.PinOut // Data/Command pin, SPI only
	spi bool
	rst gpio.PinIO

	// Display geometry, native (unrotated) orientation.
	rect     image.Rectangle
	rotation Rotation

	// State
	graphics *Graphics
	halted   bool
}

// NewI2C returns a Dev that communicates over I²C to a SSD1327 display
// controller.
//
// Each transaction is prefixed with a control byte selecting between command
// and data streams, as required by the controller's I²C protocol. The bus
// should run at 400kHz.
//
// opts can be nil to use DefaultOpts (128x128 at address 0x3C).
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultOpts.Addr
	}
	return newDev(&i2c.Dev{Bus: b, Addr: addr}, opts, false, nil)
}

// NewSPI returns a Dev that communicates over 4-wire SPI to a SSD1327
// display controller.
//
// The port is configured for 4MHz, Mode0, 8 bits per word. The dc pin
// selects between command (low) and data (high) transfers and is required;
// the controller has no 3-wire mode on this driver.
//
// opts can be nil to use DefaultOpts (128x128).
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if dc == nil || dc == gpio.INVALID {
		return nil, errors.New("ssd1327: a valid data/command pin is required")
	}
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	if err := dc.Out(gpio.Low); err != nil {
		return nil, err
	}
	c, err := p.Connect(4*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, err
	}
	return newDev(c, opts, true, dc)
}

// newDev is the transport-independent construction path. Option violations
// are rejected here, before any bus traffic.
func newDev(c conn.Conn, opts *Opts, usingSPI bool, dc gpio.PinOut) (*Dev, error) {
	if opts.W <= 0 || opts.W%2 != 0 || opts.W > maxWidth {
		return nil, fmt.Errorf("ssd1327: width must be even and between 2 and %d, got %d", maxWidth, opts.W)
	}
	if opts.H <= 0 || opts.H > maxHeight {
		return nil, fmt.Errorf("ssd1327: height must be between 1 and %d, got %d", maxHeight, opts.H)
	}
	d := &Dev{
		c:        c,
		dc:       dc,
		spi:      usingSPI,
		rst:      opts.RST,
		rect:     image.Rect(0, 0, opts.W, opts.H),
		rotation: opts.Rotation,
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("ssd1327.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}

// Bounds returns the display dimensions in the logical (rotated) coordinate
// space. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	if d.rotation.vertical() {
		return image.Rect(0, 0, d.rect.Dy(), d.rect.Dx())
	}
	return d.rect
}

// Rotation returns the configured display rotation.
func (d *Dev) Rotation() Rotation {
	return d.rotation
}

// init runs the power-up configuration. The command order is mandated by
// the controller and must not be changed.
func (d *Dev) init() error {
	if d.rst != nil {
		if err := d.reset(); err != nil {
			return err
		}
	}
	remap, startLine := d.rotation.remap()
	if err := d.sendCommand([]byte{
		setDisplayOff,
		setMultiplexRatio, byte(d.rect.Dy() - 1),
		setRemap, remap,
		setDisplayStartLine, startLine,
		setDisplayOffset, 0x00,
		setDisplayNormal,
		setPhaseLength, 0xF1,
		setClockDivider, 0x00, // 100Hz
		setFunctionA, 0x01, // internal VDD regulator
		setSecondPrecharge, 0x04,
		setContrast, 0x7F,
		setVCOMH, 0x05, // 0.82 x Vcc
		setPrechargeVoltage, 0x05, // 0.50 x Vcc
		setFunctionB, 0x62,
		setCommandLock, 0x12,
		deactivateScroll,
	}); err != nil {
		return err
	}
	// The GDDRAM content is undefined after power-up.
	if err := d.clearRAM(); err != nil {
		return err
	}
	return d.sendCommand([]byte{setDisplayOn})
}

// reset pulses the RST pin per the datasheet timing.
func (d *Dev) reset() error {
	if err := d.rst.Out(gpio.High); err != nil {
		return err
	}
	time.Sleep(time.Millisecond)
	if err := d.rst.Out(gpio.Low); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	if err := d.rst.Out(gpio.High); err != nil {
		return err
	}
	time.Sleep(100 * time.Millisecond)
	return nil
}

func (d *Dev) clearRAM() error {
	if err := d.setWindow(0, d.rect.Dx()/2-1, 0, d.rect.Dy()-1); err != nil {
		return err
	}
	return d.sendData(make([]byte, d.rect.Dx()*d.rect.Dy()/2))
}

// setWindow programs the column and row address window. The controller's
// address pointer auto-increments within this window on data writes.
func (d *Dev) setWindow(colStart, colEnd, rowStart, rowEnd int) error {
	if colStart < 0 || colStart > colEnd || colEnd >= d.rect.Dx()/2 {
		return fmt.Errorf("ssd1327: invalid column window %d..%d", colStart, colEnd)
	}
	if rowStart < 0 || rowStart > rowEnd || rowEnd >= d.rect.Dy() {
		return fmt.Errorf("ssd1327: invalid row window %d..%d", rowStart, rowEnd)
	}
	return d.sendCommand([]byte{
		setColumnAddr, byte(colStart), byte(colEnd),
		setRowAddr, byte(rowStart), byte(rowEnd),
	})
}

// sendCommand sends a stream of command bytes.
func (d *Dev) sendCommand(cmds []byte) error {
	if d.spi {
		if err := d.dc.Out(gpio.Low); err != nil {
			return err
		}
		return d.c.Tx(cmds, nil)
	}
	return d.c.Tx(append([]byte{i2cCmd}, cmds...), nil)
}

// sendData sends a stream of GDDRAM data bytes.
func (d *Dev) sendData(data []byte) error {
	if d.spi {
		if err := d.dc.Out(gpio.High); err != nil {
			return err
		}
		return d.c.Tx(data, nil)
	}
	return d.c.Tx(append([]byte{i2cData}, data...), nil)
}

// SetContrast sets the display contrast (0-255).
func (d *Dev) SetContrast(level byte) error {
	if d.halted {
		return errHalted
	}
	return d.sendCommand([]byte{setContrast, level})
}

// SetDisplayMode selects between normal, all-on, all-off and inverted
// rendering of the GDDRAM content.
func (d *Dev) SetDisplayMode(m DisplayMode) error {
	if d.halted {
		return errHalted
	}
	if m < DisplayNormal || m > DisplayInvert {
		return fmt.Errorf("ssd1327: invalid display mode %#02x", byte(m))
	}
	return d.sendCommand([]byte{byte(m)})
}

// Invert the display (black on white vs white on black).
func (d *Dev) Invert(invert bool) error {
	if invert {
		return d.SetDisplayMode(DisplayInvert)
	}
	return d.SetDisplayMode(DisplayNormal)
}

// SetDisplayStartLine scrolls the panel output to start from the given RAM
// row (0-127).
func (d *Dev) SetDisplayStartLine(line byte) error {
	if d.halted {
		return errHalted
	}
	if line >= maxHeight {
		return fmt.Errorf("ssd1327: invalid start line %d", line)
	}
	return d.sendCommand([]byte{setDisplayStartLine, line})
}

// Write writes a full frame of raw pixel data to the display in packed
// 2-pixels-per-byte format, bypassing any buffering.
//
// Write is a raw mode operation; it fails once buffered graphics mode has
// been entered. The data must be exactly W*H/2 bytes.
func (d *Dev) Write(pixels []byte) (int, error) {
	if d.halted {
		return 0, errHalted
	}
	if d.graphics != nil {
		return 0, errors.New("ssd1327: buffered graphics mode is active, draw and Flush instead")
	}
	if len(pixels) != d.rect.Dx()*d.rect.Dy()/2 {
		return 0, fmt.Errorf("ssd1327: invalid pixel stream length; expected %d bytes, got %d bytes", d.rect.Dx()*d.rect.Dy()/2, len(pixels))
	}
	if err := d.setWindow(0, d.rect.Dx()/2-1, 0, d.rect.Dy()-1); err != nil {
		return 0, err
	}
	if err := d.sendData(pixels); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// ScrollHorizontal starts hardware scrolling of the rows startRow..endRow
// (inclusive, in native orientation). If right is true the content moves
// right, otherwise left.
//
// Only one scrolling operation can be active at a time.
func (d *Dev) ScrollHorizontal(startRow, endRow int, speed ScrollSpeed, right bool) error {
	if d.halted {
		return errHalted
	}
	if startRow < 0 || startRow > endRow || endRow >= d.rect.Dy() {
		return fmt.Errorf("ssd1327: invalid scroll rows %d..%d", startRow, endRow)
	}
	cmd := byte(scrollSetup)
	if right {
		cmd |= 1
	}
	return d.sendCommand([]byte{
		cmd,
		0x00, // dummy byte
		byte(startRow),
		byte(speed),
		byte(endRow),
		0x00, byte(d.rect.Dx()/2 - 1), // full column span
		activateScroll,
	})
}

// StopScroll stops any active hardware scrolling.
func (d *Dev) StopScroll() error {
	if d.halted {
		return errHalted
	}
	return d.sendCommand([]byte{deactivateScroll})
}

// Halt turns the display off. The GDDRAM content is retained.
//
// Further operations fail until the device is re-created.
func (d *Dev) Halt() error {
	if err := d.sendCommand([]byte{setDisplayOff}); err != nil {
		return err
	}
	d.halted = true
	return nil
}
