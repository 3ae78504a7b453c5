package ssd1327

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/spi/spitest"
)

const testAddr = 0x3C

// initCmds128x128 is the expected power-up command stream for a 128x128
// panel without rotation.
var initCmds128x128 = []byte{
	setDisplayOff,
	setMultiplexRatio, 0x7F,
	setRemap, 0x5C,
	setDisplayStartLine, 0x00,
	setDisplayOffset, 0x00,
	setDisplayNormal,
	setPhaseLength, 0xF1,
	setClockDivider, 0x00,
	setFunctionA, 0x01,
	setSecondPrecharge, 0x04,
	setContrast, 0x7F,
	setVCOMH, 0x05,
	setPrechargeVoltage, 0x05,
	setFunctionB, 0x62,
	setCommandLock, 0x12,
	deactivateScroll,
}

func cmdIO(cmds ...byte) i2ctest.IO {
	return i2ctest.IO{Addr: testAddr, W: append([]byte{i2cCmd}, cmds...)}
}

func dataIO(data []byte) i2ctest.IO {
	return i2ctest.IO{Addr: testAddr, W: append([]byte{i2cData}, data...)}
}

// newTestDev returns an initialized 128x128 I²C device with the init
// traffic dropped from the recorder.
func newTestDev(t *testing.T, opts *Opts) (*Dev, *i2ctest.Record) {
	t.Helper()
	bus := &i2ctest.Record{}
	d, err := NewI2C(bus, opts)
	if err != nil {
		t.Fatalf("NewI2C() failed: %v", err)
	}
	bus.Ops = nil
	return d, bus
}

func TestNewI2C_Init(t *testing.T) {
	bus := &i2ctest.Record{}
	d, err := NewI2C(bus, &Opts{W: 128, H: 128, Addr: testAddr})
	if err != nil {
		t.Fatalf("NewI2C() failed: %v", err)
	}
	want := []i2ctest.IO{
		cmdIO(initCmds128x128...),
		cmdIO(setColumnAddr, 0x00, 0x3F, setRowAddr, 0x00, 0x7F),
		dataIO(make([]byte, 8192)),
		cmdIO(setDisplayOn),
	}
	if diff := cmp.Diff(want, bus.Ops); diff != "" {
		t.Errorf("init sequence mismatch (-want +got):\n%s", diff)
	}
	if got, want := d.String(), "ssd1327.Dev{128x128}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestNewI2C_Rotate270(t *testing.T) {
	bus := &i2ctest.Record{}
	if _, err := NewI2C(bus, &Opts{W: 128, H: 128, Rotation: Rotate270}); err != nil {
		t.Fatalf("NewI2C() failed: %v", err)
	}
	if len(bus.Ops) == 0 {
		t.Fatal("no init traffic recorded")
	}
	cmds := bus.Ops[0].W
	for i := 0; i < len(cmds)-1; i++ {
		if cmds[i] == setRemap && cmds[i+1] != 0x17 {
			t.Errorf("remap parameter = %#02x, want 0x17", cmds[i+1])
		}
		if cmds[i] == setDisplayStartLine && cmds[i+1] != 0x78 {
			t.Errorf("start line = %#02x, want 0x78", cmds[i+1])
		}
	}
}

func TestNewI2C_InvalidSize(t *testing.T) {
	tests := []struct {
		name string
		opts Opts
	}{
		{"odd width", Opts{W: 127, H: 64}},
		{"zero width", Opts{W: 0, H: 64}},
		{"width too large", Opts{W: 256, H: 64}},
		{"zero height", Opts{W: 128, H: 0}},
		{"height too large", Opts{W: 128, H: 192}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &i2ctest.Record{}
			if _, err := NewI2C(bus, &tt.opts); err == nil {
				t.Fatal("expected a configuration error")
			}
			// Validation happens before any bus traffic.
			if len(bus.Ops) != 0 {
				t.Errorf("recorded %d bus operations, want 0", len(bus.Ops))
			}
		})
	}
}

func TestNewSPI_Init(t *testing.T) {
	port := &spitest.Record{}
	dc := &gpiotest.Pin{N: "DC", Num: 24}
	d, err := NewSPI(port, dc, nil)
	if err != nil {
		t.Fatalf("NewSPI() failed: %v", err)
	}
	// Init command stream, clear window, zero frame, display on.
	if len(port.Ops) != 4 {
		t.Fatalf("recorded %d operations, want 4", len(port.Ops))
	}
	if diff := cmp.Diff(initCmds128x128, port.Ops[0].W); diff != "" {
		t.Errorf("init command stream mismatch (-want +got):\n%s", diff)
	}
	if got := len(port.Ops[2].W); got != 8192 {
		t.Errorf("clear frame = %d bytes, want 8192", got)
	}
	if d.Bounds() != image.Rect(0, 0, 128, 128) {
		t.Errorf("Bounds() = %v", d.Bounds())
	}
}

func TestNewSPI_RequiresDC(t *testing.T) {
	if _, err := NewSPI(&spitest.Record{}, nil, nil); err == nil {
		t.Fatal("expected an error for a missing data/command pin")
	}
}

func TestBounds_Rotated(t *testing.T) {
	d := &Dev{rect: image.Rect(0, 0, 128, 64)}
	for _, tt := range []struct {
		rotation Rotation
		want     image.Rectangle
	}{
		{Rotate0, image.Rect(0, 0, 128, 64)},
		{Rotate90, image.Rect(0, 0, 64, 128)},
		{Rotate180, image.Rect(0, 0, 128, 64)},
		{Rotate270, image.Rect(0, 0, 64, 128)},
	} {
		d.rotation = tt.rotation
		if got := d.Bounds(); got != tt.want {
			t.Errorf("Bounds() with %s = %v, want %v", tt.rotation, got, tt.want)
		}
	}
}

func TestSetContrast(t *testing.T) {
	d, bus := newTestDev(t, nil)
	if err := d.SetContrast(0xC8); err != nil {
		t.Fatal(err)
	}
	want := []i2ctest.IO{cmdIO(setContrast, 0xC8)}
	if diff := cmp.Diff(want, bus.Ops); diff != "" {
		t.Errorf("operation mismatch (-want +got):\n%s", diff)
	}
}

func TestSetDisplayMode(t *testing.T) {
	d, bus := newTestDev(t, nil)
	for _, m := range []DisplayMode{DisplayNormal, DisplayAllOn, DisplayAllOff, DisplayInvert} {
		if err := d.SetDisplayMode(m); err != nil {
			t.Fatal(err)
		}
	}
	want := []i2ctest.IO{
		cmdIO(setDisplayNormal),
		cmdIO(setDisplayAllOn),
		cmdIO(setDisplayAllOff),
		cmdIO(setDisplayInvert),
	}
	if diff := cmp.Diff(want, bus.Ops); diff != "" {
		t.Errorf("operation mismatch (-want +got):\n%s", diff)
	}
	if err := d.SetDisplayMode(DisplayMode(0x81)); err == nil {
		t.Error("expected an error for an invalid display mode")
	}
}

func TestInvert(t *testing.T) {
	d, bus := newTestDev(t, nil)
	if err := d.Invert(true); err != nil {
		t.Fatal(err)
	}
	if err := d.Invert(false); err != nil {
		t.Fatal(err)
	}
	want := []i2ctest.IO{cmdIO(setDisplayInvert), cmdIO(setDisplayNormal)}
	if diff := cmp.Diff(want, bus.Ops); diff != "" {
		t.Errorf("operation mismatch (-want +got):\n%s", diff)
	}
}

func TestSetDisplayStartLine(t *testing.T) {
	d, bus := newTestDev(t, nil)
	if err := d.SetDisplayStartLine(32); err != nil {
		t.Fatal(err)
	}
	want := []i2ctest.IO{cmdIO(setDisplayStartLine, 32)}
	if diff := cmp.Diff(want, bus.Ops); diff != "" {
		t.Errorf("operation mismatch (-want +got):\n%s", diff)
	}
	if err := d.SetDisplayStartLine(128); err == nil {
		t.Error("expected an error for start line 128")
	}
}

func TestSetWindow_Validation(t *testing.T) {
	d := &Dev{rect: image.Rect(0, 0, 128, 128)}
	tests := []struct {
		name                               string
		colStart, colEnd, rowStart, rowEnd int
	}{
		{"negative column", -1, 63, 0, 127},
		{"column start after end", 10, 9, 0, 127},
		{"column end too large", 0, 64, 0, 127},
		{"negative row", 0, 63, -1, 127},
		{"row start after end", 0, 63, 100, 99},
		{"row end too large", 0, 63, 0, 128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := d.setWindow(tt.colStart, tt.colEnd, tt.rowStart, tt.rowEnd); err == nil {
				t.Error("expected a parameter error")
			}
		})
	}
}

func TestWrite(t *testing.T) {
	d, bus := newTestDev(t, nil)
	if _, err := d.Write(make([]byte, 100)); err == nil {
		t.Fatal("expected an error for a short pixel stream")
	}
	pixels := make([]byte, 8192)
	pixels[0] = 0xF3
	n, err := d.Write(pixels)
	if err != nil {
		t.Fatal(err)
	}
	if n != 8192 {
		t.Errorf("Write() = %d, want 8192", n)
	}
	want := []i2ctest.IO{
		cmdIO(setColumnAddr, 0x00, 0x3F, setRowAddr, 0x00, 0x7F),
		dataIO(pixels),
	}
	if diff := cmp.Diff(want, bus.Ops); diff != "" {
		t.Errorf("operation mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite_GraphicsModeGuard(t *testing.T) {
	d, _ := newTestDev(t, nil)
	d.Graphics()
	if _, err := d.Write(make([]byte, 8192)); err == nil {
		t.Fatal("raw Write must fail once buffered graphics mode is entered")
	}
}

func TestScrollHorizontal(t *testing.T) {
	d, bus := newTestDev(t, nil)
	if err := d.ScrollHorizontal(0, 127, Scroll4Frames, false); err != nil {
		t.Fatal(err)
	}
	if err := d.StopScroll(); err != nil {
		t.Fatal(err)
	}
	want := []i2ctest.IO{
		cmdIO(scrollSetup, 0x00, 0x00, byte(Scroll4Frames), 0x7F, 0x00, 0x3F, activateScroll),
		cmdIO(deactivateScroll),
	}
	if diff := cmp.Diff(want, bus.Ops); diff != "" {
		t.Errorf("operation mismatch (-want +got):\n%s", diff)
	}

	if err := d.ScrollHorizontal(10, 5, Scroll4Frames, false); err == nil {
		t.Error("expected an error for inverted scroll rows")
	}
	if err := d.ScrollHorizontal(0, 128, Scroll4Frames, true); err == nil {
		t.Error("expected an error for out of range scroll rows")
	}
}

func TestHalt(t *testing.T) {
	d, bus := newTestDev(t, nil)
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	want := []i2ctest.IO{cmdIO(setDisplayOff)}
	if diff := cmp.Diff(want, bus.Ops); diff != "" {
		t.Errorf("operation mismatch (-want +got):\n%s", diff)
	}
	if err := d.SetContrast(0x10); err == nil {
		t.Error("SetContrast should fail after Halt")
	}
	if _, err := d.Write(make([]byte, 8192)); err == nil {
		t.Error("Write should fail after Halt")
	}
	if err := d.ScrollHorizontal(0, 127, Scroll2Frames, false); err == nil {
		t.Error("ScrollHorizontal should fail after Halt")
	}
}

func TestTransportError_Propagated(t *testing.T) {
	// A Playback with no expected operations fails every transaction.
	d := &Dev{
		c:    &i2c.Dev{Bus: &i2ctest.Playback{DontPanic: true}, Addr: testAddr},
		rect: image.Rect(0, 0, 128, 128),
	}
	if err := d.SetContrast(0x7F); err == nil {
		t.Fatal("expected the transport error to propagate")
	}
}
