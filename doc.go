// Package ssd1327 controls a SSD1327 OLED display via I²C or SPI.
//
// The SSD1327 is a 4-bit grayscale OLED controller driving up to 128×128
// pixels, most commonly found on 128×128 1.5" panels. Pixels are packed two
// per byte in the controller's GDDRAM, so a single column address covers two
// horizontal pixels.
//
// # Display Characteristics
//
//   - 4-bit grayscale with 16 intensity levels (0-15)
//   - Up to 128×128 pixels; width must be even
//   - I²C (address 0x3C or 0x3D) and 4-wire SPI
//   - Adjustable contrast (0-255), display inversion, hardware scrolling
//
// # Operating Modes
//
// A freshly constructed Dev is in raw command mode: controller commands are
// issued directly and full frames can be streamed with Write. Calling
// Dev.Graphics switches the handle into buffered graphics mode, which owns a
// packed framebuffer and tracks which rows changed. The transition is
// one-way; raw frame writes fail afterwards so buffered drawing and raw
// streaming cannot interleave on the controller's address pointer.
//
// In buffered graphics mode nothing reaches the bus until Flush is called,
// and a Flush with no pending changes performs no bus I/O at all.
//
// # Basic Usage
//
//	package main
//
//	import (
//		"log"
//
//		"periph.io/x/conn/v3/i2c/i2creg"
//		"periph.io/x/devices/v3/ssd1327"
//		"periph.io/x/devices/v3/ssd1327/image4bit"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		if _, err := host.Init(); err != nil {
//			log.Fatal(err)
//		}
//		b, err := i2creg.Open("")
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer b.Close()
//
//		dev, err := ssd1327.NewI2C(b, nil)
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer dev.Halt()
//
//		g := dev.Graphics()
//		for x := 0; x < 128; x++ {
//			for y := 0; y < 128; y++ {
//				g.SetPixel(x, y, image4bit.Gray4{Y: uint8(x / 8)})
//			}
//		}
//		if err := g.Flush(); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// # Rotation
//
// Opts.Rotation rotates the logical coordinate space in 90° steps. The
// mirroring half of each rotation is performed by the controller's segment
// remap, the axis swap host-side; the framebuffer always stores pixels in
// the panel's native orientation, so changing the rotation on a Graphics
// handle keeps the content and only forces the next Flush to resend the
// whole frame.
//
// # Compatibility with periph.io
//
// Graphics implements the display.Drawer interface from periph.io, so any
// image composition code targeting image/draw can render to the display.
//
// # Datasheet
//
// https://www.crystalfontz.com/controllers/SolomonSystech/SSD1327/
package ssd1327
