package proto

import (
	"usbpanel/pkg/packet"
)

// Control is one serially attached panel. Implementations order every call;
// a chunked image transfer is never interleaved with another command.
type Control interface {
	SetBrightness(level int) error
	ScreenOn() error
	ScreenOff() error
	ScreenWhite() error
	ScreenBlack() error
	SetOrientation(o packet.Orientation) error

	// DisplayImage draws little-endian RGB565 pixels into the given rectangle.
	DisplayImage(pixels []byte, x, y, width, height int) error

	// Width and Height are the effective dimensions for the current orientation.
	Width() int
	Height() int

	Close() error
}
