// Package packet builds the fixed-size frames understood by the 3.5" serial panel.
//
// Every frame starts with x, y, end-x and end-y packed into five bytes,
// followed by the command byte. Option frames (orientation) extend the
// command frame to 16 bytes.
package packet

import (
	"math"

	"github.com/pkg/errors"
)

const (
	Hello        = 0xFF
	ScreenWhite  = 0x66
	ScreenBlack  = 0x67
	ScreenOff    = 0x6C
	ScreenOn     = 0x6D
	SetLight     = 0x6E
	SetRotate    = 0x79
	DisplayImage = 0xC5
)

const (
	CommandSize = 6
	OptionSize  = 16

	// CoordMax is the largest value a packed coordinate can carry: five
	// bytes hold four 10-bit fields.
	CoordMax = 0x3FF

	orientationBase = 100
)

var ErrInvalidArgument = errors.New("invalid argument")

// PackCoords writes x, y, ex and ey into the first five bytes of dst.
func PackCoords(dst []byte, x, y, ex, ey int) {
	dst[0] = byte(x >> 2)
	dst[1] = byte(((x & 3) << 6) + (y >> 4))
	dst[2] = byte(((y & 0xF) << 4) + (ex >> 6))
	dst[3] = byte(((ex & 0x3F) << 2) + (ey >> 8))
	dst[4] = byte(ey & 0xFF)
}

func UnpackCoords(src []byte) (x, y, ex, ey int) {
	x = int(src[0])<<2 | int(src[1])>>6
	y = int(src[1]&0x3F)<<4 | int(src[2])>>4
	ex = int(src[2]&0xF)<<6 | int(src[3])>>2
	ey = int(src[3]&3)<<8 | int(src[4])
	return
}

func command(code byte, x, y, ex, ey int) []byte {
	bs := make([]byte, CommandSize)
	PackCoords(bs, x, y, ex, ey)
	bs[5] = code
	return bs
}

func NewHello() []byte {
	return command(Hello, 0, 0, 0, 0)
}

func NewScreenOn() []byte {
	return command(ScreenOn, 0, 0, 0, 0)
}

func NewScreenOff() []byte {
	return command(ScreenOff, 0, 0, 0, 0)
}

func NewScreenWhite() []byte {
	return command(ScreenWhite, 0, 0, 0, 0)
}

func NewScreenBlack() []byte {
	return command(ScreenBlack, 0, 0, 0, 0)
}

// NewBrightness encodes a 1..100 brightness level. The panel expects the
// inverted 8-bit intensity, of which only the top six bits are sent.
func NewBrightness(level int) ([]byte, error) {
	if level < 1 || level > 100 {
		return nil, errors.Wrapf(ErrInvalidArgument, "brightness %d out of range 1..100", level)
	}

	inverted := 255 - int(math.Round(float64(level)/100*255))

	bs := make([]byte, CommandSize)
	bs[0] = byte(inverted >> 2)
	bs[1] = byte((inverted & 3) << 6)
	bs[5] = SetLight
	return bs, nil
}

// NewOrientation encodes the rotate option frame carrying the effective
// width and height big-endian after the orientation id.
func NewOrientation(o Orientation, width, height uint16) []byte {
	bs := make([]byte, OptionSize)
	PackCoords(bs, 0, 0, 0, 0)
	bs[5] = SetRotate
	bs[6] = o.ID() + orientationBase
	bs[7] = byte(width >> 8)
	bs[8] = byte(width & 0xFF)
	bs[9] = byte(height >> 8)
	bs[10] = byte(height & 0xFF)
	return bs
}

// NewImageHeader announces a width x height pixel stream drawn at x, y.
func NewImageHeader(x, y, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "empty image %dx%d", width, height)
	}
	if x < 0 || y < 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "negative position %d,%d", x, y)
	}

	ex, ey := x+width-1, y+height-1
	if ex > CoordMax || ey > CoordMax {
		return nil, errors.Wrapf(ErrInvalidArgument, "end %d,%d exceeds %d", ex, ey, CoordMax)
	}

	return command(DisplayImage, x, y, ex, ey), nil
}
