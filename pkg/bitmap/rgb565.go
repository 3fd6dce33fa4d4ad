package bitmap

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// https://github.com/gonutz/framebuffer/blob/master/fb.go

func NewRGB565(r image.Rectangle) *RGB565 {
	return &RGB565{
		pixels: make([]byte, 2*r.Dx()*r.Dy()),
		stride: 2 * r.Dx(),
		bounds: r,
	}
}

// Wrap views an existing little-endian RGB565 buffer as an image.
func Wrap(pixels []byte, r image.Rectangle) (*RGB565, error) {
	if len(pixels) != 2*r.Dx()*r.Dy() {
		return nil, errors.Errorf("rgb565 buffer is %d bytes, want %d for %v", len(pixels), 2*r.Dx()*r.Dy(), r.Size())
	}
	return &RGB565{pixels: pixels, stride: 2 * r.Dx(), bounds: r}, nil
}

// RGB565 is a panel native frame. It implements the draw.Image interface.
type RGB565 struct {
	pixels []byte
	stride int
	bounds image.Rectangle
}

// Pix returns the underlying little-endian pixel bytes.
func (d *RGB565) Pix() []byte {
	return d.pixels
}

// Bounds implements the image.Image (and draw.Image) interface.
func (d *RGB565) Bounds() image.Rectangle {
	return d.bounds
}

// ColorModel implements the image.Image (and draw.Image) interface.
func (d *RGB565) ColorModel() color.Model {
	return Model
}

func (d *RGB565) offset(x, y int) int {
	return (y-d.bounds.Min.Y)*d.stride + 2*(x-d.bounds.Min.X)
}

// At implements the image.Image (and draw.Image) interface.
func (d *RGB565) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(d.bounds)) {
		return Color(0)
	}
	i := d.offset(x, y)
	return Color(d.pixels[i+1])<<8 | Color(d.pixels[i])
}

// Set implements the draw.Image interface. Fully transparent colors leave
// the pixel untouched.
func (d *RGB565) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(d.bounds)) {
		return
	}
	r, g, b, a := c.RGBA()
	if a > 0 {
		d.put(d.offset(x, y), toRGB565(r, g, b))
	}
}

func (d *RGB565) put(i int, rgb Color) {
	d.pixels[i+1] = byte(rgb >> 8)
	d.pixels[i] = byte(rgb & 0xFF)
}

// Model converts any color to RGB565.
var Model = color.ModelFunc(func(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	return toRGB565(r, g, b)
})

// toRGB565 helps convert a color.Color to rgb565. In a color.Color each
// channel is represented by the lower 16 bits in a uint32 so the maximum value
// is 0xFFFF. This function simply uses the highest 5 or 6 bits of each channel
// as the RGB values.
func toRGB565(r, g, b uint32) Color {
	// RRRRRGGGGGGBBBBB
	return Color((r & 0xF800) +
		((g & 0xFC00) >> 5) +
		((b & 0xF800) >> 11))
}

// Pack converts 8-bit channels, truncating the low bits.
func Pack(r, g, b uint8) Color {
	return Color(uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b)>>3)
}

// Color is a 16 bit panel pixel. Each pixel is two bytes on the wire, low
// byte first, with 5 bits for red, 6 bits for green and 5 bits for blue:
//
//	bit 76543210  76543210
//	    RRRRRGGG  GGGBBBBB
//	   high byte  low byte
type Color uint16

// RGBA implements the color.Color interface.
func (c Color) RGBA() (r, g, b, a uint32) {
	// To convert a color channel from 5 or 6 bits back to 16 bits, the short
	// bit pattern is duplicated to fill all 16 bits.
	// For example the green channel in rgb565 is the middle 6 bits:
	//     00000GGGGGG00000
	//
	// To create a 16 bit channel, these bits are or-ed together starting at the
	// highest bit:
	//     GGGGGG0000000000 shifted << 5
	//     000000GGGGGG0000 shifted >> 1
	//     000000000000GGGG shifted >> 7
	//
	// Alpha is always 100% opaque since this model does not support
	// transparency.
	rBits := uint32(c & 0xF800) // RRRRR00000000000
	gBits := uint32(c & 0x7E0)  // 00000GGGGGG00000
	bBits := uint32(c & 0x1F)   // 00000000000BBBBB
	r = rBits | rBits>>5 | rBits>>10 | rBits>>15
	g = gBits<<5 | gBits>>1 | gBits>>7
	b = bBits<<11 | bBits<<6 | bBits<<1 | bBits>>4
	a = 0xFFFF
	return
}
