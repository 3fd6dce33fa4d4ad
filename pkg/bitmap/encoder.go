package bitmap

import (
	"image"
)

// Encode converts src into panel native bytes, row by row.
func Encode(src image.Image) []byte {
	if rgba, ok := src.(*image.RGBA); ok {
		return EncodeRGBA(rgba.Pix, rgba.Stride, rgba.Rect.Dx(), rgba.Rect.Dy())
	}

	b := src.Bounds()
	d := NewRGB565(b)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			d.Set(x, y, src.At(x, y))
		}
	}

	return d.pixels
}

// EncodeRGBA converts a raw 8-bit RGBA buffer. Pixels with zero alpha encode
// as black.
func EncodeRGBA(pix []byte, stride, width, height int) []byte {
	out := make([]byte, 2*width*height)

	o := 0
	for y := 0; y < height; y++ {
		row := pix[y*stride : y*stride+4*width]
		for i := 0; i < len(row); i += 4 {
			if row[i+3] > 0 {
				c := Pack(row[i], row[i+1], row[i+2])
				out[o] = byte(c & 0xFF)
				out[o+1] = byte(c >> 8)
			}
			o += 2
		}
	}

	return out
}
