// Package layer provides the rectangular RGBA sources composed by the mixer.
package layer

import (
	"image"
	"image/draw"
	"sync"

	"github.com/pkg/errors"

	"usbpanel/pkg/proto"
)

// Layer is anything with a position, a size and a width*height*4 buffer of
// non-premultiplied RGBA. Layers whose content changes implement sync.Locker; the mixer holds
// the lock while it reads Pixels.
type Layer interface {
	BoundingBox() (x, y, width, height int)
	Pixels() []byte
}

// Bounds returns the layer rectangle in panel coordinates.
func Bounds(l Layer) image.Rectangle {
	x, y, w, h := l.BoundingBox()
	return image.Rect(x, y, x+w, y+h)
}

// Image is an RGBA buffer whose content may be swapped with SetPixels.
type Image struct {
	sync.Mutex

	x, y          int
	width, height int
	pix           []byte
}

func NewImage(x, y, width, height int, pix []byte) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, proto.ImageError("new-image", errors.Errorf("empty size %dx%d", width, height))
	}
	if len(pix) != width*height*4 {
		return nil, proto.ImageError("new-image", errors.Errorf("got %d bytes, want %d for %dx%d", len(pix), width*height*4, width, height))
	}
	return &Image{x: x, y: y, width: width, height: height, pix: pix}, nil
}

// FromImage copies any image into a layer drawn at x, y.
func FromImage(x, y int, src image.Image) *Image {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return &Image{x: x, y: y, width: b.Dx(), height: b.Dy(), pix: dst.Pix}
}

func (i *Image) BoundingBox() (x, y, width, height int) {
	return i.x, i.y, i.width, i.height
}

func (i *Image) Pixels() []byte {
	return i.pix
}

// SetPixels swaps the buffer for one of the same size.
func (i *Image) SetPixels(pix []byte) error {
	if len(pix) != i.width*i.height*4 {
		return proto.ImageError("set-pixels", errors.Errorf("got %d bytes, want %d", len(pix), i.width*i.height*4))
	}

	i.Lock()
	i.pix = pix
	i.Unlock()
	return nil
}

// Resize replaces the size and the buffer together.
func (i *Image) Resize(width, height int, pix []byte) error {
	if width <= 0 || height <= 0 {
		return proto.ImageError("resize", errors.Errorf("empty size %dx%d", width, height))
	}
	if len(pix) != width*height*4 {
		return proto.ImageError("resize", errors.Errorf("got %d bytes, want %d for %dx%d", len(pix), width*height*4, width, height))
	}

	i.Lock()
	i.width, i.height, i.pix = width, height, pix
	i.Unlock()
	return nil
}
