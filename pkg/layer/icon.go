package layer

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/pkg/errors"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"usbpanel/pkg/proto"
)

// Icon is an SVG rasterized once to a square layer.
type Icon struct {
	x, y int
	img  *image.NRGBA
}

// NewIcon renders svg at size x size. A "currentColor" fill or stroke is
// replaced with col.
func NewIcon(x, y, size int, svg string, col color.Color) (*Icon, error) {
	r, g, b, _ := col.RGBA()
	svg = strings.ReplaceAll(svg, "currentColor", fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8))

	icon, err := oksvg.ReadIconStream(strings.NewReader(svg))
	if err != nil {
		return nil, proto.ImageError("new-icon", errors.Wrap(err, "parse svg"))
	}

	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	icon.SetTarget(0, 0, float64(size), float64(size))

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	return &Icon{x: x, y: y, img: img}, nil
}

func (i *Icon) BoundingBox() (x, y, width, height int) {
	b := i.img.Bounds()
	return i.x, i.y, b.Dx(), b.Dy()
}

func (i *Icon) Pixels() []byte {
	return i.img.Pix
}

const (
	PlaySVG  = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24"><path fill="currentColor" d="M8 5v14l11-7z"/></svg>`
	PauseSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24"><path fill="currentColor" d="M6 5h4v14H6zM14 5h4v14h-4z"/></svg>`
)
