package layer

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/pkg/errors"
)

var (
	ProgressBackground = color.RGBA{R: 16, G: 16, B: 16, A: 255}
	ProgressForeground = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// ProgressBar is a horizontal bar filled from the left.
type ProgressBar struct {
	sync.Mutex

	x, y     int
	img      *image.NRGBA
	bg, fg   color.Color
	progress int
}

func NewProgressBar(x, y, width, height int) *ProgressBar {
	p := &ProgressBar{
		x:   x,
		y:   y,
		img: image.NewNRGBA(image.Rect(0, 0, width, height)),
		bg:  ProgressBackground,
		fg:  ProgressForeground,
	}
	p.render()
	return p
}

func (p *ProgressBar) BoundingBox() (x, y, width, height int) {
	b := p.img.Bounds()
	return p.x, p.y, b.Dx(), b.Dy()
}

func (p *ProgressBar) Pixels() []byte {
	return p.img.Pix
}

func (p *ProgressBar) Progress() int {
	p.Lock()
	defer p.Unlock()
	return p.progress
}

// SetProgress accepts a percentage between 0 and 100.
func (p *ProgressBar) SetProgress(percent int) error {
	if percent < 0 || percent > 100 {
		return errors.Errorf("progress %d out of range 0..100", percent)
	}

	p.Lock()
	defer p.Unlock()

	p.progress = percent
	p.render()
	return nil
}

func (p *ProgressBar) render() {
	b := p.img.Bounds()
	draw.Draw(p.img, b, image.NewUniform(p.bg), image.Point{}, draw.Src)

	filled := b.Dx() * p.progress / 100
	draw.Draw(p.img, image.Rect(0, 0, filled, b.Dy()), image.NewUniform(p.fg), image.Point{}, draw.Src)
}
