package layer

import (
	"image"
	"image/color"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var defaultFont *opentype.Font

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
	defaultFont = f
}

// NewFace returns a face of the bundled Go font.
func NewFace(size float64) (font.Face, error) {
	face, err := opentype.NewFace(defaultFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create face")
	}
	return face, nil
}

type TextOption func(t *Text)

func WithColors(fg, bg color.Color) TextOption {
	return func(t *Text) {
		t.fg = fg
		t.bg = bg
	}
}

func WithFace(face font.Face) TextOption {
	return func(t *Text) {
		t.face = face
	}
}

// Text renders a single line of text into a fixed size box. The
// background may be transparent so lower layers show through.
type Text struct {
	sync.Mutex

	x, y   int
	img    *image.NRGBA
	face   font.Face
	fg, bg color.Color
	text   string
}

func NewText(x, y, width, height int, text string, opts ...TextOption) (*Text, error) {
	t := &Text{
		x:   x,
		y:   y,
		img: image.NewNRGBA(image.Rect(0, 0, width, height)),
		fg:  color.White,
		bg:  color.Transparent,
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.face == nil {
		face, err := NewFace(float64(height) * 0.75)
		if err != nil {
			return nil, err
		}
		t.face = face
	}

	t.text = text
	t.render()
	return t, nil
}

func (t *Text) BoundingBox() (x, y, width, height int) {
	b := t.img.Bounds()
	return t.x, t.y, b.Dx(), b.Dy()
}

func (t *Text) Pixels() []byte {
	return t.img.Pix
}

func (t *Text) Text() string {
	t.Lock()
	defer t.Unlock()
	return t.text
}

func (t *Text) SetText(text string) {
	t.Lock()
	defer t.Unlock()

	if text == t.text {
		return
	}
	t.text = text
	t.render()
}

func (t *Text) render() {
	draw.Draw(t.img, t.img.Bounds(), image.NewUniform(t.bg), image.Point{}, draw.Src)

	m := t.face.Metrics()
	height := t.img.Bounds().Dy()
	baseline := (fixed.I(height) + m.Ascent - m.Descent) / 2

	d := &font.Drawer{
		Dst:  t.img,
		Src:  image.NewUniform(t.fg),
		Face: t.face,
		Dot:  fixed.Point26_6{X: 0, Y: baseline},
	}
	d.DrawString(t.text)
}
