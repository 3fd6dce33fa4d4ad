package nowplaying

import (
	"context"
	"image"
	"sync"

	"go.uber.org/zap"

	"usbpanel/pkg/layer"
	"usbpanel/pkg/mixer"
)

const idleTitle = "Nothing playing"

type Fetcher interface {
	CurrentlyPlaying(ctx context.Context) (*Playing, error)
}

// Artwork loads a cover url as a width*height RGBA buffer.
type Artwork interface {
	URL(url string, width, height int) ([]byte, error)
}

type Layout struct {
	Art    image.Rectangle
	Title  image.Rectangle
	Artist image.Rectangle
	Bar    image.Rectangle
}

// NewLayout stacks cover, title and artist from the top with the progress
// bar at the bottom edge.
func NewLayout(width, height int) Layout {
	const margin = 16

	side := height / 2
	if side > width-2*margin {
		side = width - 2*margin
	}

	art := image.Rect(0, 0, side, side).Add(image.Pt((width-side)/2, margin))
	title := image.Rect(margin, art.Max.Y+8, width-margin, art.Max.Y+36)
	artist := image.Rect(margin, title.Max.Y+4, width-margin, title.Max.Y+26)
	bar := image.Rect(margin, height-margin-10, width-margin, height-margin)

	return Layout{Art: art, Title: title, Artist: artist, Bar: bar}
}

// Sizer reports the effective panel size, which changes with orientation.
type Sizer interface {
	Width() int
	Height() int
}

func NewScreen(fetcher Fetcher, artwork Artwork, panel Sizer, logger *zap.Logger) (*Screen, error) {
	s := &Screen{
		fetcher: fetcher,
		artwork: artwork,
		panel:   panel,
		log:     logger.With(zap.String("via", "nowplaying")),
	}
	if err := s.build(panel.Width(), panel.Height()); err != nil {
		return nil, err
	}
	return s, nil
}

type Screen struct {
	mu      sync.Mutex
	fetcher Fetcher
	artwork Artwork
	panel   Sizer
	log     *zap.Logger

	width  int
	height int
	art    *layer.Image
	title  *layer.Text
	artist *layer.Text
	bar    *layer.ProgressBar
	cover  string

	d     *mixer.Display
	order int
}

func (s *Screen) build(width, height int) error {
	layout := NewLayout(width, height)

	a := layout.Art
	art, err := layer.NewImage(a.Min.X, a.Min.Y, a.Dx(), a.Dy(), make([]byte, a.Dx()*a.Dy()*4))
	if err != nil {
		return err
	}

	t := layout.Title
	title, err := layer.NewText(t.Min.X, t.Min.Y, t.Dx(), t.Dy(), idleTitle)
	if err != nil {
		return err
	}

	r := layout.Artist
	artist, err := layer.NewText(r.Min.X, r.Min.Y, r.Dx(), r.Dy(), "")
	if err != nil {
		return err
	}

	b := layout.Bar
	s.width, s.height = width, height
	s.art, s.title, s.artist = art, title, artist
	s.bar = layer.NewProgressBar(b.Min.X, b.Min.Y, b.Dx(), b.Dy())
	s.cover = ""
	return nil
}

func (s *Screen) layers() []layer.Layer {
	return []layer.Layer{s.art, s.title, s.artist, s.bar}
}

// Attach registers the screen layers from order upwards.
func (s *Screen) Attach(d *mixer.Display, order int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attach(d, order)
}

func (s *Screen) attach(d *mixer.Display, order int) {
	for i, l := range s.layers() {
		d.Register(order+i, l)
	}
	s.d, s.order = d, order
}

func (s *Screen) Detach(d *mixer.Display) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detach(d)
}

func (s *Screen) detach(d *mixer.Display) {
	for _, l := range s.layers() {
		d.Unregister(l)
	}
	if s.d == d {
		s.d = nil
	}
}

// relayout rebuilds the layers for a rotated panel and swaps them on the
// display they were attached to.
func (s *Screen) relayout() error {
	w, h := s.panel.Width(), s.panel.Height()
	if w == s.width && h == s.height {
		return nil
	}

	d, order := s.d, s.order
	if d != nil {
		s.detach(d)
	}
	if err := s.build(w, h); err != nil {
		return err
	}
	if d != nil {
		s.attach(d, order)
	}
	s.log.With(zap.Int("width", w), zap.Int("height", h)).Debug("relayout")
	return nil
}

// Update refreshes the layers from the current playback. It fits
// mixer.Prepare.
func (s *Screen) Update(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.relayout(); err != nil {
		return err
	}

	p, err := s.fetcher.CurrentlyPlaying(ctx)
	if err != nil {
		return err
	}

	if p == nil || p.Item == nil {
		s.title.SetText(idleTitle)
		s.artist.SetText("")
		s.setCover("")
		return s.bar.SetProgress(0)
	}

	s.title.SetText(p.Item.Name)
	s.artist.SetText(p.Artists())
	s.setCover(p.Cover())
	return s.bar.SetProgress(p.Percent())
}

func (s *Screen) setCover(url string) {
	if url == s.cover {
		return
	}

	_, _, w, h := s.art.BoundingBox()
	pix := make([]byte, w*h*4)

	if url != "" {
		loaded, err := s.artwork.URL(url, w, h)
		if err != nil {
			s.log.With(zap.Error(err), zap.String("url", url)).Info("load cover failed")
			return
		}
		pix = loaded
	}

	if err := s.art.SetPixels(pix); err != nil {
		s.log.With(zap.Error(err)).Info("set cover failed")
		return
	}
	s.cover = url
}
