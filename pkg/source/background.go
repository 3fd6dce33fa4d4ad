package source

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"usbpanel/pkg/layer"
)

// Picker produces wallpapers for a Background.
type Picker interface {
	Next(width, height int) (*Picked, error)
	Previous() *Picked
}

// Sizer reports the effective panel size, which changes with orientation.
type Sizer interface {
	Width() int
	Height() int
}

// Background keeps a full-panel image layer filled with wallpapers,
// switching to the next one every interval or when the panel is rotated.
type Background struct {
	mu       sync.Mutex
	picker   Picker
	panel    Sizer
	img      *layer.Image
	interval time.Duration
	last     time.Time
}

func NewBackground(picker Picker, panel Sizer, interval time.Duration) (*Background, error) {
	w, h := panel.Width(), panel.Height()
	img, err := layer.NewImage(0, 0, w, h, make([]byte, w*h*4))
	if err != nil {
		return nil, err
	}
	return &Background{picker: picker, panel: panel, img: img, interval: interval}, nil
}

func (b *Background) Layer() *layer.Image {
	return b.img
}

// Next switches to a new wallpaper now.
func (b *Background) Next() (*Picked, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.next()
}

func (b *Background) next() (*Picked, error) {
	w, h := b.panel.Width(), b.panel.Height()
	p, err := b.picker.Next(w, h)
	if err != nil {
		return nil, err
	}
	if err := b.img.Resize(w, h, p.Pixels); err != nil {
		return nil, err
	}
	b.last = time.Now()
	return p, nil
}

func (b *Background) rotated() bool {
	_, _, w, h := b.img.BoundingBox()
	return w != b.panel.Width() || h != b.panel.Height()
}

// Previous restores the wallpaper shown before the current one.
func (b *Background) Previous() (*Picked, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.picker.Previous()
	if p == nil {
		return nil, errors.New("no previous wallpaper")
	}

	w, h := b.panel.Width(), b.panel.Height()
	if p.Width != w || p.Height != h {
		return nil, errors.Errorf("previous wallpaper is %dx%d, panel is %dx%d", p.Width, p.Height, w, h)
	}
	if err := b.img.Resize(w, h, p.Pixels); err != nil {
		return nil, err
	}
	b.last = time.Now()
	return p, nil
}

// Update switches wallpapers once the interval has passed or the panel
// size changed. It fits mixer.Prepare.
func (b *Background) Update(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.last.IsZero() && time.Since(b.last) < b.interval && !b.rotated() {
		return nil
	}
	_, err := b.next()
	return err
}
