// Package mixer composes layers into one panel sized framebuffer and sends
// it to the panel as a single full frame.
package mixer

import (
	"image"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"usbpanel/pkg/bitmap"
	"usbpanel/pkg/layer"
	"usbpanel/pkg/proto"
)

func New(dev proto.Control, opts ...Option) *Display {
	d := &Display{
		dev:    dev,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(d)
	}

	d.resize()
	return d
}

type entry struct {
	order int
	seq   int
	layer layer.Layer
}

// Display is the virtual screen. Register, Unregister and RedrawFull are
// serialized, so a redraw never observes a half-applied layer change.
type Display struct {
	sync.Mutex

	dev    proto.Control
	logger *zap.Logger

	width  int
	height int
	buffer []byte
	frame  []byte
	layers []entry
	seq    int
}

// Register adds l at the given draw order. Lower orders are drawn first;
// layers sharing an order are drawn in registration sequence.
func (d *Display) Register(order int, l layer.Layer) {
	d.Lock()
	defer d.Unlock()

	d.seq++
	d.layers = append(d.layers, entry{order: order, seq: d.seq, layer: l})
}

// Unregister removes every registration of l.
func (d *Display) Unregister(l layer.Layer) bool {
	d.Lock()
	defer d.Unlock()

	kept := d.layers[:0]
	for _, e := range d.layers {
		if e.layer != l {
			kept = append(kept, e)
		}
	}
	removed := len(kept) != len(d.layers)
	for i := len(kept); i < len(d.layers); i++ {
		d.layers[i] = entry{}
	}
	d.layers = kept
	return removed
}

func (d *Display) Layers() int {
	d.Lock()
	defer d.Unlock()
	return len(d.layers)
}

// Size returns the framebuffer dimensions used by the last redraw.
func (d *Display) Size() (width, height int) {
	d.Lock()
	defer d.Unlock()
	return d.width, d.height
}

// Frame returns a copy of the last RGB565 frame sent to the panel.
func (d *Display) Frame() []byte {
	d.Lock()
	defer d.Unlock()
	return append([]byte(nil), d.frame...)
}

// resize keeps the framebuffer in step with the panel's current
// orientation.
func (d *Display) resize() {
	w, h := d.dev.Width(), d.dev.Height()
	if w == d.width && h == d.height && d.buffer != nil {
		return
	}
	d.width, d.height = w, h
	d.buffer = make([]byte, w*h*4)
}

// RedrawFull rebuilds the framebuffer from every registered layer and
// transmits the whole panel area.
func (d *Display) RedrawFull() error {
	d.Lock()
	defer d.Unlock()

	start := time.Now()
	d.resize()

	for i := range d.buffer {
		d.buffer[i] = 0
	}

	sort.SliceStable(d.layers, func(i, j int) bool {
		if d.layers[i].order != d.layers[j].order {
			return d.layers[i].order < d.layers[j].order
		}
		return d.layers[i].seq < d.layers[j].seq
	})

	panel := image.Rect(0, 0, d.width, d.height)
	drawn := 0
	for _, e := range d.layers {
		if !layer.Bounds(e.layer).Overlaps(panel) {
			continue
		}
		if err := d.draw(e.layer); err != nil {
			return err
		}
		drawn++
	}

	d.frame = bitmap.EncodeRGBA(d.buffer, 4*d.width, d.width, d.height)

	if err := d.dev.DisplayImage(d.frame, 0, 0, d.width, d.height); err != nil {
		return err
	}

	d.logger.With(
		zap.Int("layers", len(d.layers)),
		zap.Int("drawn", drawn),
		zap.String("cost", time.Since(start).String()),
	).Debug("redraw")

	return nil
}

func (d *Display) draw(l layer.Layer) error {
	if lk, ok := l.(sync.Locker); ok {
		lk.Lock()
		defer lk.Unlock()
	}

	lx, ly, lw, lh := l.BoundingBox()
	pix := l.Pixels()
	if len(pix) < lw*lh*4 {
		return proto.ImageError("redraw", errors.Errorf("layer %dx%d has %d bytes", lw, lh, len(pix)))
	}

	for row := 0; row < lh; row++ {
		py := ly + row
		if py < 0 || py >= d.height {
			continue
		}
		for col := 0; col < lw; col++ {
			px := lx + col
			if px < 0 || px >= d.width {
				continue
			}
			s := (row*lw + col) * 4
			o := (py*d.width + px) * 4
			blend(d.buffer[o:o+4], pix[s:s+4])
		}
	}

	return nil
}

// blend draws src over dst and leaves dst opaque.
func blend(dst, src []byte) {
	a := float32(src[3]) / 255
	inv := 1 - a
	dst[0] = mix(src[0], dst[0], a, inv)
	dst[1] = mix(src[1], dst[1], a, inv)
	dst[2] = mix(src[2], dst[2], a, inv)
	dst[3] = 255
}

func mix(s, d uint8, a, inv float32) uint8 {
	v := float32(s)*a + float32(d)*inv
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
