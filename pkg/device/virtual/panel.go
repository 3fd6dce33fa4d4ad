// Package virtual is an in-memory panel used when no hardware is attached.
package virtual

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"usbpanel/pkg/bitmap"
	"usbpanel/pkg/packet"
	"usbpanel/pkg/proto"
)

func New(width, height int, logger *zap.Logger) *Panel {
	p := &Panel{
		l:       logger,
		nativeW: width,
		nativeH: height,
		width:   width,
		height:  height,
		on:      true,
		light:   100,
	}
	p.frame = bitmap.NewRGB565(image.Rect(0, 0, width, height))
	return p
}

// Panel mimics the serial panel: it tracks orientation, brightness and the
// pixels it was sent, without any channel.
type Panel struct {
	mu sync.Mutex
	l  *zap.Logger

	nativeW     int
	nativeH     int
	width       int
	height      int
	orientation packet.Orientation
	on          bool
	light       int
	frame       *bitmap.RGB565
	closed      bool
}

func (p *Panel) SetBrightness(level int) error {
	if _, err := packet.NewBrightness(level); err != nil {
		return proto.PacketError("set-brightness", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errClosed("set-brightness")
	}
	p.light = level
	p.l.With(zap.Int("light", level)).Info("set-brightness")
	return nil
}

func (p *Panel) ScreenOn() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errClosed("screen-on")
	}
	p.on = true
	p.l.Info("screen-on")
	return nil
}

func (p *Panel) ScreenOff() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errClosed("screen-off")
	}
	p.on = false
	p.l.Info("screen-off")
	return nil
}

func (p *Panel) ScreenWhite() error {
	return p.fill(0xFF, "screen-white")
}

func (p *Panel) ScreenBlack() error {
	return p.fill(0x00, "screen-black")
}

func (p *Panel) fill(v byte, op string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errClosed(op)
	}

	p.rotate(packet.Portrait)
	pix := p.frame.Pix()
	for i := range pix {
		pix[i] = v
	}
	p.l.Info(op)
	return nil
}

func (p *Panel) SetOrientation(o packet.Orientation) error {
	if !o.Valid() {
		return proto.PacketError("set-orientation", errors.Wrapf(packet.ErrInvalidArgument, "orientation id %d", o))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errClosed("set-orientation")
	}
	p.rotate(o)
	p.l.With(zap.Stringer("orientation", o)).Info("set-orientation")
	return nil
}

// rotate resets the frame, the real panel keeps stale pixels in an
// undefined layout after a rotation.
func (p *Panel) rotate(o packet.Orientation) {
	if o.Landscape() {
		p.width, p.height = p.nativeH, p.nativeW
	} else {
		p.width, p.height = p.nativeW, p.nativeH
	}
	p.orientation = o
	if p.frame.Bounds().Dx() != p.width {
		p.frame = bitmap.NewRGB565(image.Rect(0, 0, p.width, p.height))
	}
}

func (p *Panel) DisplayImage(pixels []byte, x, y, width, height int) error {
	if _, err := packet.NewImageHeader(x, y, width, height); err != nil {
		return proto.PacketError("display-image", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errClosed("display-image")
	}
	if x+width > p.width || y+height > p.height {
		return proto.PacketError("display-image", errors.Errorf("rect %dx%d at %d,%d overflows %dx%d", width, height, x, y, p.width, p.height))
	}

	src, err := bitmap.Wrap(pixels, image.Rect(x, y, x+width, y+height))
	if err != nil {
		return proto.ImageError("display-image", err)
	}

	// copy raw words, the source has no alpha to honour
	for row := 0; row < height; row++ {
		o := (y+row)*p.width*2 + x*2
		copy(p.frame.Pix()[o:o+width*2], src.Pix()[row*width*2:(row+1)*width*2])
	}

	p.l.With(
		zap.Int("x", x),
		zap.Int("y", y),
		zap.Int("w", width),
		zap.Int("h", height),
	).Debug("display-image")
	return nil
}

func errClosed(op string) error {
	return proto.IOError(op, errors.New("panel closed"))
}

func (p *Panel) Width() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width
}

func (p *Panel) Height() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.height
}

func (p *Panel) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *Panel) Brightness() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.light
}

func (p *Panel) On() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.on
}

// Snapshot returns a copy of the panel contents as an image.
func (p *Panel) Snapshot() image.Image {
	p.mu.Lock()
	defer p.mu.Unlock()

	dst := image.NewRGBA(p.frame.Bounds())
	draw.Draw(dst, dst.Bounds(), p.frame, image.Point{}, draw.Src)
	return dst
}

// SaveSnapshot writes the panel contents as a uniquely named PNG into fs
// and returns its name.
func (p *Panel) SaveSnapshot(fs afero.Fs) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, p.Snapshot()); err != nil {
		return "", err
	}

	name := fmt.Sprintf("panel-%s.png", xid.New().String())
	if err := afero.WriteFile(fs, name, buf.Bytes(), 0644); err != nil {
		return "", err
	}

	p.l.With(zap.String("file", name)).Debug("snapshot saved")
	return name, nil
}
