// Package source turns image files, URLs and wallpaper searches into RGBA
// buffers of an exact requested size.
package source

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/go-resty/resty/v2"
	"github.com/inhies/go-bytesize"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"usbpanel/pkg/proto"
)

type Fit int

const (
	// Stretch scales to the exact size ignoring the aspect ratio.
	Stretch Fit = iota
	// Fill scales to cover the size and crops the center.
	Fill
)

func ParseFit(name string) (Fit, error) {
	switch name {
	case "", "stretch":
		return Stretch, nil
	case "fill":
		return Fill, nil
	}
	return Stretch, errors.Errorf("unknown fit %q", name)
}

func (f Fit) String() string {
	if f == Fill {
		return "fill"
	}
	return "stretch"
}

type Option func(l *Loader)

func WithFit(fit Fit) Option {
	return func(l *Loader) {
		l.fit = fit
	}
}

func WithCache(c *Cache) Option {
	return func(l *Loader) {
		l.cache = c
	}
}

// WithProgress prints a download progress bar for URL fetches.
func WithProgress() Option {
	return func(l *Loader) {
		l.progress = true
	}
}

func WithClient(cli *resty.Client) Option {
	return func(l *Loader) {
		l.cli = cli.SetDoNotParseResponse(true)
	}
}

func NewLoader(fs afero.Fs, logger *zap.Logger, opts ...Option) *Loader {
	l := &Loader{
		fs:    fs,
		cli:   resty.New().SetDoNotParseResponse(true),
		cache: &Cache{},
		log:   logger.With(zap.String("via", "loader")),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

type Loader struct {
	fs       afero.Fs
	cli      *resty.Client
	cache    *Cache
	log      *zap.Logger
	fit      Fit
	progress bool
}

// Fitted returns a loader sharing the client and cache with another fit.
func (l *Loader) Fitted(fit Fit) *Loader {
	c := *l
	c.fit = fit
	return &c
}

// File decodes an image file and returns width*height*4 RGBA bytes.
func (l *Loader) File(path string, width, height int) ([]byte, error) {
	bs, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, proto.ImageError("load-file", err)
	}
	return l.Decode(bs, width, height)
}

// URL fetches and decodes a remote image. Resized results are cached per
// fit mode.
func (l *Loader) URL(url string, width, height int) ([]byte, error) {
	key := l.fit.String() + ":" + url
	if exists, img, err := l.cache.LoadImage(key, width, height); err != nil {
		l.log.With(zap.Error(err)).Info("load cache failed")
	} else if exists {
		return l.render(img, width, height)
	}

	bs, err := l.fetch(url)
	if err != nil {
		return nil, proto.ImageError("load-url", err)
	}

	img, _, err := image.Decode(bytes.NewReader(bs))
	if err != nil {
		return nil, proto.ImageError("load-url", errors.Wrap(err, "image decode failed"))
	}

	resized := l.resize(img, width, height)
	if err := l.cache.SaveImage(key, resized); err != nil {
		l.log.With(zap.Error(err)).Info("save cache failed")
	}

	return l.render(resized, width, height)
}

func (l *Loader) fetch(url string) ([]byte, error) {
	resp, err := l.cli.R().Get(url)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = resp.RawBody().Close()
	}()

	if resp.StatusCode() >= 400 {
		return nil, errors.Errorf("fetch %s: %s", url, resp.Status())
	}

	var buf bytes.Buffer
	var dst io.Writer = &buf
	if l.progress {
		bar := progressbar.DefaultBytes(resp.RawResponse.ContentLength, fmt.Sprintf("Downloading %s", url))
		dst = io.MultiWriter(&buf, bar)
	}

	if _, err := io.Copy(dst, resp.RawBody()); err != nil {
		return nil, err
	}

	l.log.With(
		zap.String("url", url),
		zap.String("size", bytesize.New(float64(buf.Len())).String()),
	).Debug("fetched")

	return buf.Bytes(), nil
}

// Decode decodes an encoded image held in memory.
func (l *Loader) Decode(data []byte, width, height int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, proto.ImageError("decode", errors.Wrap(err, "image decode failed"))
	}
	return l.render(img, width, height)
}

// Fit resizes an already decoded image.
func (l *Loader) Fit(img image.Image, width, height int) ([]byte, error) {
	return l.render(img, width, height)
}

func (l *Loader) render(img image.Image, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, proto.ImageError("resize", errors.Errorf("invalid size %dx%d", width, height))
	}

	out := l.resize(img, width, height)
	if len(out.Pix) != width*height*4 {
		return nil, proto.ImageError("resize", errors.Errorf("got %v, want %dx%d", out.Rect.Size(), width, height))
	}
	return out.Pix, nil
}

func (l *Loader) resize(img image.Image, width, height int) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Dx() == width && b.Dy() == height && b.Min == (image.Point{}) {
		return n
	}

	if l.fit == Fill {
		return imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)
	}
	return imaging.Resize(img, width, height, imaging.Lanczos)
}
