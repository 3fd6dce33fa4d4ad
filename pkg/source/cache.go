package source

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// NewCache keeps resized images under dir. An empty dir disables caching.
func NewCache(dir string) (*Cache, error) {
	c := &Cache{}

	if dir == "" {
		return c, nil
	}

	if fs, err := newFs(dir); err != nil {
		return nil, fmt.Errorf("create cache failed: %w", err)
	} else {
		c.fs = fs
	}

	return c, nil
}

func NewCacheFs(fs afero.Fs) *Cache {
	return &Cache{fs: fs}
}

type Cache struct {
	fs afero.Fs
}

func newFs(path string) (afero.Fs, error) {
	fs := afero.NewOsFs()
	if exists, err := afero.DirExists(fs, path); err != nil {
		return nil, err
	} else if !exists {
		return nil, errors.New("dir not exists")
	}
	return afero.NewBasePathFs(fs, path), nil
}

func (c *Cache) dirname(w, h int) string {
	return fmt.Sprintf("%dx%d", w, h)
}

func (c *Cache) filename(key string, w, h int) string {
	sum := sha1.Sum([]byte(key))
	return fmt.Sprintf("%s/%s.png", c.dirname(w, h), hex.EncodeToString(sum[:]))
}

func (c *Cache) LoadImage(key string, w, h int) (bool, image.Image, error) {
	if c.fs == nil {
		return false, nil, nil
	}

	bs, err := afero.ReadFile(c.fs, c.filename(key, w, h))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil, nil
		} else {
			return false, nil, err
		}
	}

	img, err := png.Decode(bytes.NewBuffer(bs))
	if err != nil {
		return false, nil, err
	}

	return true, img, nil
}

func (c *Cache) SaveImage(key string, img image.Image) error {
	if c.fs == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}

	w := img.Bounds().Dx()
	h := img.Bounds().Dy()

	if exists, err := afero.DirExists(c.fs, c.dirname(w, h)); err != nil {
		return err
	} else if !exists {
		if err2 := c.fs.MkdirAll(c.dirname(w, h), 0755); err2 != nil {
			return err2
		}
	}

	return afero.WriteFile(c.fs, c.filename(key, w, h), buf.Bytes(), 0644)
}
