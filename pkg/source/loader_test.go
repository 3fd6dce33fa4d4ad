package source

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moolex/wallhaven-go/api"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"usbpanel/pkg/proto"
)

func solidPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func assertSolid(t *testing.T, pix []byte, c color.NRGBA) {
	for i := 0; i < len(pix); i += 4 {
		assert.InDelta(t, c.R, pix[i], 1)
		assert.InDelta(t, c.G, pix[i+1], 1)
		assert.InDelta(t, c.B, pix[i+2], 1)
		assert.InDelta(t, c.A, pix[i+3], 1)
	}
}

func TestLoaderFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	red := color.NRGBA{R: 255, A: 255}
	require.NoError(t, afero.WriteFile(fs, "red.png", solidPNG(t, 8, 4, red), 0644))

	for _, fit := range []Fit{Stretch, Fill} {
		l := NewLoader(fs, zap.NewNop(), WithFit(fit))
		pix, err := l.File("red.png", 6, 6)
		require.NoError(t, err)
		assert.Len(t, pix, 6*6*4)
		assertSolid(t, pix, red)
	}
}

func TestLoaderErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "junk.png", []byte("junk"), 0644))
	l := NewLoader(fs, zap.NewNop())

	_, err := l.File("missing.png", 4, 4)
	assert.ErrorIs(t, err, proto.ErrImage)

	_, err = l.File("junk.png", 4, 4)
	assert.ErrorIs(t, err, proto.ErrImage)

	_, err = l.Decode(solidPNG(t, 2, 2, color.NRGBA{A: 255}), 0, 4)
	assert.ErrorIs(t, err, proto.ErrImage)
}

func TestLoaderURL(t *testing.T) {
	blue := color.NRGBA{B: 255, A: 255}
	body := solidPNG(t, 10, 10, blue)

	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/art.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		hits++
		_, _ = w.Write(body)
	}))
	defer ts.Close()

	l := NewLoader(afero.NewMemMapFs(), zap.NewNop(), WithCache(NewCacheFs(afero.NewMemMapFs())))

	pix, err := l.URL(ts.URL+"/art.png", 5, 5)
	require.NoError(t, err)
	assert.Len(t, pix, 5*5*4)
	assertSolid(t, pix, blue)

	pix, err = l.URL(ts.URL+"/art.png", 5, 5)
	require.NoError(t, err)
	assert.Len(t, pix, 5*5*4)
	assert.Equal(t, 1, hits)

	_, err = l.URL(ts.URL+"/missing.png", 5, 5)
	assert.ErrorIs(t, err, proto.ErrImage)
}

func TestLoaderURLCachePerFit(t *testing.T) {
	// red, green and blue bands across a wide image
	bands := []color.NRGBA{{R: 255, A: 255}, {G: 255, A: 255}, {B: 255, A: 255}}
	src := image.NewNRGBA(image.Rect(0, 0, 60, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 60; x++ {
			src.SetNRGBA(x, y, bands[x/20])
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write(buf.Bytes())
	}))
	defer ts.Close()

	stretch := NewLoader(afero.NewMemMapFs(), zap.NewNop(), WithCache(NewCacheFs(afero.NewMemMapFs())))
	fill := stretch.Fitted(Fill)

	stretched, err := stretch.URL(ts.URL+"/art.png", 4, 4)
	require.NoError(t, err)
	filled, err := fill.URL(ts.URL+"/art.png", 4, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, hits)
	assert.NotEqual(t, stretched, filled)

	again, err := fill.URL(ts.URL+"/art.png", 4, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, hits)
	assert.Equal(t, filled, again)
}

func TestCacheDisabled(t *testing.T) {
	c, err := NewCache("")
	require.NoError(t, err)

	exists, img, err := c.LoadImage("key", 1, 1)
	assert.NoError(t, err)
	assert.False(t, exists)
	assert.Nil(t, img)
	assert.NoError(t, c.SaveImage("key", image.NewNRGBA(image.Rect(0, 0, 1, 1))))

	_, err = NewCache("/path/does/not/exist")
	assert.Error(t, err)
}

func TestParseFit(t *testing.T) {
	fit, err := ParseFit("fill")
	assert.NoError(t, err)
	assert.Equal(t, Fill, fit)

	fit, err = ParseFit("")
	assert.NoError(t, err)
	assert.Equal(t, Stretch, fit)

	_, err = ParseFit("tile")
	assert.Error(t, err)
}

func TestWallhavenHistory(t *testing.T) {
	w := NewWallhaven(WallhavenQuery{}, NewLoader(afero.NewMemMapFs(), zap.NewNop()), zap.NewNop())
	assert.Nil(t, w.Current())
	assert.Nil(t, w.Previous())

	for _, id := range []string{"a", "b", "c", "d"} {
		w.push(&Picked{Wallpaper: &api.Wallpaper{Id: id}})
	}

	assert.Len(t, w.history, 3)
	assert.Equal(t, "d", w.Current().Wallpaper.Id)

	assert.Equal(t, "c", w.Previous().Wallpaper.Id)
	assert.Equal(t, "c", w.Current().Wallpaper.Id)
	assert.Equal(t, "b", w.Previous().Wallpaper.Id)
	assert.Equal(t, "b", w.Current().Wallpaper.Id)
	assert.Nil(t, w.Previous())
	assert.Equal(t, "b", w.Current().Wallpaper.Id)
}
