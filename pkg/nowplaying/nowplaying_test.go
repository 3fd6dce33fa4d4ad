package nowplaying

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"usbpanel/pkg/device/virtual"
	"usbpanel/pkg/mixer"
	"usbpanel/pkg/packet"
)

const playingJSON = `{
	"is_playing": true,
	"progress_ms": 30000,
	"item": {
		"name": "Song",
		"duration_ms": 120000,
		"artists": [{"name": "A"}, {"name": "B"}],
		"album": {
			"name": "Album",
			"images": [
				{"url": "http://img/64", "width": 64, "height": 64},
				{"url": "http://img/640", "width": 640, "height": 640}
			]
		}
	}
}`

func spotify(t *testing.T, playing *atomic.Value) (*httptest.Server, *int32) {
	var refreshes int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.FormValue("grant_type") != "refresh_token" || r.FormValue("refresh_token") != "refresh" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		n := atomic.AddInt32(&refreshes, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"Bearer","expires_in":3600}`, n)
	})
	mux.HandleFunc("/v1/me/player/currently-playing", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body := playing.Load().(string)
		if body == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, &refreshes
}

func newClient(ts *httptest.Server) *Client {
	creds := Credentials{ClientID: "id", ClientSecret: "secret", RefreshToken: "refresh"}
	return NewClient(creds, zap.NewNop(), WithAPIBase(ts.URL), WithAccountsBase(ts.URL+"/"))
}

func TestClientCurrentlyPlaying(t *testing.T) {
	var body atomic.Value
	body.Store(playingJSON)
	ts, refreshes := spotify(t, &body)
	c := newClient(ts)

	p, err := c.CurrentlyPlaying(context.Background())
	require.NoError(t, err)
	require.NotNil(t, p)
	require.NotNil(t, p.Item)

	assert.True(t, p.IsPlaying)
	assert.Equal(t, "Song", p.Item.Name)
	assert.Equal(t, "A, B", p.Artists())
	assert.Equal(t, 25, p.Percent())
	assert.Equal(t, "http://img/640", p.Cover())

	body.Store("")
	p, err = c.CurrentlyPlaying(context.Background())
	require.NoError(t, err)
	assert.Nil(t, p)

	assert.Equal(t, int32(1), atomic.LoadInt32(refreshes))
}

func TestClientRefreshFailure(t *testing.T) {
	var body atomic.Value
	body.Store("")
	ts, _ := spotify(t, &body)

	c := NewClient(Credentials{ClientID: "id", ClientSecret: "wrong"}, zap.NewNop(),
		WithAPIBase(ts.URL), WithAccountsBase(ts.URL))
	_, err := c.CurrentlyPlaying(context.Background())
	assert.Error(t, err)
}

func TestPlayingHelpers(t *testing.T) {
	var p Playing
	assert.Equal(t, "", p.Artists())
	assert.Equal(t, 0, p.Percent())
	assert.Equal(t, "", p.Cover())

	p.Item = &Track{Duration: 1000}
	p.Progress = 5000
	assert.Equal(t, 100, p.Percent())
}

type fakeFetcher struct {
	playing *Playing
	err     error
}

func (f *fakeFetcher) CurrentlyPlaying(context.Context) (*Playing, error) {
	return f.playing, f.err
}

type fakeArtwork struct {
	urls []string
}

func (f *fakeArtwork) URL(url string, w, h int) ([]byte, error) {
	f.urls = append(f.urls, url)
	pix := make([]byte, w*h*4)
	for i := range pix {
		pix[i] = 0xFF
	}
	return pix, nil
}

func TestLayout(t *testing.T) {
	l := NewLayout(480, 320)
	assert.Equal(t, 160, l.Art.Dx())
	assert.Equal(t, 160, l.Art.Dy())
	assert.Equal(t, 160, l.Art.Min.X)
	assert.True(t, l.Title.Min.Y >= l.Art.Max.Y)
	assert.True(t, l.Artist.Min.Y >= l.Title.Max.Y)
	assert.True(t, l.Bar.Min.Y >= l.Artist.Max.Y)
	assert.Equal(t, 304, l.Bar.Max.Y)

	for _, r := range []interface{ Empty() bool }{l.Art, l.Title, l.Artist, l.Bar} {
		assert.False(t, r.Empty())
	}
}

func TestScreenUpdate(t *testing.T) {
	fetcher := &fakeFetcher{}
	artwork := &fakeArtwork{}
	s, err := NewScreen(fetcher, artwork, virtual.New(480, 320, zap.NewNop()), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Update(context.Background()))
	assert.Equal(t, idleTitle, s.title.Text())
	assert.Empty(t, artwork.urls)

	fetcher.playing = &Playing{
		IsPlaying: true,
		Progress:  500,
		Item: &Track{
			Name:     "Song",
			Duration: 1000,
			Artists:  []Artist{{Name: "A"}},
			Album:    Album{Images: []Image{{URL: "http://cover", Width: 300}}},
		},
	}

	require.NoError(t, s.Update(context.Background()))
	require.NoError(t, s.Update(context.Background()))
	assert.Equal(t, "Song", s.title.Text())
	assert.Equal(t, "A", s.artist.Text())
	assert.Equal(t, 50, s.bar.Progress())
	assert.Equal(t, []string{"http://cover"}, artwork.urls)
	assert.Equal(t, byte(0xFF), s.art.Pixels()[3])

	fetcher.playing = nil
	require.NoError(t, s.Update(context.Background()))
	assert.Equal(t, byte(0), s.art.Pixels()[3])
	assert.Equal(t, 0, s.bar.Progress())

	fetcher.err = fmt.Errorf("offline")
	assert.Error(t, s.Update(context.Background()))
}

func TestScreenRelayout(t *testing.T) {
	p := virtual.New(320, 480, zap.NewNop())
	d := mixer.New(p)
	fetcher := &fakeFetcher{playing: &Playing{
		Progress: 500,
		Item: &Track{
			Name:     "Song",
			Duration: 1000,
			Album:    Album{Images: []Image{{URL: "http://cover", Width: 300}}},
		},
	}}
	artwork := &fakeArtwork{}

	s, err := NewScreen(fetcher, artwork, p, zap.NewNop())
	require.NoError(t, err)
	s.Attach(d, 10)
	require.NoError(t, s.Update(context.Background()))
	assert.Equal(t, 4, d.Layers())
	_, _, artW, _ := s.art.BoundingBox()
	assert.Equal(t, NewLayout(320, 480).Art.Dx(), artW)

	require.NoError(t, p.SetOrientation(packet.Landscape))
	require.NoError(t, s.Update(context.Background()))

	want := NewLayout(480, 320)
	x, y, w, h := s.bar.BoundingBox()
	assert.Equal(t, want.Bar, image.Rect(x, y, x+w, y+h))
	x, y, w, h = s.art.BoundingBox()
	assert.Equal(t, want.Art, image.Rect(x, y, x+w, y+h))
	assert.Equal(t, "Song", s.title.Text())
	assert.Equal(t, 4, d.Layers())
	assert.Equal(t, []string{"http://cover", "http://cover"}, artwork.urls)
	require.NoError(t, d.RedrawFull())

	s.Detach(d)
	assert.Equal(t, 0, d.Layers())
}
