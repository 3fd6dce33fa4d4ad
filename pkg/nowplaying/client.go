// Package nowplaying shows the track currently playing on Spotify.
package nowplaying

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	DefaultAPIBase      = "https://api.spotify.com"
	DefaultAccountsBase = "https://accounts.spotify.com"
)

type Credentials struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
}

type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Artist struct {
	Name string `json:"name"`
}

type Album struct {
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

type Track struct {
	Name     string   `json:"name"`
	Duration int64    `json:"duration_ms"`
	Artists  []Artist `json:"artists"`
	Album    Album    `json:"album"`
}

// Playing is the currently-playing state. Item is nil between tracks.
type Playing struct {
	Item      *Track `json:"item"`
	IsPlaying bool   `json:"is_playing"`
	Progress  int64  `json:"progress_ms"`
}

func (p *Playing) Artists() string {
	if p.Item == nil {
		return ""
	}
	return strings.Join(lo.Map(p.Item.Artists, func(a Artist, _ int) string { return a.Name }), ", ")
}

// Percent reports track progress in 0..100.
func (p *Playing) Percent() int {
	if p.Item == nil || p.Item.Duration <= 0 {
		return 0
	}
	pct := p.Progress * 100 / p.Item.Duration
	if pct < 0 {
		return 0
	} else if pct > 100 {
		return 100
	}
	return int(pct)
}

// Cover returns the largest album image url.
func (p *Playing) Cover() string {
	if p.Item == nil || len(p.Item.Album.Images) == 0 {
		return ""
	}
	best := p.Item.Album.Images[0]
	for _, img := range p.Item.Album.Images[1:] {
		if img.Width > best.Width {
			best = img
		}
	}
	return best.URL
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type Option func(c *Client)

func WithAPIBase(base string) Option {
	return func(c *Client) {
		c.api = strings.TrimSuffix(base, "/")
	}
}

func WithAccountsBase(base string) Option {
	return func(c *Client) {
		c.accounts = strings.TrimSuffix(base, "/")
	}
}

func NewClient(creds Credentials, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		cli:      resty.New().SetTimeout(10 * time.Second),
		creds:    creds,
		api:      DefaultAPIBase,
		accounts: DefaultAccountsBase,
		log:      logger.With(zap.String("via", "spotify")),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type Client struct {
	cli      *resty.Client
	creds    Credentials
	api      string
	accounts string
	log      *zap.Logger

	mu      sync.Mutex
	token   string
	expires time.Time
}

// Token returns a valid access token, refreshing it when expired.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expires) {
		return c.token, nil
	}

	resp, err := c.cli.R().
		SetContext(ctx).
		SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": c.creds.RefreshToken,
		}).
		SetResult(&tokenResponse{}).
		Post(c.accounts + "/api/token")
	if err != nil {
		return "", errors.Wrap(err, "refresh token")
	}
	if resp.IsError() {
		return "", errors.Errorf("refresh token: %s: %s", resp.Status(), resp.String())
	}

	tr := resp.Result().(*tokenResponse)
	if tr.AccessToken == "" {
		return "", errors.New("refresh token: empty access token")
	}

	// renew a minute early
	c.token = tr.AccessToken
	c.expires = time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - time.Minute)
	c.log.With(zap.Time("expires", c.expires)).Debug("token refreshed")

	return c.token, nil
}

func (c *Client) reset() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// CurrentlyPlaying returns nil when nothing is playing.
func (c *Client) CurrentlyPlaying(ctx context.Context) (*Playing, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.cli.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&Playing{}).
		Get(c.api + "/v1/me/player/currently-playing")
	if err != nil {
		return nil, errors.Wrap(err, "currently playing")
	}

	switch {
	case resp.StatusCode() == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode() == http.StatusUnauthorized:
		c.reset()
		return nil, errors.Errorf("currently playing: %s", resp.Status())
	case resp.IsError():
		return nil, errors.Errorf("currently playing: %s: %s", resp.Status(), resp.String())
	}

	if len(resp.Body()) == 0 {
		return nil, nil
	}
	return resp.Result().(*Playing), nil
}
