// Package config loads the panel configuration from YAML, the system
// keyring and environment variables, in increasing precedence.
package config

import (
	"image/color"
	"os"
	"path/filepath"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"usbpanel/pkg/device/inch35"
	"usbpanel/pkg/nowplaying"
	"usbpanel/pkg/packet"
	"usbpanel/pkg/source"
)

const (
	KeyringService = "usbpanel"

	KeySpotifySecret  = "spotify-client-secret"
	KeySpotifyRefresh = "spotify-refresh-token"
	KeyTelegramToken  = "telegram-token"
	KeyWallhavenKey   = "wallhaven-key"
)

type Config struct {
	Panel      PanelConfig      `yaml:"panel"`
	Interval   time.Duration    `yaml:"interval"`
	CacheDir   string           `yaml:"cache_dir"`
	Listen     string           `yaml:"listen"`
	Layers     []LayerConfig    `yaml:"layers"`
	Background BackgroundConfig `yaml:"background"`
	Spotify    SpotifyConfig    `yaml:"spotify"`
	Telegram   TelegramConfig   `yaml:"telegram"`
}

type PanelConfig struct {
	Serial      string        `yaml:"serial"`
	BaudRate    int           `yaml:"baud_rate"`
	Width       int           `yaml:"width"`
	Height      int           `yaml:"height"`
	Brightness  int           `yaml:"brightness"`
	Orientation string        `yaml:"orientation"`
	ChunkRows   int           `yaml:"chunk_rows"`
	Timeout     time.Duration `yaml:"timeout"`
	// Remote is the address of a render proxy, used instead of Serial.
	Remote  string `yaml:"remote"`
	Virtual bool   `yaml:"virtual"`
}

// LayerConfig declares a static layer. Exactly one of the sources is set.
type LayerConfig struct {
	Order      int    `yaml:"order"`
	X          int    `yaml:"x"`
	Y          int    `yaml:"y"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Image      string `yaml:"image"`
	URL        string `yaml:"url"`
	Text       string `yaml:"text"`
	Progress   *int   `yaml:"progress"`
	Icon       string `yaml:"icon"`
	Fit        string `yaml:"fit"`
	Color      string `yaml:"color"`
	Background string `yaml:"background"`
}

const (
	KindImage    = "image"
	KindURL      = "url"
	KindText     = "text"
	KindProgress = "progress"
	KindIcon     = "icon"
)

func (l LayerConfig) kinds() []string {
	set := map[string]bool{
		KindImage:    l.Image != "",
		KindURL:      l.URL != "",
		KindText:     l.Text != "",
		KindProgress: l.Progress != nil,
		KindIcon:     l.Icon != "",
	}
	return lo.Filter([]string{KindImage, KindURL, KindText, KindProgress, KindIcon}, func(k string, _ int) bool {
		return set[k]
	})
}

// Kind reports which source the layer uses.
func (l LayerConfig) Kind() string {
	if ks := l.kinds(); len(ks) == 1 {
		return ks[0]
	}
	return ""
}

type BackgroundConfig struct {
	Order     int                    `yaml:"order"`
	Interval  time.Duration          `yaml:"interval"`
	Wallhaven *source.WallhavenQuery `yaml:"wallhaven"`
}

type SpotifyConfig struct {
	nowplaying.Credentials `yaml:",inline"`

	Enabled bool `yaml:"enabled"`
	Order   int  `yaml:"order"`
}

type TelegramConfig struct {
	Token string `yaml:"-"`
}

func Default() *Config {
	return &Config{
		Panel: PanelConfig{
			Serial:      "ttyACM0",
			BaudRate:    inch35.DefaultBaudRate,
			Width:       inch35.NativeWidth,
			Height:      inch35.NativeHeight,
			Brightness:  50,
			Orientation: packet.Portrait.String(),
			ChunkRows:   inch35.RowsPerChunk,
			Timeout:     inch35.DefaultTimeout,
		},
		Interval: time.Second,
		Background: BackgroundConfig{
			Interval: 5 * time.Minute,
		},
		Spotify: SpotifyConfig{
			Order: 10,
		},
	}
}

// DefaultPath honors USBPANEL_CONFIG before ~/.config/usbpanel/config.yaml.
func DefaultPath() string {
	if p := os.Getenv("USBPANEL_CONFIG"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "usbpanel", "config.yaml")
}

// Load reads path, or DefaultPath when empty. A missing default file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "reading %s", path)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}

	cfg.secrets()
	cfg.environ()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "validating %s", path)
	}
	return cfg, nil
}

func secret(dst *string, account string) {
	if *dst != "" {
		return
	}
	if v, err := keyring.Get(KeyringService, account); err == nil {
		*dst = v
	}
}

func (c *Config) secrets() {
	secret(&c.Spotify.ClientSecret, KeySpotifySecret)
	secret(&c.Spotify.RefreshToken, KeySpotifyRefresh)
	secret(&c.Telegram.Token, KeyTelegramToken)
	if c.Background.Wallhaven != nil {
		secret(&c.Background.Wallhaven.Key, KeyWallhavenKey)
	}
}

func env(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func (c *Config) environ() {
	env(&c.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	env(&c.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")
	env(&c.Spotify.RefreshToken, "SPOTIFY_REFRESH_TOKEN")
	env(&c.Telegram.Token, "TELEGRAM_TOKEN")
	if c.Background.Wallhaven != nil {
		env(&c.Background.Wallhaven.Key, "WALLHAVEN_KEY")
	}
}

// SetSecret stores a secret in the system keyring.
func SetSecret(account, value string) error {
	_ = keyring.Delete(KeyringService, account)
	return keyring.Set(KeyringService, account, value)
}

func (c *Config) Validate() error {
	p := c.Panel
	if _, err := packet.ParseOrientation(p.Orientation); err != nil {
		return err
	}
	if p.Brightness < 1 || p.Brightness > 100 {
		return errors.Errorf("brightness %d out of range 1..100", p.Brightness)
	}
	if p.Width <= 0 || p.Height <= 0 {
		return errors.Errorf("invalid panel size %dx%d", p.Width, p.Height)
	}
	if p.ChunkRows <= 0 {
		return errors.Errorf("invalid chunk rows %d", p.ChunkRows)
	}
	if c.Interval <= 0 {
		return errors.Errorf("invalid interval %s", c.Interval)
	}

	for i, l := range c.Layers {
		if l.Kind() == "" {
			return errors.Errorf("layer %d: need exactly one of image, url, text, progress or icon, got %v", i, l.kinds())
		}
		if l.Width <= 0 || l.Height <= 0 {
			return errors.Errorf("layer %d: invalid size %dx%d", i, l.Width, l.Height)
		}
		if _, err := source.ParseFit(l.Fit); err != nil {
			return errors.Wrapf(err, "layer %d", i)
		}
		if _, err := ParseColor(l.Color, color.White); err != nil {
			return errors.Wrapf(err, "layer %d", i)
		}
		if _, err := ParseColor(l.Background, color.Transparent); err != nil {
			return errors.Wrapf(err, "layer %d", i)
		}
	}

	if c.Spotify.Enabled && (c.Spotify.ClientID == "" || c.Spotify.RefreshToken == "") {
		return errors.New("spotify: client id and refresh token are required")
	}
	return nil
}

// Orientation returns the parsed panel orientation.
func (c *Config) Orientation() packet.Orientation {
	o, _ := packet.ParseOrientation(c.Panel.Orientation)
	return o
}

// ParseColor reads a "#rrggbb" color or "transparent". Empty yields fallback.
func ParseColor(s string, fallback color.Color) (color.Color, error) {
	switch s {
	case "":
		return fallback, nil
	case "transparent":
		return color.Transparent, nil
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return nil, errors.Wrapf(err, "color %q", s)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}
