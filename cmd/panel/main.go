package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"usbpanel/pkg/bot"
	"usbpanel/pkg/config"
	"usbpanel/pkg/device/inch35"
	"usbpanel/pkg/device/remote"
	"usbpanel/pkg/device/virtual"
	"usbpanel/pkg/mixer"
	"usbpanel/pkg/nowplaying"
	"usbpanel/pkg/proto"
	"usbpanel/pkg/source"
)

var configPath = flag.String("config", "", "config file, defaults to $USBPANEL_CONFIG or ~/.config/usbpanel/config.yaml")
var serial = flag.String("serial", "", "serial name or remote addr")
var light = flag.Int("light", 50, "set light")
var orientation = flag.String("orientation", "", "portrait, reverse-portrait, landscape or reverse-landscape")
var virtualPanel = flag.Bool("virtual", false, "use an in-memory panel")
var snapshots = flag.String("snapshots", "", "save virtual panel snapshots into dir on exit")
var listPorts = flag.Bool("ports", false, "list serial ports and exit")
var debug = flag.Bool("debug", false, "set debug")

func main() {
	flag.Parse()

	logger, err := lo.Ternary(*debug, zap.NewDevelopment, zap.NewProduction)()
	if err != nil {
		log.Fatal(err)
	}

	if *listPorts {
		ports, err := proto.NewSerial("").Ports()
		if err != nil {
			logger.Fatal("list ports failed", zap.Error(err))
		}
		fmt.Println(strings.Join(ports, "\n"))
		return
	}

	fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Supply(logger),
		fx.Provide(
			loadConfig,
			openPanel,
			newDisplay,
			newLoop,
			newLoader,
			newBackground,
		),
		fx.Invoke(
			addLayers,
			addNowPlaying,
			startBot,
			runLoop,
		),
	).Run()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}

	if flag.CommandLine.Changed("serial") {
		if strings.Contains(*serial, ":") {
			cfg.Panel.Remote = *serial
		} else {
			cfg.Panel.Serial = *serial
		}
	}
	if flag.CommandLine.Changed("light") {
		cfg.Panel.Brightness = *light
	}
	if flag.CommandLine.Changed("orientation") {
		cfg.Panel.Orientation = *orientation
	}
	if *virtualPanel {
		cfg.Panel.Virtual = true
	}

	return cfg, cfg.Validate()
}

func openPanel(cfg *config.Config, logger *zap.Logger, lc fx.Lifecycle) (proto.Control, error) {
	p := cfg.Panel

	var dev proto.Control
	var err error

	switch {
	case p.Virtual:
		vp := virtual.New(p.Width, p.Height, logger.With(zap.String("via", "virtual")))
		if *snapshots != "" {
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					name, err := vp.SaveSnapshot(afero.NewBasePathFs(afero.NewOsFs(), *snapshots))
					if err == nil {
						logger.With(zap.String("file", name)).Info("snapshot saved")
					}
					return err
				},
			})
		}
		dev = vp
	case p.Remote != "":
		dev, err = remote.New(p.Remote)
	default:
		dev, err = inch35.Open(p.Serial, p.BaudRate, logger,
			inch35.WithNativeSize(p.Width, p.Height),
			inch35.WithChunkRows(p.ChunkRows),
			inch35.WithTimeout(p.Timeout),
		)
	}
	if err != nil {
		return nil, err
	}

	if err := dev.SetBrightness(p.Brightness); err != nil {
		_ = dev.Close()
		return nil, err
	}
	if err := dev.SetOrientation(cfg.Orientation()); err != nil {
		_ = dev.Close()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return dev.Close()
		},
	})

	return dev, nil
}

func newDisplay(dev proto.Control, logger *zap.Logger) *mixer.Display {
	return mixer.New(dev, mixer.WithLogger(logger))
}

func newLoop(d *mixer.Display, cfg *config.Config, logger *zap.Logger) *mixer.Loop {
	return mixer.NewLoop(d, cfg.Interval, logger)
}

func newLoader(cfg *config.Config, logger *zap.Logger) (*source.Loader, error) {
	cache, err := source.NewCache(cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	opts := []source.Option{source.WithCache(cache)}
	if *debug {
		opts = append(opts, source.WithProgress())
	}
	return source.NewLoader(afero.NewOsFs(), logger, opts...), nil
}

// newBackground yields nil values when no wallpaper search is configured.
func newBackground(cfg *config.Config, dev proto.Control, d *mixer.Display, loop *mixer.Loop, loader *source.Loader, logger *zap.Logger) (*source.Background, *source.Wallhaven, error) {
	if cfg.Background.Wallhaven == nil {
		return nil, nil, nil
	}

	wh := source.NewWallhaven(*cfg.Background.Wallhaven, loader.Fitted(source.Fill), logger)
	bg, err := source.NewBackground(wh, dev, cfg.Background.Interval)
	if err != nil {
		return nil, nil, err
	}

	d.Register(cfg.Background.Order, bg.Layer())
	loop.OnPrepare(bg.Update)
	return bg, wh, nil
}

func addLayers(cfg *config.Config, d *mixer.Display, loader *source.Loader) error {
	for i, lc := range cfg.Layers {
		l, err := buildLayer(lc, loader)
		if err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		d.Register(lc.Order, l)
	}
	return nil
}

func addNowPlaying(cfg *config.Config, dev proto.Control, d *mixer.Display, loop *mixer.Loop, loader *source.Loader, logger *zap.Logger) error {
	if !cfg.Spotify.Enabled {
		return nil
	}

	client := nowplaying.NewClient(cfg.Spotify.Credentials, logger)
	screen, err := nowplaying.NewScreen(client, loader.Fitted(source.Fill), dev, logger)
	if err != nil {
		return err
	}

	screen.Attach(d, cfg.Spotify.Order)
	loop.OnPrepare(screen.Update)
	return nil
}

func startBot(cfg *config.Config, dev proto.Control, d *mixer.Display, loop *mixer.Loop, bg *source.Background, wh *source.Wallhaven, logger *zap.Logger, lc fx.Lifecycle) error {
	if cfg.Telegram.Token == "" {
		return nil
	}

	b, err := bot.New(cfg.Telegram.Token, dev, d, loop, logger)
	if err != nil {
		return err
	}
	b.WithBrightness(cfg.Panel.Brightness)
	if bg != nil {
		b.WithBackground(bg, wh)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			b.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			b.Stop()
			return nil
		},
	})
	return nil
}

func runLoop(loop *mixer.Loop, logger *zap.Logger, lc fx.Lifecycle) {
	ctx, cancel := context.WithCancel(context.Background())
	exited := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(exited)
				_ = loop.Run(ctx)
				logger.Info("redraw loop exited")
			}()
			return nil
		},
		OnStop: func(stop context.Context) error {
			cancel()
			select {
			case <-exited:
				return nil
			case <-stop.Done():
				return stop.Err()
			}
		},
	})
}
