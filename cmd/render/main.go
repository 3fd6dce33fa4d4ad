package main

import (
	"log"
	"net/http"

	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"usbpanel/pkg/device/inch35"
	"usbpanel/pkg/device/remote"
	"usbpanel/pkg/proto"
)

var serial = flag.String("serial", "ttyACM0", "serial name")
var baudRate = flag.Int("baud", inch35.DefaultBaudRate, "serial baud rate")
var listen = flag.String("listen", ":9123", "listen addr")
var debug = flag.Bool("debug", false, "set debug")

func main() {
	flag.Parse()

	logger, err := zap.NewProduction()
	if *debug {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatal(err)
	}

	fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Supply(logger),
		fx.Provide(
			func() *http.Server {
				return &http.Server{Addr: *listen}
			},
			func(logger *zap.Logger) (proto.Control, error) {
				return inch35.Open(*serial, *baudRate, logger)
			},
		),
		fx.Invoke(
			remote.Proxy,
		),
	).Run()
}
