package remote

import (
	"context"
	"net"
	"net/http"
	"net/rpc"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"usbpanel/pkg/proto"
)

// NewServer registers dev on its own rpc.Server served over HTTP.
func NewServer(dev proto.Control) (*rpc.Server, error) {
	srv := rpc.NewServer()
	if err := srv.Register(&Service{dev: dev}); err != nil {
		return nil, err
	}
	return srv, nil
}

// Proxy serves dev on srv for the lifetime of the fx application.
func Proxy(dev proto.Control, srv *http.Server, logger *zap.Logger, lifecycle fx.Lifecycle) error {
	rs, err := NewServer(dev)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(rpc.DefaultRPCPath, rs)
	srv.Handler = mux

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.With(zap.String("addr", ln.Addr().String())).Info("proxy listening")
			go func() {
				if err := srv.Serve(ln); err != http.ErrServerClosed {
					logger.With(zap.Error(err)).Fatal("proxy stopped")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			return dev.Close()
		},
	})

	return nil
}

type Service struct {
	dev proto.Control
}

func wireError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, proto.ErrPacket):
		return errors.New(kindPacket + err.Error())
	case errors.Is(err, proto.ErrImage):
		return errors.New(kindImage + err.Error())
	default:
		return errors.New(kindIO + err.Error())
	}
}

func (s *Service) Command(name string, _ *EmptyResponse) error {
	switch name {
	case "screen-on":
		return wireError(s.dev.ScreenOn())
	case "screen-off":
		return wireError(s.dev.ScreenOff())
	case "screen-white":
		return wireError(s.dev.ScreenWhite())
	case "screen-black":
		return wireError(s.dev.ScreenBlack())
	}

	return errors.New(kindPacket + "unknown command " + name)
}

func (s *Service) SetBrightness(level int, _ *EmptyResponse) error {
	return wireError(s.dev.SetBrightness(level))
}

func (s *Service) SetOrientation(req SetOrientationRequest, _ *EmptyResponse) error {
	return wireError(s.dev.SetOrientation(req.Orientation))
}

func (s *Service) DisplayImage(req *DisplayImageRequest, _ *EmptyResponse) error {
	return wireError(s.dev.DisplayImage(req.Pixels, req.X, req.Y, req.Width, req.Height))
}

func (s *Service) Size(_ struct{}, resp *SizeResponse) error {
	resp.Width = s.dev.Width()
	resp.Height = s.dev.Height()
	return nil
}
