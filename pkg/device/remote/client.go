package remote

import (
	"net/rpc"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"usbpanel/pkg/packet"
	"usbpanel/pkg/proto"
)

func New(addr string) (*Client, error) {
	client, err := rpc.DialHTTP("tcp", addr)
	if err != nil {
		return nil, proto.IOError("dial", err)
	}

	c := &Client{rpc: client}
	c.size()
	return c, nil
}

type Client struct {
	rpc *rpc.Client

	mu   sync.Mutex
	last SizeResponse
}

func (c *Client) call(op, method string, args interface{}, reply interface{}) error {
	err := c.rpc.Call(method, args, reply)
	if err == nil {
		return nil
	}

	var se rpc.ServerError
	if !errors.As(err, &se) {
		return proto.IOError(op, err)
	}

	msg := string(se)
	switch {
	case strings.HasPrefix(msg, kindPacket):
		return proto.PacketError(op, errors.New(strings.TrimPrefix(msg, kindPacket)))
	case strings.HasPrefix(msg, kindImage):
		return proto.ImageError(op, errors.New(strings.TrimPrefix(msg, kindImage)))
	default:
		return proto.IOError(op, errors.New(strings.TrimPrefix(msg, kindIO)))
	}
}

func (c *Client) SetBrightness(level int) error {
	return c.call("set-brightness", "Service.SetBrightness", level, &EmptyResponse{})
}

func (c *Client) ScreenOn() error {
	return c.call("screen-on", "Service.Command", "screen-on", &EmptyResponse{})
}

func (c *Client) ScreenOff() error {
	return c.call("screen-off", "Service.Command", "screen-off", &EmptyResponse{})
}

func (c *Client) ScreenWhite() error {
	return c.call("screen-white", "Service.Command", "screen-white", &EmptyResponse{})
}

func (c *Client) ScreenBlack() error {
	return c.call("screen-black", "Service.Command", "screen-black", &EmptyResponse{})
}

func (c *Client) SetOrientation(o packet.Orientation) error {
	return c.call("set-orientation", "Service.SetOrientation", SetOrientationRequest{Orientation: o}, &EmptyResponse{})
}

func (c *Client) DisplayImage(pixels []byte, x, y, width, height int) error {
	return c.call("display-image", "Service.DisplayImage", &DisplayImageRequest{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
		Pixels: pixels,
	}, &EmptyResponse{})
}

// size asks the remote panel for its current size. When the call fails the
// last size seen is returned, so a dropped link never reads as 0x0.
func (c *Client) size() SizeResponse {
	var resp SizeResponse
	err := c.rpc.Call("Service.Size", struct{}{}, &resp)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		return c.last
	}
	c.last = resp
	return resp
}

func (c *Client) Width() int {
	return c.size().Width
}

func (c *Client) Height() int {
	return c.size().Height
}

func (c *Client) Close() error {
	return c.rpc.Close()
}
