package remote

import (
	"usbpanel/pkg/packet"
)

type EmptyResponse struct {
}

type SetOrientationRequest struct {
	Orientation packet.Orientation
}

type DisplayImageRequest struct {
	X      int
	Y      int
	Width  int
	Height int
	Pixels []byte
}

type SizeResponse struct {
	Width  int
	Height int
}

// net/rpc only keeps error messages, so the kind travels as a prefix.
const (
	kindIO     = "io: "
	kindPacket = "packet: "
	kindImage  = "image: "
)
