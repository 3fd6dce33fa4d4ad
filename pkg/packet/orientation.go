package packet

import (
	"strings"

	"github.com/pkg/errors"
)

type Orientation uint8

const (
	Portrait         Orientation = 0
	ReversePortrait  Orientation = 1
	Landscape        Orientation = 2
	ReverseLandscape Orientation = 3
)

var orientationNames = map[Orientation]string{
	Portrait:         "portrait",
	ReversePortrait:  "reverse-portrait",
	Landscape:        "landscape",
	ReverseLandscape: "reverse-landscape",
}

func ParseOrientation(name string) (Orientation, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for o, n := range orientationNames {
		if n == name {
			return o, nil
		}
	}
	return Portrait, errors.Wrapf(ErrInvalidArgument, "unknown orientation %q", name)
}

func (o Orientation) ID() uint8 {
	return uint8(o)
}

// Landscape reports whether the panel axes are swapped in this orientation.
func (o Orientation) Landscape() bool {
	return o == Landscape || o == ReverseLandscape
}

func (o Orientation) Valid() bool {
	return o <= ReverseLandscape
}

func (o Orientation) String() string {
	if n, ok := orientationNames[o]; ok {
		return n
	}
	return "unknown"
}
