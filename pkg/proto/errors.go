package proto

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds reported by panel operations. Match them with errors.Is.
var (
	ErrIO     = errors.New("io error")
	ErrPacket = errors.New("packet error")
	ErrImage  = errors.New("image error")
)

type DeviceError struct {
	Kind error
	Op   string
	Err  error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

func (e *DeviceError) Is(target error) bool {
	return target == e.Kind
}

func IOError(op string, err error) error {
	return &DeviceError{Kind: ErrIO, Op: op, Err: err}
}

func PacketError(op string, err error) error {
	return &DeviceError{Kind: ErrPacket, Op: op, Err: err}
}

func ImageError(op string, err error) error {
	return &DeviceError{Kind: ErrImage, Op: op, Err: err}
}
