// Package inch35 drives the 320x480 serial panel.
package inch35

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"usbpanel/pkg/packet"
	"usbpanel/pkg/proto"
)

const (
	NativeWidth     = 320
	NativeHeight    = 480
	DefaultBaudRate = 115200
	DefaultTimeout  = 3 * time.Second
	RowsPerChunk    = 2
	InitBrightness  = 10
)

type Option func(i *Inch35)

func WithNativeSize(width, height int) Option {
	return func(i *Inch35) {
		i.nativeW = width
		i.nativeH = height
	}
}

func WithChunkRows(rows int) Option {
	return func(i *Inch35) {
		if rows > 0 {
			i.chunkRows = rows
		}
	}
}

func WithInitBrightness(level int) Option {
	return func(i *Inch35) {
		i.initLevel = level
	}
}

// WithTimeout bounds every write on channels opened by Open.
func WithTimeout(d time.Duration) Option {
	return func(i *Inch35) {
		i.timeout = d
	}
}

func newInch35(logger *zap.Logger, opts []Option) *Inch35 {
	i := &Inch35{
		logger:    logger,
		nativeW:   NativeWidth,
		nativeH:   NativeHeight,
		chunkRows: RowsPerChunk,
		initLevel: InitBrightness,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.width, i.height = i.nativeW, i.nativeH
	return i
}

// Open finds the serial port by name, opens it at baudRate and initializes
// the panel.
func Open(name string, baudRate int, logger *zap.Logger, opts ...Option) (*Inch35, error) {
	i := newInch35(logger, opts)

	serial := proto.NewSerial(name)
	if err := serial.Open(&proto.Options{
		DTR:          true,
		RTS:          true,
		BaudRate:     baudRate,
		WriteTimeout: i.timeout,
	}); err != nil {
		return nil, proto.IOError("open", err)
	}

	i.logger = logger.With(zap.String("port", serial.Name()))
	i.ch = serial
	if err := i.init(); err != nil {
		_ = serial.Close()
		return nil, err
	}

	return i, nil
}

// New initializes a panel reachable through an already opened channel.
func New(ch proto.Channel, logger *zap.Logger, opts ...Option) (*Inch35, error) {
	i := newInch35(logger, opts)
	i.ch = ch

	if err := i.init(); err != nil {
		return nil, err
	}
	return i, nil
}

type Inch35 struct {
	mu sync.Mutex

	ch     proto.Channel
	logger *zap.Logger

	nativeW     int
	nativeH     int
	width       int
	height      int
	orientation packet.Orientation

	chunkRows int
	initLevel int
	timeout   time.Duration
}

func (i *Inch35) init() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.send("hello", packet.NewHello()); err != nil {
		return err
	}
	if err := i.setBrightness(i.initLevel); err != nil {
		return err
	}
	if err := i.send("screen-on", packet.NewScreenOn()); err != nil {
		return err
	}
	if err := i.setBrightness(i.initLevel); err != nil {
		return err
	}
	return i.setOrientation(packet.Portrait)
}

func (i *Inch35) SetBrightness(level int) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.setBrightness(level)
}

func (i *Inch35) setBrightness(level int) error {
	bs, err := packet.NewBrightness(level)
	if err != nil {
		return proto.PacketError("set-brightness", err)
	}
	return i.send("set-brightness", bs)
}

func (i *Inch35) ScreenOn() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.send("screen-on", packet.NewScreenOn())
}

func (i *Inch35) ScreenOff() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.send("screen-off", packet.NewScreenOff())
}

// ScreenWhite fills the panel white. The panel only honours it in portrait.
func (i *Inch35) ScreenWhite() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.setOrientation(packet.Portrait); err != nil {
		return err
	}
	return i.send("screen-white", packet.NewScreenWhite())
}

// ScreenBlack fills the panel black. The panel only honours it in portrait.
func (i *Inch35) ScreenBlack() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.setOrientation(packet.Portrait); err != nil {
		return err
	}
	return i.send("screen-black", packet.NewScreenBlack())
}

func (i *Inch35) SetOrientation(o packet.Orientation) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.setOrientation(o)
}

func (i *Inch35) setOrientation(o packet.Orientation) error {
	if !o.Valid() {
		return proto.PacketError("set-orientation", errors.Wrapf(packet.ErrInvalidArgument, "orientation id %d", o))
	}

	if o.Landscape() {
		i.width, i.height = i.nativeH, i.nativeW
	} else {
		i.width, i.height = i.nativeW, i.nativeH
	}
	i.orientation = o

	return i.send("set-orientation", packet.NewOrientation(o, uint16(i.width), uint16(i.height)))
}

func (i *Inch35) DisplayImage(pixels []byte, x, y, width, height int) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if x+width > i.width {
		return proto.PacketError("display-image", errors.Errorf("width overflow: %d+%d > %d", x, width, i.width))
	} else if y+height > i.height {
		return proto.PacketError("display-image", errors.Errorf("height overflow: %d+%d > %d", y, height, i.height))
	}

	if want := width * height * 2; len(pixels) != want {
		return proto.ImageError("display-image", errors.Errorf("got %d pixel bytes, want %d", len(pixels), want))
	}

	header, err := packet.NewImageHeader(x, y, width, height)
	if err != nil {
		return proto.PacketError("display-image", err)
	}

	if err := i.send("display-image", header); err != nil {
		return err
	}

	return i.sendChunks(pixels)
}

func (i *Inch35) Width() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.width
}

func (i *Inch35) Height() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.height
}

func (i *Inch35) Orientation() packet.Orientation {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.orientation
}

// Native returns the panel dimensions in portrait orientation.
func (i *Inch35) Native() (width, height int) {
	return i.nativeW, i.nativeH
}

// ChunkSize is the pixel payload written per serial write: the longest
// native row times two bytes per pixel times the configured row count.
func (i *Inch35) ChunkSize() int {
	row := i.nativeW
	if i.nativeH > row {
		row = i.nativeH
	}
	return row * 2 * i.chunkRows
}

func (i *Inch35) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.ch.Close(); err != nil {
		return proto.IOError("close", err)
	}
	return nil
}
