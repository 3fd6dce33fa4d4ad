package inch35

import (
	"fmt"
	"io"
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"usbpanel/pkg/proto"
)

func (i *Inch35) send(op string, bs []byte) error {
	start := time.Now()
	if err := i.writeAll(bs); err != nil {
		return proto.IOError(op, err)
	}

	ext := ""
	if len(bs) <= 16 {
		ext = fmt.Sprintf("%x", bs)
	}

	i.logger.With(
		zap.String("op", op),
		zap.Int("sent", len(bs)),
		zap.String("cost", time.Since(start).String()),
		zap.String("data", ext),
	).Debug("transfer")

	return nil
}

// sendChunks streams the pixel payload without waiting for the panel. A
// failed chunk aborts the transfer and leaves the panel partially drawn.
func (i *Inch35) sendChunks(pixels []byte) error {
	size := i.ChunkSize()
	start := time.Now()

	chunks := 0
	for off := 0; off < len(pixels); off += size {
		end := off + size
		if end > len(pixels) {
			end = len(pixels)
		}

		if err := i.writeAll(pixels[off:end]); err != nil {
			return proto.IOError("display-image", errors.Wrapf(err, "chunk at offset %d", off))
		}
		chunks++
	}

	i.logger.With(
		zap.String("size", bytesize.New(float64(len(pixels))).String()),
		zap.Int("chunks", chunks),
		zap.String("cost", time.Since(start).String()),
	).Debug("pixels")

	return nil
}

func (i *Inch35) writeAll(bs []byte) error {
	for len(bs) > 0 {
		n, err := i.ch.Write(bs)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		bs = bs[n:]
	}
	return nil
}
