package proto

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// Channel is the write side of the panel link. The panel never answers, so
// nothing is read back.
type Channel interface {
	io.Writer
	io.Closer
}

type Options struct {
	DTR          bool
	RTS          bool
	BaudRate     int
	WriteTimeout time.Duration
}

var ErrTimeout = errors.New("write timeout")

func NewSerial(name string) *Serial {
	return &Serial{name: name}
}

type Serial struct {
	mu      sync.Mutex
	name    string
	port    serial.Port
	timeout time.Duration
}

func (s *Serial) Ports() ([]string, error) {
	return serial.GetPortsList()
}

// Name returns the device path selected by Open, or the configured name
// before that.
func (s *Serial) Name() string {
	return s.name
}

func (s *Serial) match() (string, error) {
	if _, err := os.Stat(s.name); err == nil {
		return s.name, nil
	}

	ports, err := s.Ports()
	if err != nil {
		return "", err
	}

	for _, name := range ports {
		if strings.Contains(name, s.name) {
			return name, nil
		}
	}

	return "", errors.Errorf("USB port %q not found", s.name)
}

func (s *Serial) Open(opts *Options) error {
	matched, err := s.match()
	if err != nil {
		return err
	}

	port, err := serial.Open(matched, &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return errors.Wrapf(err, "open %s", matched)
	}

	if err := port.SetDTR(opts.DTR); err != nil {
		_ = port.Close()
		return err
	}

	if err := port.SetRTS(opts.RTS); err != nil {
		_ = port.Close()
		return err
	}

	s.mu.Lock()
	s.name = matched
	s.port = port
	s.timeout = opts.WriteTimeout
	s.mu.Unlock()
	return nil
}

func (s *Serial) Close() error {
	s.mu.Lock()
	port := s.port
	s.port = nil
	s.mu.Unlock()

	if port == nil {
		return nil
	}
	return port.Close()
}

// Write blocks until p is written or the write timeout elapses. A timed out
// write closes the port so the stuck write returns; callers must reopen it.
func (s *Serial) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	port, timeout := s.port, s.timeout
	s.mu.Unlock()

	if port == nil {
		return 0, errors.New("port not opened")
	}
	if timeout <= 0 {
		return port.Write(p)
	}

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := port.Write(p)
		done <- result{n, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.n, r.err
	case <-timer.C:
		s.mu.Lock()
		if s.port == port {
			s.port = nil
		}
		s.mu.Unlock()
		_ = port.Close()
		return 0, ErrTimeout
	}
}
