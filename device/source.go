package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gvalkov/golang-evdev"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// PollInterval bounds how long a worker blocks before rechecking for
// shutdown.
const PollInterval = 100 * time.Millisecond

// Handler consumes key transitions. *gesture.Classifier satisfies it.
type Handler interface {
	Press(code uint16, now time.Time)
	Release(code uint16, now time.Time)
}

type eventReader interface {
	// wait reports whether an event can be read without blocking.
	wait(timeout time.Duration) (bool, error)
	ReadOne() (*evdev.InputEvent, error)
	Close() error
}

// Source reads key events from one device.
type Source struct {
	Path string
	Name string

	r   eventReader
	log zerolog.Logger
	now func() time.Time
}

// Open opens path for reading, taking an exclusive grab if requested.
func Open(path string, grab bool, log zerolog.Logger) (*Source, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, err
	}
	r := &evdevReader{dev: dev, fd: int(dev.File.Fd())}
	if grab {
		if err := dev.Grab(); err != nil {
			log.Warn().Err(err).Str("device", path).Msg("grab failed")
		} else {
			r.grabbed = true
		}
	}
	return newSource(path, dev.Name, r, log), nil
}

func newSource(path, name string, r eventReader, log zerolog.Logger) *Source {
	return &Source{
		Path: path,
		Name: name,
		r:    r,
		log:  log.With().Str("device", path).Logger(),
		now:  time.Now,
	}
}

// Run forwards presses (value 1) and releases (value 0) of EV_KEY events to h
// until ctx is done or the device fails. Repeats and other event types are
// dropped. The device is closed on return; a nil error means shutdown.
func (s *Source) Run(ctx context.Context, h Handler) error {
	defer s.r.Close()
	s.log.Info().Str("name", s.Name).Msg("monitoring input device")
	defer s.log.Info().Msg("stopped monitoring input device")
	for ctx.Err() == nil {
		ok, err := s.r.wait(PollInterval)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll %s: %w", s.Path, err)
		}
		if !ok {
			continue
		}
		ev, err := s.r.ReadOne()
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read %s: %w", s.Path, err)
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		switch ev.Value {
		case 1:
			h.Press(ev.Code, s.now())
		case 0:
			h.Release(ev.Code, s.now())
		}
	}
	return nil
}

type evdevReader struct {
	dev     *evdev.InputDevice
	fd      int
	grabbed bool
}

func (r *evdevReader) wait(timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(r.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout/time.Millisecond))
	if err != nil {
		return false, err
	}
	// POLLHUP and POLLERR are reported as readable so ReadOne surfaces the error.
	return n > 0 && fds[0].Revents != 0, nil
}

func (r *evdevReader) ReadOne() (*evdev.InputEvent, error) { return r.dev.ReadOne() }

func (r *evdevReader) Close() error {
	if r.grabbed {
		r.dev.Release()
	}
	return r.dev.File.Close()
}
