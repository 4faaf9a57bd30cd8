// Package action runs the scripts bound to gestures.
package action

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/chzchzchz/kctrl/config"
	"github.com/chzchzchz/kctrl/gesture"
)

// Executor runs one bound command for a gesture label.
type Executor interface {
	Execute(ctx context.Context, req Request) error
}

type Request struct {
	Command string
	Label   string
	// ScriptDir and Timeout come from the snapshot holding the binding.
	ScriptDir string
	Timeout   time.Duration
}

// ConfigSource yields a fresh snapshot on every call.
type ConfigSource interface {
	Load() (*config.Snapshot, error)
}

const queueLen = 8

// Dispatcher reloads the configuration for every gesture, looks up the bound
// command and starts it without waiting for it.
type Dispatcher struct {
	cfg  ConfigSource
	exec Executor
	log  zerolog.Logger

	// OnReload, if set, sees every snapshot loaded for a gesture.
	OnReload func(*config.Snapshot)

	mu     sync.Mutex
	closed bool
	done   chan struct{}

	serial sync.Once
	queue  chan Request
}

func NewDispatcher(cfg ConfigSource, exec Executor, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:  cfg,
		exec: exec,
		log:  log,
		done: make(chan struct{}),
	}
}

// serialQueue starts the single serial-mode worker on first use.
func (d *Dispatcher) serialQueue() chan<- Request {
	d.serial.Do(func() {
		d.queue = make(chan Request, queueLen)
		go func() {
			for {
				select {
				case req := <-d.queue:
					d.run(req)
				case <-d.done:
					return
				}
			}
		}()
	})
	return d.queue
}

// Emit hands g to a new goroutine so that config reads never stall the
// caller.
func (d *Dispatcher) Emit(g gesture.Gesture) {
	go d.Dispatch(g)
}

// Dispatch reloads the config and starts the command bound to g. It reports
// whether a command was started or queued.
func (d *Dispatcher) Dispatch(g gesture.Gesture) bool {
	log := d.log.With().Uint16("code", g.Code).Stringer("gesture", g.Kind).Logger()
	if d.isClosed() {
		return false
	}
	snap, err := d.cfg.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to reload config before event handling")
		return false
	}
	if d.OnReload != nil {
		d.OnReload(snap)
	}
	cmd, ok := snap.Script(g.Code, g.Kind)
	if !ok {
		log.Debug().Msg("no binding")
		return false
	}
	req := Request{
		Command:   cmd,
		Label:     g.Kind.String(),
		ScriptDir: snap.ScriptDir,
		Timeout:   snap.ScriptTimeout,
	}
	log.Info().Str("command", cmd).Msg("dispatching")
	if snap.SerialScripts {
		select {
		case d.serialQueue() <- req:
		default:
			log.Warn().Msg("script queue full, dropping")
			return false
		}
		return true
	}
	go d.run(req)
	return true
}

func (d *Dispatcher) run(req Request) {
	ctx := context.Background()
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	if err := d.exec.Execute(ctx, req); err != nil {
		d.log.Error().Err(err).Str("command", req.Command).Msg("script failed")
	}
}

func (d *Dispatcher) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Close stops accepting gestures. Commands already running are left alone;
// queued ones are dropped.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		close(d.done)
	}
}
