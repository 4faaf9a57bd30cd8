package gesture

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type keyState struct {
	pressed     bool
	pressTime   time.Time
	lastRelease time.Time
	clicks      int
	armed       bool
	// timer is created on the first click and reused via Reset afterwards.
	timer *time.Timer
}

// KeyState is a copy of one key's classification state.
type KeyState struct {
	Pressed     bool
	PressTime   time.Time
	LastRelease time.Time
	Clicks      int
	TimerArmed  bool
}

// Classifier owns the per-key state table. A single mutex guards every key;
// gestures on different keys carry no relative ordering guarantee. Keys are
// merged by code, so the same code arriving from two devices shares state.
type Classifier struct {
	mu     sync.Mutex
	keys   map[uint16]*keyState
	closed bool

	th  atomic.Pointer[Thresholds]
	out Emitter
	log zerolog.Logger
}

func NewClassifier(th Thresholds, out Emitter, log zerolog.Logger) *Classifier {
	c := &Classifier{
		keys: make(map[uint16]*keyState),
		out:  out,
		log:  log,
	}
	c.th.Store(&th)
	return c
}

// SetThresholds swaps the thresholds used by subsequent releases and timers
// armed after the call.
func (c *Classifier) SetThresholds(th Thresholds) { c.th.Store(&th) }

func (c *Classifier) Thresholds() Thresholds { return *c.th.Load() }

// Press records a key down. A press while already pressed is ignored.
func (c *Classifier) Press(code uint16, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	st, ok := c.keys[code]
	if !ok {
		st = &keyState{}
		c.keys[code] = st
	}
	if st.pressed {
		return
	}
	st.pressed = true
	st.pressTime = now
	c.log.Debug().Uint16("code", code).Msg("key pressed")
}

// Release records a key up and either emits a press gesture immediately or
// counts a click for the disambiguation timer.
func (c *Classifier) Release(code uint16, now time.Time) {
	g, ok := c.release(code, now)
	if ok {
		c.out.Emit(g)
	}
}

func (c *Classifier) release(code uint16, now time.Time) (Gesture, bool) {
	th := c.Thresholds()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Gesture{}, false
	}
	st, ok := c.keys[code]
	if !ok || !st.pressed {
		return Gesture{}, false
	}
	st.pressed = false
	dur := now.Sub(st.pressTime).Truncate(time.Millisecond)
	c.log.Debug().Uint16("code", code).Dur("duration", dur).Msg("key released")

	switch {
	case dur <= th.Click:
		st.clicks++
		st.lastRelease = now
		if !st.armed {
			st.armed = true
			c.arm(code, st, th.DoubleClick)
		}
		return Gesture{}, false
	case dur >= th.LongPress:
		return Gesture{Code: code, Kind: LongPress, Duration: dur}, true
	default:
		return Gesture{Code: code, Kind: ShortPress, Duration: dur}, true
	}
}

// arm schedules fire for code. Callers hold c.mu.
func (c *Classifier) arm(code uint16, st *keyState, d time.Duration) {
	if st.timer == nil {
		st.timer = time.AfterFunc(d, func() { c.fire(code) })
		return
	}
	// The previous arm has already fired (armed was false), so the timer is
	// expired and Reset is safe.
	st.timer.Reset(d)
}

func (c *Classifier) fire(code uint16) {
	c.mu.Lock()
	st, ok := c.keys[code]
	if c.closed || !ok || !st.armed {
		c.mu.Unlock()
		return
	}
	n := st.clicks
	st.clicks = 0
	st.armed = false
	c.mu.Unlock()

	switch {
	case n == 1:
		c.out.Emit(Gesture{Code: code, Kind: Click, Clicks: n})
	case n >= 2:
		c.out.Emit(Gesture{Code: code, Kind: DoubleClick, Clicks: n})
	}
}

// State returns a copy of the state for code.
func (c *Classifier) State(code uint16) (KeyState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.keys[code]
	if !ok {
		return KeyState{}, false
	}
	return KeyState{
		Pressed:     st.pressed,
		PressTime:   st.pressTime,
		LastRelease: st.lastRelease,
		Clicks:      st.clicks,
		TimerArmed:  st.armed,
	}, true
}

// Reset stops every pending timer and clears all key state. Pending clicks are
// dropped and the classifier ignores events from then on.
func (c *Classifier) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for _, st := range c.keys {
		if st.timer != nil {
			st.timer.Stop()
		}
		*st = keyState{}
	}
}
