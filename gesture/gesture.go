// Package gesture classifies key press/release transitions into clicks,
// double clicks, short presses and long presses.
package gesture

import (
	"fmt"
	"time"
)

type Kind uint8

const (
	Click Kind = iota + 1
	DoubleClick
	ShortPress
	LongPress
)

var kindNames = map[Kind]string{
	Click:       "click",
	DoubleClick: "double_click",
	ShortPress:  "short_press",
	LongPress:   "long_press",
}

// Kinds lists every gesture in a stable order.
func Kinds() []Kind { return []Kind{Click, DoubleClick, ShortPress, LongPress} }

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("gesture(%d)", uint8(k))
}

// ParseKind maps a label such as "double_click" back to its Kind.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Thresholds are the timing boundaries used to classify a release.
type Thresholds struct {
	Click       time.Duration
	ShortPress  time.Duration
	LongPress   time.Duration
	DoubleClick time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Click:       200 * time.Millisecond,
		ShortPress:  500 * time.Millisecond,
		LongPress:   1000 * time.Millisecond,
		DoubleClick: 300 * time.Millisecond,
	}
}

// Validate reports thresholds that leave a gesture unreachable.
func (t Thresholds) Validate() error {
	switch {
	case t.Click >= t.LongPress:
		return fmt.Errorf("click threshold %v not below long press threshold %v", t.Click, t.LongPress)
	case t.ShortPress < t.Click || t.ShortPress > t.LongPress:
		return fmt.Errorf("short press threshold %v outside [%v, %v]", t.ShortPress, t.Click, t.LongPress)
	case t.DoubleClick <= 0:
		return fmt.Errorf("double click interval %v must be positive", t.DoubleClick)
	}
	return nil
}

// Gesture is one decided outcome for a key.
type Gesture struct {
	Code uint16
	Kind Kind
	// Duration of the press for short/long presses.
	Duration time.Duration
	// Clicks counted inside the disambiguation window.
	Clicks int
}

// Emitter receives decided gestures. Emit must not block the caller for long;
// it is called from device workers and timer goroutines.
type Emitter interface {
	Emit(Gesture)
}

type EmitterFunc func(Gesture)

func (f EmitterFunc) Emit(g Gesture) { f(g) }
