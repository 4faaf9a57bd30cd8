package gesture

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const window = 60 * time.Millisecond

type recorder chan Gesture

func (r recorder) Emit(g Gesture) { r <- g }

func newTestClassifier() (*Classifier, recorder) {
	th := DefaultThresholds()
	th.DoubleClick = window
	rec := make(recorder, 16)
	return NewClassifier(th, rec, zerolog.Nop()), rec
}

func waitGesture(t *testing.T, rec recorder) Gesture {
	t.Helper()
	select {
	case g := <-rec:
		return g
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for gesture")
	}
	return Gesture{}
}

func expectNone(t *testing.T, rec recorder, d time.Duration) {
	t.Helper()
	select {
	case g := <-rec:
		t.Fatalf("unexpected gesture %v for code %d", g.Kind, g.Code)
	case <-time.After(d):
	}
}

func TestKindString(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := ParseKind("triple_click"); ok {
		t.Error("triple_click should not parse")
	}
}

func TestSingleClickAfterWindow(t *testing.T) {
	c, rec := newTestClassifier()
	t0 := time.Now()
	c.Press(30, t0)
	start := time.Now()
	c.Release(30, t0.Add(150*time.Millisecond))

	st, _ := c.State(30)
	if !st.TimerArmed || st.Clicks != 1 {
		t.Fatalf("state after click = %+v, want armed with one click", st)
	}

	g := waitGesture(t, rec)
	if elapsed := time.Since(start); elapsed < window {
		t.Errorf("click fired after %v, before the %v window closed", elapsed, window)
	}
	if g.Kind != Click || g.Code != 30 || g.Clicks != 1 {
		t.Errorf("got %+v, want click on 30", g)
	}
	expectNone(t, rec, 2*window)

	st, _ = c.State(30)
	if st.TimerArmed || st.Clicks != 0 {
		t.Errorf("state after fire = %+v, want cleared", st)
	}
}

func TestDoubleClick(t *testing.T) {
	c, rec := newTestClassifier()
	t0 := time.Now()
	c.Press(30, t0)
	c.Release(30, t0.Add(50*time.Millisecond))
	c.Press(30, t0.Add(80*time.Millisecond))
	c.Release(30, t0.Add(120*time.Millisecond))

	g := waitGesture(t, rec)
	if g.Kind != DoubleClick || g.Clicks != 2 {
		t.Errorf("got %+v, want double_click", g)
	}
	expectNone(t, rec, 2*window)
}

func TestTripleClickCollapses(t *testing.T) {
	c, rec := newTestClassifier()
	t0 := time.Now()
	for i := 0; i < 3; i++ {
		at := t0.Add(time.Duration(i) * 10 * time.Millisecond)
		c.Press(31, at)
		c.Release(31, at.Add(5*time.Millisecond))
	}
	g := waitGesture(t, rec)
	if g.Kind != DoubleClick || g.Clicks != 3 {
		t.Errorf("got %+v, want double_click with 3 clicks", g)
	}
	expectNone(t, rec, 2*window)
}

func TestClickAfterWindowStartsNewCycle(t *testing.T) {
	c, rec := newTestClassifier()
	t0 := time.Now()
	c.Press(30, t0)
	c.Release(30, t0.Add(10*time.Millisecond))
	if g := waitGesture(t, rec); g.Kind != Click {
		t.Fatalf("first cycle: got %v, want click", g.Kind)
	}
	c.Press(30, t0.Add(time.Second))
	c.Release(30, t0.Add(time.Second+10*time.Millisecond))
	if g := waitGesture(t, rec); g.Kind != Click {
		t.Fatalf("second cycle: got %v, want click", g.Kind)
	}
}

func TestPressDurations(t *testing.T) {
	tests := []struct {
		name string
		dur  time.Duration
		want Kind
	}{
		{"just over click", 201 * time.Millisecond, ShortPress},
		{"short press", 700 * time.Millisecond, ShortPress},
		{"just under long", 999 * time.Millisecond, ShortPress},
		{"long press boundary", 1000 * time.Millisecond, LongPress},
		{"long press", 3 * time.Second, LongPress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestClassifier()
			t0 := time.Now()
			c.Press(40, t0)
			c.Release(40, t0.Add(tt.dur))
			select {
			case g := <-rec:
				if g.Kind != tt.want {
					t.Errorf("got %v, want %v", g.Kind, tt.want)
				}
				if g.Duration != tt.dur {
					t.Errorf("duration = %v, want %v", g.Duration, tt.dur)
				}
			default:
				t.Fatal("press gesture was not emitted synchronously")
			}
			st, _ := c.State(40)
			if st.TimerArmed || st.Clicks != 0 {
				t.Errorf("press touched click state: %+v", st)
			}
		})
	}
}

func TestClickBoundaryIsInclusive(t *testing.T) {
	c, rec := newTestClassifier()
	t0 := time.Now()
	c.Press(40, t0)
	c.Release(40, t0.Add(200*time.Millisecond))
	if g := waitGesture(t, rec); g.Kind != Click {
		t.Errorf("got %v, want click at exactly the click threshold", g.Kind)
	}
}

func TestShortPressDoesNotDisturbPendingClick(t *testing.T) {
	c, rec := newTestClassifier()
	t0 := time.Now()
	c.Press(50, t0)
	c.Release(50, t0.Add(20*time.Millisecond))
	c.Press(50, t0.Add(30*time.Millisecond))
	c.Release(50, t0.Add(730*time.Millisecond))

	if g := waitGesture(t, rec); g.Kind != ShortPress {
		t.Fatalf("got %v, want short_press first", g.Kind)
	}
	if g := waitGesture(t, rec); g.Kind != Click || g.Clicks != 1 {
		t.Fatalf("got %+v, want the pending click", g)
	}
}

func TestUnmatchedReleaseIgnored(t *testing.T) {
	c, rec := newTestClassifier()
	c.Release(60, time.Now())
	if _, ok := c.State(60); ok {
		t.Error("release without press created state")
	}
	t0 := time.Now()
	c.Press(60, t0)
	c.Release(60, t0.Add(700*time.Millisecond))
	<-rec
	c.Release(60, t0.Add(800*time.Millisecond))
	expectNone(t, rec, 2*window)
}

func TestDuplicatePressKeepsFirstTime(t *testing.T) {
	c, rec := newTestClassifier()
	t0 := time.Now()
	c.Press(70, t0)
	c.Press(70, t0.Add(600*time.Millisecond))
	c.Release(70, t0.Add(700*time.Millisecond))
	if g := waitGesture(t, rec); g.Kind != ShortPress || g.Duration != 700*time.Millisecond {
		t.Errorf("got %+v, want short_press of 700ms", g)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	c, rec := newTestClassifier()
	t0 := time.Now()
	c.Press(1, t0)
	c.Press(2, t0)
	c.Release(1, t0.Add(10*time.Millisecond))
	c.Release(2, t0.Add(10*time.Millisecond))

	seen := map[uint16]Kind{}
	for i := 0; i < 2; i++ {
		g := waitGesture(t, rec)
		seen[g.Code] = g.Kind
	}
	if seen[1] != Click || seen[2] != Click {
		t.Errorf("got %v, want a click on each key", seen)
	}
}

func TestSetThresholds(t *testing.T) {
	c, rec := newTestClassifier()
	th := c.Thresholds()
	th.Click = 50 * time.Millisecond
	c.SetThresholds(th)

	t0 := time.Now()
	c.Press(80, t0)
	c.Release(80, t0.Add(100*time.Millisecond))
	if g := waitGesture(t, rec); g.Kind != ShortPress {
		t.Errorf("got %v, want short_press with lowered click threshold", g.Kind)
	}
}

func TestResetAbandonsPendingClicks(t *testing.T) {
	c, rec := newTestClassifier()
	t0 := time.Now()
	c.Press(90, t0)
	c.Release(90, t0.Add(10*time.Millisecond))
	c.Reset()
	expectNone(t, rec, 2*window)

	st, ok := c.State(90)
	if !ok || st.Pressed || st.TimerArmed || st.Clicks != 0 {
		t.Errorf("state after reset = %+v, %v", st, ok)
	}
	c.Press(90, t0)
	c.Release(90, t0.Add(700*time.Millisecond))
	expectNone(t, rec, window)
}

func TestThresholdsValidate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
	bad := []Thresholds{
		{Click: time.Second, ShortPress: time.Second, LongPress: time.Second, DoubleClick: time.Second},
		{Click: 200, ShortPress: 100, LongPress: 1000, DoubleClick: 300},
		{Click: 200, ShortPress: 500, LongPress: 1000, DoubleClick: 0},
	}
	for _, th := range bad {
		if err := th.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", th)
		}
	}
}
