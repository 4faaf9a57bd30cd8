// Package config reads the key=value daemon configuration.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzchzchz/kctrl/gesture"
)

const DefaultPath = "/data/adb/modules/kctrl/config.txt"

var ErrNoDevice = errors.New("no device specified in config")

const scriptPrefix = "script_"

type binding struct {
	code uint16
	kind gesture.Kind
}

// Snapshot is one parse of the configuration file. It is never mutated after
// Parse returns.
type Snapshot struct {
	Values     map[string]string
	Thresholds gesture.Thresholds
	EnableLog  bool

	ScriptDir     string
	ScriptTimeout time.Duration
	SerialScripts bool
	Grab          bool

	// Skipped holds 1-based line numbers that were not understood.
	Skipped []int

	scripts map[binding]string
}

// Device returns the raw device token string.
func (s *Snapshot) Device() (string, error) {
	v, ok := s.Values["device"]
	if !ok || strings.TrimSpace(v) == "" {
		return "", ErrNoDevice
	}
	return v, nil
}

// Script returns the command bound to a gesture on code.
func (s *Snapshot) Script(code uint16, kind gesture.Kind) (string, bool) {
	cmd, ok := s.scripts[binding{code, kind}]
	return cmd, ok
}

// Bindings returns the number of script bindings.
func (s *Snapshot) Bindings() int { return len(s.scripts) }

// ScriptKey builds the config key that binds kind on code.
func ScriptKey(code uint16, kind gesture.Kind) string {
	return fmt.Sprintf("%s%d_%s", scriptPrefix, code, kind)
}

func parseScriptKey(key string) (binding, bool) {
	rest, ok := strings.CutPrefix(key, scriptPrefix)
	if !ok {
		return binding{}, false
	}
	num, suffix, ok := strings.Cut(rest, "_")
	if !ok {
		return binding{}, false
	}
	code, err := strconv.ParseUint(num, 10, 16)
	if err != nil {
		return binding{}, false
	}
	kind, ok := gesture.ParseKind(suffix)
	if !ok {
		return binding{}, false
	}
	return binding{uint16(code), kind}, true
}

// Parse reads key=value lines. Comments start with '#'; the first
// occurrence of a key wins.
func Parse(r io.Reader) (*Snapshot, error) {
	s := &Snapshot{
		Values:     make(map[string]string),
		Thresholds: gesture.DefaultThresholds(),
		scripts:    make(map[binding]string),
	}
	sc := bufio.NewScanner(r)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" {
			s.Skipped = append(s.Skipped, lineno)
			continue
		}
		if _, dup := s.Values[k]; dup {
			continue
		}
		s.Values[k] = v
		if !s.apply(k, v) {
			s.Skipped = append(s.Skipped, lineno)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return s, nil
}

func (s *Snapshot) apply(k, v string) bool {
	switch k {
	case "click_threshold":
		return setMillis(&s.Thresholds.Click, v)
	case "short_press_threshold":
		return setMillis(&s.Thresholds.ShortPress, v)
	case "long_press_threshold":
		return setMillis(&s.Thresholds.LongPress, v)
	case "double_click_interval":
		return setMillis(&s.Thresholds.DoubleClick, v)
	case "script_timeout":
		return setMillis(&s.ScriptTimeout, v)
	case "enable_log":
		return setFlag(&s.EnableLog, v)
	case "serial_scripts":
		return setFlag(&s.SerialScripts, v)
	case "grab":
		return setFlag(&s.Grab, v)
	case "script_dir":
		s.ScriptDir = v
		return true
	}
	if strings.HasPrefix(k, scriptPrefix) {
		b, ok := parseScriptKey(k)
		if !ok || v == "" {
			return false
		}
		s.scripts[b] = v
	}
	return true
}

func setMillis(d *time.Duration, v string) bool {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return false
	}
	*d = time.Duration(n) * time.Millisecond
	return true
}

func setFlag(b *bool, v string) bool {
	n, err := strconv.Atoi(v)
	if err != nil {
		return false
	}
	*b = n != 0
	return true
}

// Load parses the file at path.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Loader re-reads a config file on every Load.
type Loader struct {
	Path string
}

func (l Loader) Load() (*Snapshot, error) { return Load(l.Path) }
