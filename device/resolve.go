// Package device finds and reads Linux evdev input devices.
package device

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

var ErrNoDevices = errors.New("no valid device paths found")

// Resolver turns a '|' separated device string into device paths. Each token
// is an absolute path, an eventN node name, or a device name that may contain
// '*' wildcards, optionally written as name:<v> or name=<v>.
type Resolver struct {
	Dir       string
	Enumerate func() []Descriptor
	Log       zerolog.Logger

	descs []Descriptor
	ready bool
}

func NewResolver(log zerolog.Logger) *Resolver {
	return &Resolver{Dir: InputDir, Enumerate: Enumerate, Log: log}
}

// Resolve returns distinct paths in first-seen order.
func (r *Resolver) Resolve(spec string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	for _, tok := range strings.Split(spec, "|") {
		tok = cleanToken(tok)
		switch {
		case tok == "":
		case tok[0] == '/':
			add(tok)
		case isEventNode(tok):
			add(filepath.Join(r.Dir, tok))
		default:
			n := 0
			for _, d := range r.devices() {
				if matchName(d.Name, tok) {
					add(d.Path)
					n++
				}
			}
			if n == 0 {
				r.Log.Warn().Str("name", tok).Msg("no input device matches")
			}
		}
	}
	if len(paths) == 0 {
		return nil, ErrNoDevices
	}
	return paths, nil
}

func (r *Resolver) devices() []Descriptor {
	if r.ready {
		return r.descs
	}
	r.ready = true
	r.descs = r.Enumerate()
	if len(r.descs) == 0 {
		r.Log.Warn().Msg("no input devices enumerated; name matching will fail")
	}
	for _, d := range r.descs {
		name := d.Name
		if name == "" {
			name = "<unknown>"
		}
		r.Log.Info().Str("path", d.Path).Str("name", name).Msg("enumerated input")
	}
	return r.descs
}

func matchName(name, tok string) bool {
	if name == "" {
		return false
	}
	if strings.Contains(tok, "*") {
		return Match(name, tok)
	}
	return name == tok
}

func cleanToken(tok string) string {
	tok = strings.Trim(tok, " \t")
	if rest, ok := strings.CutPrefix(tok, "name:"); ok {
		tok = rest
	} else if rest, ok := strings.CutPrefix(tok, "name="); ok {
		tok = rest
	}
	return unquote(tok)
}

func isEventNode(tok string) bool {
	digits, ok := strings.CutPrefix(tok, "event")
	if !ok || digits == "" {
		return false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
