package device

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gvalkov/golang-evdev"
)

const (
	InputDir        = "/dev/input"
	ProcDevicesPath = "/proc/bus/input/devices"
)

// Descriptor names one input event device.
type Descriptor struct {
	Path string
	// Name is the driver reported name; empty if it could not be queried.
	Name string
}

// EnumerateDir lists the event* nodes in dir and queries each one's name.
func EnumerateDir(dir string) ([]Descriptor, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []Descriptor
	for _, de := range des {
		if !strings.HasPrefix(de.Name(), "event") {
			continue
		}
		path := filepath.Join(dir, de.Name())
		out = append(out, Descriptor{Path: path, Name: deviceName(path)})
	}
	return out, nil
}

func deviceName(path string) string {
	dev, err := evdev.Open(path)
	if err != nil {
		return ""
	}
	defer dev.File.Close()
	return dev.Name
}

// ParseProcDevices reads the kernel's input device registry format, pairing
// each N: Name= line with the event handlers on the following H: line.
func ParseProcDevices(r io.Reader, dir string) []Descriptor {
	var out []Descriptor
	var name string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.Index(line, "Name="); i >= 0 {
			name = unquote(strings.TrimSpace(line[i+len("Name="):]))
			continue
		}
		i := strings.Index(line, "Handlers=")
		if i < 0 {
			continue
		}
		for _, tok := range strings.Fields(line[i+len("Handlers="):]) {
			if strings.HasPrefix(tok, "event") {
				out = append(out, Descriptor{Path: filepath.Join(dir, tok), Name: name})
			}
		}
		name = ""
	}
	return out
}

// EnumerateProc parses the registry at path.
func EnumerateProc(path, dir string) ([]Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseProcDevices(f, dir), nil
}

// Enumerate lists devices in InputDir, falling back to the proc registry if
// the directory yields nothing.
func Enumerate() []Descriptor {
	if descs, _ := EnumerateDir(InputDir); len(descs) > 0 {
		return descs
	}
	descs, _ := EnumerateProc(ProcDevicesPath, InputDir)
	return descs
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
