// Package supervise holds the process level helpers around the daemon:
// single instance locking, wake locks and scheduling tweaks.
package supervise

import (
	"errors"
	"fmt"
	"os"

	"github.com/alexflint/go-filemutex"
	"golang.org/x/sys/unix"
)

var ErrAlreadyRunning = errors.New("another instance is already running")

// Lock holds an exclusive lock file for the life of the process.
type Lock struct {
	m *filemutex.FileMutex
}

func AcquireLock(path string) (*Lock, error) {
	m, err := filemutex.New(path)
	if err != nil {
		return nil, fmt.Errorf("lock file %s: %w", path, err)
	}
	if err := m.TryLock(); err != nil {
		m.Close()
		if errors.Is(err, filemutex.AlreadyLocked) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	return &Lock{m: m}, nil
}

func (l *Lock) Release() error {
	if err := l.m.Unlock(); err != nil {
		l.m.Close()
		return err
	}
	return l.m.Close()
}

const (
	wakeLockPath   = "/sys/power/wake_lock"
	wakeUnlockPath = "/sys/power/wake_unlock"
)

// WakeLock keeps the system from suspending while held.
type WakeLock struct {
	Name       string
	LockPath   string
	UnlockPath string
}

func NewWakeLock(name string) *WakeLock {
	return &WakeLock{Name: name, LockPath: wakeLockPath, UnlockPath: wakeUnlockPath}
}

func (w *WakeLock) Acquire() error {
	return writeName(w.LockPath, w.Name)
}

func (w *WakeLock) Release() error {
	return writeName(w.UnlockPath, w.Name)
}

func writeName(path, name string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(name); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Renice sets the process nice value.
func Renice(nice int) error {
	return unix.Setpriority(unix.PRIO_PROCESS, 0, nice)
}

// PinCPU restricts the process to one CPU.
func PinCPU(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}
