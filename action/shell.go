package action

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// ShellExecutor runs bindings through /bin/sh with the gesture label as the
// final argument. With a script dir, the binding names a script inside it and
// runs as "sh <dir>/<binding> <label>".
type ShellExecutor struct {
	Shell string
	Log   zerolog.Logger
}

func NewShellExecutor(log zerolog.Logger) *ShellExecutor {
	return &ShellExecutor{Shell: "/bin/sh", Log: log}
}

// CommandLine builds the shell line run for req.
func CommandLine(req Request) string {
	line := req.Command
	if req.ScriptDir != "" && !filepath.IsAbs(req.Command) {
		line = "sh " + filepath.Join(req.ScriptDir, req.Command)
	}
	return line + " " + req.Label
}

func (e *ShellExecutor) Execute(ctx context.Context, req Request) error {
	line := CommandLine(req)
	e.Log.Info().Str("line", line).Msg("executing")

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Shell, "-c", line)
	cmd.Stdout, cmd.Stderr = &out, &out
	// Background children of the script may hold the output pipe open.
	cmd.WaitDelay = time.Second
	err := cmd.Run()
	if out.Len() > 0 {
		e.Log.Debug().Str("line", line).Str("output", out.String()).Msg("script output")
	}
	var exitErr *exec.ExitError
	switch {
	case err == nil, errors.Is(err, exec.ErrWaitDelay):
		e.Log.Info().Str("line", line).Int("status", 0).Msg("script finished")
		return nil
	case errors.As(err, &exitErr):
		return fmt.Errorf("%q exited with status %d", line, exitErr.ExitCode())
	default:
		return fmt.Errorf("run %q: %w", line, err)
	}
}
