package adapter

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ScriptRunner executes an automation script
type ScriptRunner interface {
	Run(ctx context.Context, script string) error
}

// Osascript runs AppleScript with the osascript command. The script is read
// from stdin ("osascript -").
type Osascript struct {
	path string
}

type OsascriptOption func(*Osascript)

// WithOsascriptPath replaces the osascript executable
func WithOsascriptPath(path string) OsascriptOption {
	return func(o *Osascript) {
		o.path = path
	}
}

func NewOsascript(opts ...OsascriptOption) *Osascript {
	o := &Osascript{path: "osascript"}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Osascript) Run(ctx context.Context, script string) error {
	cmd := exec.CommandContext(ctx, o.path, "-")
	cmd.Stdin = strings.NewReader(script)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return goerr.Wrap(err, "script exited with error",
				goerr.V("command", o.path),
				goerr.V("exit_code", exitErr.ExitCode()),
				goerr.V("stderr", strings.TrimSpace(stderr.String())))
		}
		return goerr.Wrap(err, "failed to run script", goerr.V("command", o.path))
	}

	return nil
}
