package adapter_test

import (
	"context"
	"os/exec"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/recap/pkg/adapter"
)

func lookPath(t *testing.T, name string) string {
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s is not available", name)
	}
	return path
}

func TestOsascriptRun(t *testing.T) {
	ctx := context.Background()

	t.Run("zero exit", func(t *testing.T) {
		runner := adapter.NewOsascript(adapter.WithOsascriptPath(lookPath(t, "cat")))
		gt.NoError(t, runner.Run(ctx, `tell application "Messages" to quit`))
	})

	t.Run("non-zero exit", func(t *testing.T) {
		runner := adapter.NewOsascript(adapter.WithOsascriptPath(lookPath(t, "false")))
		err := runner.Run(ctx, "anything")
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("script exited with error")
	})

	t.Run("missing command", func(t *testing.T) {
		runner := adapter.NewOsascript(adapter.WithOsascriptPath("/nonexistent/osascript"))
		err := runner.Run(ctx, "anything")
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("failed to run script")
	})
}
