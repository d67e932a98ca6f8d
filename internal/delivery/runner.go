package delivery

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// ErrTimeout is returned by a Runner when the process outlived its deadline
var ErrTimeout = errors.New("process timed out")

// Output is what a finished process left behind
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner starts a process and waits for it. A process that ran and exited
// non-zero is not an error; failing to start or timing out is.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Output, error)
}

// ExecRunner runs real processes
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}

	if ctx.Err() != nil {
		return out, ErrTimeout
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	if err != nil {
		return out, err
	}
	return out, nil
}
