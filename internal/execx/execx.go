package execx

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner is the narrow capability surface every external tool is driven
// through. Commands either capture their output, stream it to the
// terminal, or attach the terminal fully for interactive use.
type Runner interface {
	// Output runs the command in dir (or the process cwd when dir is
	// empty) and returns captured stdout. A non-zero exit comes back as
	// an error carrying the command line and captured stderr.
	Output(ctx context.Context, dir, name string, args ...string) (string, error)

	// Run streams the command's stdout/stderr to the terminal and
	// reports only success or failure.
	Run(ctx context.Context, dir, name string, args ...string) error

	// Interactive additionally attaches stdin, for commands that take
	// over the terminal (ssh sessions and the like).
	Interactive(ctx context.Context, name string, args ...string) error
}

type runner struct{}

// New returns a Runner backed by os/exec.
func New() Runner {
	return runner{}
}

func (runner) Output(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %s failed: %w\nstderr: %s", name, strings.Join(args, " "), err, stderr.String())
	}
	return stdout.String(), nil
}

func (runner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s failed: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

func (runner) Interactive(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// LookPath reports whether a binary is present on PATH.
func LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
