// Package sh runs recipes: either through a named interpreter fed on stdin,
// as one script in script mode, or line by line through `sh -c`.
package sh

import (
	"context"
	"errors"
	"io"
	"os/exec"
)

// Exec runs the command with the given stdio, blocking until it exits. The
// first return reports whether the command started at all (as opposed to
// failing to be found or spawned).
func Exec(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, cmd string, args ...string) (bool, error) {
	c := exec.CommandContext(ctx, cmd, args...)
	c.Stdin = stdin
	c.Stdout = stdout
	c.Stderr = stderr
	err := c.Run()
	return cmdRan(err), err
}

// cmdRan reports whether the command was actually started.
func cmdRan(err error) bool {
	if err == nil {
		return true
	}
	var ee *exec.ExitError
	return errors.As(err, &ee)
}

// ExitStatus extracts the child's exit status from an Exec error. A nil
// error is 0; an error that carries no status (spawn failure) is 1.
func ExitStatus(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return 1
}
