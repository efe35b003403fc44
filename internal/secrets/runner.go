package secrets

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Runner executes the external decryption command.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands as child processes. The child inherits the
// current environment and has no stdin.
type ExecRunner struct {
	// Dir is the working directory of the child; empty means the current one.
	Dir string
}

// Run starts the command and waits for it to exit. A non-zero exit status
// is returned as *exec.ExitError.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// exitCode extracts the exit status from a Runner error, or -1 when the
// command never ran to completion.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
