package health

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// FileCheck checks that a vault input file exists and is a regular file.
type FileCheck struct {
	name    string
	path    string
	private bool
}

// FileCheckOption configures a FileCheck.
type FileCheckOption func(*FileCheck)

// WithPrivateMode reports degraded status when the file is readable by
// group or others.
func WithPrivateMode() FileCheckOption {
	return func(c *FileCheck) {
		c.private = true
	}
}

// NewFileCheck creates a new file health check.
func NewFileCheck(name, path string, opts ...FileCheckOption) *FileCheck {
	c := &FileCheck{name: name, path: path}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the name of the health check.
func (c *FileCheck) Name() string {
	return c.name
}

// CheckDetailed performs a detailed health check and returns a Result.
func (c *FileCheck) CheckDetailed(ctx context.Context) Result {
	details := map[string]string{"path": c.path}

	fi, err := os.Stat(c.path)
	if err != nil {
		return Result{Name: c.name, Status: StatusUnhealthy, Message: err.Error(), Details: details}
	}
	if !fi.Mode().IsRegular() {
		return Result{Name: c.name, Status: StatusUnhealthy, Message: "not a regular file", Details: details}
	}

	details["mode"] = fi.Mode().Perm().String()
	if c.private && fi.Mode().Perm()&0o077 != 0 {
		return Result{
			Name:    c.name,
			Status:  StatusDegraded,
			Message: fmt.Sprintf("readable by group or others (%s); run chmod 600 %s", fi.Mode().Perm(), c.path),
			Details: details,
		}
	}

	return Result{Name: c.name, Status: StatusHealthy, Message: "present", Details: details}
}

// CommandCheck checks that the decryption command can be found.
type CommandCheck struct {
	command string
}

// NewCommandCheck creates a new command lookup health check.
func NewCommandCheck(command string) *CommandCheck {
	return &CommandCheck{command: command}
}

// Name returns the name of the health check.
func (c *CommandCheck) Name() string {
	return "decrypt command"
}

// CheckDetailed performs a detailed health check and returns a Result.
func (c *CommandCheck) CheckDetailed(ctx context.Context) Result {
	path, err := exec.LookPath(c.command)
	if err != nil {
		return Result{
			Name:    c.Name(),
			Status:  StatusUnhealthy,
			Message: err.Error(),
			Details: map[string]string{"command": c.command},
		}
	}
	return Result{
		Name:    c.Name(),
		Status:  StatusHealthy,
		Message: "found",
		Details: map[string]string{"command": c.command, "path": path},
	}
}

// LoadFunc decrypts the document and returns its number of entries.
type LoadFunc func(ctx context.Context) (int, error)

// DecryptCheck runs a trial decryption.
type DecryptCheck struct {
	load LoadFunc
}

// NewDecryptCheck creates a new trial decryption health check.
func NewDecryptCheck(load LoadFunc) *DecryptCheck {
	return &DecryptCheck{load: load}
}

// Name returns the name of the health check.
func (c *DecryptCheck) Name() string {
	return "decryption"
}

// CheckDetailed performs a detailed health check and returns a Result.
func (c *DecryptCheck) CheckDetailed(ctx context.Context) Result {
	n, err := c.load(ctx)
	if err != nil {
		return Result{Name: c.Name(), Status: StatusUnhealthy, Message: err.Error()}
	}

	details := map[string]string{"keys": strconv.Itoa(n)}
	if n == 0 {
		return Result{Name: c.Name(), Status: StatusDegraded, Message: "document has no entries", Details: details}
	}
	return Result{Name: c.Name(), Status: StatusHealthy, Message: "decrypted", Details: details}
}
