package secrets

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is checks.
var (
	ErrNotFound    = errors.New("vault input not found")
	ErrDecryption  = errors.New("vault decryption failed")
	ErrParse       = errors.New("vault document is not valid YAML")
	ErrKeyNotFound = errors.New("secret key not found")
)

// NotFoundError reports a secrets or password file that does not exist.
type NotFoundError struct {
	// Kind is "secrets file" or "password file".
	Kind string
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("vault %s not found: %s", e.Kind, e.Path)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func (e *NotFoundError) Unwrap() error { return e.Err }

// DecryptionError reports a failed run of the decryption command.
// Stderr carries the command's diagnostic output verbatim.
type DecryptionError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *DecryptionError) Error() string {
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		return fmt.Sprintf("failed to decrypt vault file: %s", msg)
	}
	return fmt.Sprintf("failed to decrypt vault file: %v", e.Err)
}

func (e *DecryptionError) Is(target error) bool { return target == ErrDecryption }

func (e *DecryptionError) Unwrap() error { return e.Err }

// ParseError reports decrypted output that is not a YAML mapping.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse vault YAML: %v", e.Err)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

func (e *ParseError) Unwrap() error { return e.Err }
