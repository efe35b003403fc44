package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/elysia/vaultenv/internal/config"
	"github.com/elysia/vaultenv/internal/secrets"
)

// troubleshootingHints suggests fixes for the common failure modes.
func troubleshootingHints(err error) []string {
	var notFound *secrets.NotFoundError
	var decrypt *secrets.DecryptionError
	var invalid *config.ValidationError

	switch {
	case errors.As(err, &notFound) && notFound.Kind == "password file":
		return []string{
			fmt.Sprintf("Create the password file at %s", notFound.Path),
			"Or point VAULTENV_PASSWORD_FILE (--password-file) at an existing one",
		}
	case errors.As(err, &notFound):
		return []string{
			fmt.Sprintf("Create the encrypted document: ansible-vault create %s", notFound.Path),
			"Or point VAULTENV_SECRETS_FILE (--secrets-file) at an existing one",
			"Relative paths are resolved against VAULTENV_PROJECT_ROOT (--project-root)",
		}
	case errors.As(err, &decrypt) && decrypt.ExitCode < 0:
		return []string{
			fmt.Sprintf("Install %s: pip install ansible", decrypt.Command),
			"Or set VAULTENV_DECRYPT_COMMAND (--decrypt-command) to the right binary",
		}
	case errors.As(err, &decrypt):
		return []string{
			"Check that the password file holds the right vault password",
			"Check that the secrets file is an ansible-vault encrypted document",
		}
	case errors.Is(err, secrets.ErrParse):
		return []string{
			"The decrypted document must be a YAML mapping of key: value pairs",
			"Inspect it with: ansible-vault view <secrets file> --vault-password-file <password file>",
		}
	case errors.Is(err, secrets.ErrKeyNotFound):
		return []string{
			"List the available keys with: vaultenv show",
		}
	case errors.Is(err, errDoctorFailed):
		return []string{
			"Fix the first failing check; later checks are skipped until it passes",
		}
	case errors.As(err, &invalid):
		return []string{
			"Check the VAULTENV_* environment variables and command-line flags",
		}
	}
	return nil
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", Red("Error:"), err)

	hints := troubleshootingHints(err)
	if len(hints) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, Bold("Troubleshooting:"))
	for _, h := range hints {
		fmt.Fprintf(w, "  %s %s\n", Yellow("-"), h)
	}
}
