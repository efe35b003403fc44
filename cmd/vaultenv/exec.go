package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/elysia/vaultenv/internal/secrets"
	"github.com/elysia/vaultenv/pkg/log"
	"github.com/elysia/vaultenv/pkg/tracing"
)

// childExitError carries a child's non-zero exit status back to run.
type childExitError struct {
	code int
}

func (e *childExitError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.code)
}

var execCmd = &cobra.Command{
	Use:   "exec -- <command> [args...]",
	Short: "Run a command with the secrets in its environment",
	Long: `Export the secrets into the environment and run command. The command
inherits the current environment plus one upper-cased variable per secret.
vaultenv exits with the command's exit status.

Example:
  vaultenv exec -- ./manage.py runserver`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := secrets.SetupEnv(ctx); err != nil {
			return err
		}

		env := append(os.Environ(), tracing.InjectEnv(ctx)...)
		env = append(env, log.CorrelationIDEnv+"="+log.CorrelationIDFromContext(ctx))

		child := exec.CommandContext(ctx, args[0], args[1:]...)
		child.Env = env
		child.Stdin = cmd.InOrStdin()
		child.Stdout = cmd.OutOrStdout()
		child.Stderr = cmd.ErrOrStderr()

		logger := log.FromContext(ctx).With("child", args[0])
		logger.Debug().
			Strs("args", args[1:]).
			Str("trace_id", tracing.TraceID(ctx)).
			Msg("starting command")

		if err := child.Run(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
				logger.Debug().Int("exit_code", exitErr.ExitCode()).Msg("command exited")
				return &childExitError{code: exitErr.ExitCode()}
			}
			return fmt.Errorf("run %s: %w", args[0], err)
		}
		return nil
	},
}

func init() {
	execCmd.Flags().SetInterspersed(false)
}
