package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/elysia/vaultenv/internal/config"
)

// Build information (set from main.go)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Global flags
var (
	projectRoot    string
	secretsFile    string
	passwordFile   string
	decryptCommand string
	logLevel       string
	logFormat      string
	metricsFile    string
	noColor        bool
)

// rt is the per-invocation runtime built in PersistentPreRunE.
var rt *runtimeState

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vaultenv",
	Short: "Materialize ansible-vault secrets as environment variables",
	Long: `vaultenv decrypts an ansible-vault encrypted YAML document and exposes its
top-level keys as environment variables (upper-cased).

It provides commands for:
  - show:    print the decrypted secrets (masked unless --reveal)
  - get:     print a single secret value
  - export:  print shell export statements for eval
  - exec:    run a command with the secrets in its environment
  - doctor:  check the vault setup

Environment variables:
  VAULTENV_PROJECT_ROOT      Directory relative paths are resolved against (default: cwd)
  VAULTENV_SECRETS_FILE      Encrypted secrets document (default: secrets.yml)
  VAULTENV_PASSWORD_FILE     Vault password file (default: .vault_password)
  VAULTENV_DECRYPT_COMMAND   Decryption command (default: ansible-vault)
  VAULTENV_LOG_LEVEL         debug, info, warn, error (default: info)
  VAULTENV_LOG_FORMAT        json, console (default: console)
  VAULTENV_METRICS_FILE      Write Prometheus metrics to this textfile on exit
  VAULTENV_TRACING_ENABLED   Export OpenTelemetry traces (default: false)
  VAULTENV_TRACING_ENDPOINT  OTLP/HTTP collector endpoint`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if skipsRuntime(cmd) {
			return nil
		}

		InitColor(!noColor)

		cfg, err := resolveConfig()
		if err != nil {
			return err
		}

		state, err := newRuntime(cmd.Context(), cfg, cmd.Name(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		rt = state
		cmd.SetContext(state.ctx)

		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// skipsRuntime reports whether cmd runs without loading configuration.
func skipsRuntime(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "version", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return true
		}
	}
	return false
}

// resolveConfig layers flags over VAULTENV_* environment variables.
func resolveConfig() (*config.Config, error) {
	cfg := config.FromEnv()

	overrides := []struct {
		flag   string
		target *string
	}{
		{projectRoot, &cfg.Vault.ProjectRoot},
		{secretsFile, &cfg.Vault.SecretsFile},
		{passwordFile, &cfg.Vault.PasswordFile},
		{decryptCommand, &cfg.Vault.DecryptCommand},
		{logLevel, &cfg.Log.Level},
		{logFormat, &cfg.Log.Format},
		{metricsFile, &cfg.Metrics.TextfilePath},
	}
	for _, o := range overrides {
		if o.flag != "" {
			*o.target = o.flag
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "vaultenv %s\n", Version)
		fmt.Fprintf(out, "  Commit:     %s\n", Commit)
		fmt.Fprintf(out, "  Built:      %s\n", BuildTime)
		fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
		fmt.Fprintf(out, "  Platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

// run executes the CLI with args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(context.Background())
	if rt != nil {
		rt.close(err)
		rt = nil
	}
	if err == nil {
		return 0
	}

	var exitErr *childExitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	printError(stderr, err)
	return 1
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&projectRoot, "project-root", "", "Directory relative paths are resolved against (default: cwd)")
	flags.StringVarP(&secretsFile, "secrets-file", "f", "", "Encrypted secrets document (default: secrets.yml)")
	flags.StringVarP(&passwordFile, "password-file", "p", "", "Vault password file (default: .vault_password)")
	flags.StringVar(&decryptCommand, "decrypt-command", "", "Decryption command (default: ansible-vault)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: info)")
	flags.StringVar(&logFormat, "log-format", "", "Log format: json, console (default: console)")
	flags.StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile on exit")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(execCmd)
}
