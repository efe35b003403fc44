package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elysia/vaultenv/internal/secrets"
	"github.com/elysia/vaultenv/pkg/log"
)

const (
	exportFormatShell  = "sh"
	exportFormatDotenv = "dotenv"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print shell export statements for the secrets",
	Long: `Print one "export NAME=value" line per secret, quoted for a POSIX shell,
or a .env file with --format dotenv.

Examples:
  eval "$(vaultenv export)"
  vaultenv export --format dotenv > .env`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := log.FromContext(ctx)

		vars, err := rt.materializer.Environ(ctx)
		if err != nil {
			return err
		}

		valid := make([]secrets.EnvVar, 0, len(vars))
		for _, v := range vars {
			if !validShellName(v.Name) {
				logger.Warn().Str("name", v.Name).Msg("skipping secret: not a valid shell variable name")
				continue
			}
			valid = append(valid, v)
		}

		out := cmd.OutOrStdout()
		switch exportFormat {
		case exportFormatShell:
			for _, v := range valid {
				if _, err := fmt.Fprintf(out, "export %s=%s\n", v.Name, shellQuote(v.Value)); err != nil {
					return err
				}
			}
			return nil
		case exportFormatDotenv:
			env := make(map[string]string, len(valid))
			for _, v := range valid {
				env[v.Name] = v.Value
			}
			content, err := marshalDotenv(env)
			if err != nil {
				return fmt.Errorf("render dotenv: %w", err)
			}
			if content == "" {
				return nil
			}
			_, err = fmt.Fprintln(out, content)
			return err
		default:
			return fmt.Errorf("unknown export format %q (want sh or dotenv)", exportFormat)
		}
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", exportFormatShell, "Output format: sh, dotenv")
}
