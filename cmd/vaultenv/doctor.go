package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elysia/vaultenv/pkg/health"
)

var doctorOutput string

var errDoctorFailed = errors.New("one or more checks failed")

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the vault setup",
	Long: `Check that the secrets file and password file exist, that the password
file is private, that the decryption command is installed and that the
document decrypts.

Examples:
  vaultenv doctor
  vaultenv doctor -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mat := rt.materializer
		report := health.Run(cmd.Context(),
			health.NewFileCheck("secrets file", mat.SecretsPath()),
			health.NewFileCheck("password file", mat.PasswordPath(), health.WithPrivateMode()),
			health.NewCommandCheck(mat.Command()[0]),
			health.NewDecryptCheck(func(ctx context.Context) (int, error) {
				mapping, err := mat.Load(ctx)
				return len(mapping), err
			}),
		)

		out := cmd.OutOrStdout()
		if doctorOutput == formatJSON {
			if err := printJSON(out, report); err != nil {
				return err
			}
		} else {
			for _, r := range report.Results {
				fmt.Fprintf(out, "%s %-15s %s\n", statusMark(r.Status), r.Name, r.Message)
			}
		}

		if !report.Healthy() {
			return errDoctorFailed
		}
		return nil
	},
}

func statusMark(s health.Status) string {
	switch s {
	case health.StatusHealthy:
		return "ok  "
	case health.StatusDegraded:
		return Yellow("warn")
	case health.StatusUnhealthy:
		return Red("fail")
	default:
		return "skip"
	}
}

func init() {
	doctorCmd.Flags().StringVarP(&doctorOutput, "output", "o", "text", "Output format: text, json")
	rootCmd.AddCommand(doctorCmd)
}
