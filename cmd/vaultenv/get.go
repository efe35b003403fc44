package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elysia/vaultenv/internal/secrets"
)

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a single secret value",
	Long: `Print the value stored under key in the secrets document. Keys are
matched exactly as written in the document, before upper-casing.

Example:
  vaultenv get db_password`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := rt.materializer.Resolve(cmd.Context(), secrets.Reference{
			Name:     args[0],
			Provider: secrets.ProviderAnsibleVault,
			Key:      args[0],
		})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
		return err
	},
}
