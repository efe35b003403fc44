package main

import (
	"github.com/spf13/cobra"
)

var (
	showOutput string
	showReveal bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the decrypted secrets",
	Long: `Decrypt the secrets document and print its top-level entries.

Values are masked unless --reveal is given.

Examples:
  vaultenv show
  vaultenv show --reveal -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mapping, err := rt.materializer.Load(cmd.Context())
		if err != nil {
			return err
		}
		return renderMapping(cmd.OutOrStdout(), mapping, showOutput, showReveal)
	},
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", formatEnv, "Output format: env, yaml, json")
	showCmd.Flags().BoolVar(&showReveal, "reveal", false, "Print secret values instead of masking them")
}
