package main

import (
	"github.com/spf13/cobra"
)

func newDecodeCommand(state *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [token|-]",
		Short: "Print the claims of a token WITHOUT verifying it",
		Long: "Decode splits the token and prints its claims. The signature is not checked,\n" +
			"so the output must never be trusted for authorization decisions.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) == 1 {
				arg = args[0]
			}
			token, err := readInput(arg, cmd.InOrStdin())
			if err != nil {
				return err
			}

			settings := state.settings()
			if complete, _ := cmd.Flags().GetBool(flagComplete); complete {
				result, err := settings.DecodeUnverifiedComplete(token)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result.ToMap())
			}

			claims, err := settings.DecodeUnverified(token)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), claims)
		},
	}

	cmd.Flags().Bool(flagComplete, false, "Print header and signature alongside the claims")
	return cmd
}
