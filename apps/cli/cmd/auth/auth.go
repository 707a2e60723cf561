package auth

import "github.com/spf13/cobra"

// Command groups token helpers for calling the API from scripts and local tooling.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Mint API tokens",
	}

	cmd.AddCommand(tokenCommand(), devTokenCommand())
	return cmd
}
