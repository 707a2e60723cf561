package root

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the pagebot operator CLI. Subcommands are attached in wire.go.
var rootCmd = &cobra.Command{
	Use:           "pagebot",
	Short:         "pagebot operator CLI",
	Long:          "Operational utilities for pagebot (schema migrations, session tokens, history archives).",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Optional local .env; exported variables take precedence.
		_ = godotenv.Load()
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
