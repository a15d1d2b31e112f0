package main

import (
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	jsonOutput bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "gatewayctl",
		Short:         "Operator CLI for the Alchemorsel chat gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Print machine-readable JSON")

	rootCmd.AddCommand(newTokenCommand(opts))
	rootCmd.AddCommand(newUsageCommand(opts))
	rootCmd.AddCommand(newChatCommand(opts))

	return rootCmd
}

// envDefault returns the environment value for key, or fallback
func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
