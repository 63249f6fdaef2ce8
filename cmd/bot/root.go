package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "season-bot",
		Short:         "Telegram bot that publishes anime seasons in order",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context())
		},
	}

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newHashCommand())
	rootCmd.AddCommand(newClassifyCommand())

	return rootCmd
}
