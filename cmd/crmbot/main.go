package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/config"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "crmbot",
		Short:         "Chat-driven CRUD over the CRM tables",
		Long:          "crmbot lets users search, create and update CRM records in plain language. Every create or update is shown to the user and runs only after they confirm it.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := config.LoadEnvFile(); err != nil {
				logger.Warn("env file not loaded", "error", err)
			}
			return nil
		},
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newCheckCmd(),
	)

	return rootCmd
}
