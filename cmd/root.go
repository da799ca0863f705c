// Package cmd holds the earnquest-bot command line.
package cmd

import (
	"os"

	"earnquest-bot/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "earnquest-bot",
		Short:         "EarnQuest Telegram community bot",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadConfig()
		},
		RunE: runBot,
	}

	cmd.PersistentFlags().String("log-level", "", "Log level override (debug, info, warn, error).")
	_ = viper.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newAuditCmd())
	cmd.AddCommand(newHealthcheckCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}
