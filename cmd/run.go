package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"earnquest-bot/bot"
	"earnquest-bot/config"
	"earnquest-bot/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start polling Telegram and the scheduled jobs",
		RunE:  runBot,
	}
}

func runBot(cmd *cobra.Command, args []string) error {
	settings, err := config.Load()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	logger, err := utils.NewZapLogger(settings.Log.Level, settings.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := bot.New(settings, logger)
	if err != nil {
		return fmt.Errorf("error initializing bot: %w", err)
	}
	logger.Info("starting earnquest-bot", zap.String("version", Version))
	return b.Run(ctx)
}
