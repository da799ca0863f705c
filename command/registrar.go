package command

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Publisher is the part of the Telegram client that stores the command menu.
type Publisher interface {
	SetMyCommands(ctx context.Context, params *bot.SetMyCommandsParams) (bool, error)
}

// GetCommandDefinitions returns the menu for private chats, or the short
// group menu when group is true.
func GetCommandDefinitions(group bool) []tgmodels.BotCommand {
	defs := make([]tgmodels.BotCommand, 0, len(AllCommands))
	for _, cmd := range AllCommands {
		if group && !cmd.Group {
			continue
		}
		defs = append(defs, tgmodels.BotCommand{Command: cmd.Name, Description: cmd.Description})
	}
	return defs
}

// Register publishes both menus.
func Register(ctx context.Context, p Publisher, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	scopes := []struct {
		name  string
		scope tgmodels.BotCommandScope
		group bool
	}{
		{"private", &tgmodels.BotCommandScopeAllPrivateChats{}, false},
		{"group", &tgmodels.BotCommandScopeAllGroupChats{}, true},
	}

	for _, s := range scopes {
		defs := GetCommandDefinitions(s.group)
		if _, err := p.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: defs, Scope: s.scope}); err != nil {
			return fmt.Errorf("set %s commands: %w", s.name, err)
		}
		logger.Info("registered commands", zap.String("scope", s.name), zap.Int("count", len(defs)))
	}
	return nil
}
