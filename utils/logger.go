package utils

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	ColorInfo  = 0x00ff00 // Green
	ColorWarn  = 0xffff00 // Yellow
	ColorError = 0xff0000 // Red
)

// EmbedSender is the part of a discordgo session the mirror needs.
type EmbedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var (
	mu        sync.RWMutex
	base      *zap.Logger
	mirror    EmbedSender
	channelID string
)

// NewZapLogger builds the process logger.
func NewZapLogger(level string, development bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}

// InitLogger sets the logger behind Info/Warn/Error. When sender is set and
// adminChannelID is not empty, WARN and ERROR entries are also posted to
// that Discord channel.
func InitLogger(logger *zap.Logger, sender EmbedSender, adminChannelID string) {
	mu.Lock()
	defer mu.Unlock()
	base = logger.Named("ops")
	mirror = sender
	channelID = adminChannelID
	if sender != nil && adminChannelID == "" {
		base.Warn("discord.admin_channel_id is not set, logging to channel will be disabled")
	}
}

func current() (*zap.Logger, EmbedSender, string) {
	mu.RLock()
	defer mu.RUnlock()
	if base == nil {
		return zap.L(), nil, ""
	}
	return base, mirror, channelID
}

// Log records an operator-facing message.
func Log(level, module, operation, details string) {
	logger, sender, channel := current()
	fields := []zap.Field{
		zap.String("module", module),
		zap.String("operation", operation),
		zap.String("details", details),
	}

	var color int
	switch level {
	case "WARN":
		color = ColorWarn
		logger.Warn("operator log", fields...)
	case "ERROR":
		color = ColorError
		logger.Error("operator log", fields...)
	default:
		logger.Info("operator log", fields...)
		return
	}

	if sender == nil || channel == "" {
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("Log Level: %s", level),
		Color:     color,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Module",
				Value:  module,
				Inline: true,
			},
			{
				Name:   "Operation",
				Value:  operation,
				Inline: true,
			},
			{
				Name:  "Details",
				Value: truncate(details, 1024),
			},
		},
	}

	if _, err := sender.ChannelMessageSendEmbed(channel, embed); err != nil {
		logger.Warn("error sending log message to Discord", zap.Error(err))
	}
}

// Info logs an informational message.
func Info(module, operation, details string) {
	Log("INFO", module, operation, details)
}

// Warn logs a warning message.
func Warn(module, operation, details string) {
	Log("WARN", module, operation, details)
}

// Error logs an error message.
func Error(module, operation, details string) {
	Log("ERROR", module, operation, details)
}

// embed field values are capped by Discord
func truncate(s string, n int) string {
	if s == "" {
		return "-"
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
