package config

import (
	"fmt"
	"net/url"
	"time"
)

// Settings is the typed view of the process configuration.
type Settings struct {
	StartupDelaySeconds int `mapstructure:"startup_delay_seconds"`

	Site       SiteSettings       `mapstructure:"site"`
	API        APISettings        `mapstructure:"api"`
	Telegram   TelegramSettings   `mapstructure:"telegram"`
	Moderation ModerationSettings `mapstructure:"moderation"`
	Schedule   ScheduleSettings   `mapstructure:"schedule"`
	Broadcast  BroadcastSettings  `mapstructure:"broadcast"`
	Startup    StartupSettings    `mapstructure:"startup"`
	Database   DatabaseSettings   `mapstructure:"database"`
	Redis      RedisSettings      `mapstructure:"redis"`
	Metrics    MetricsSettings    `mapstructure:"metrics"`
	GRPC       GRPCSettings       `mapstructure:"grpc"`
	Discord    DiscordSettings    `mapstructure:"discord"`
	Log        LogSettings        `mapstructure:"log"`

	// KnowledgeBase overrides or extends the built-in FAQ answers, keyed by topic.
	KnowledgeBase map[string]string `mapstructure:"knowledge_base"`
}

type SiteSettings struct {
	WebsiteURL   string `mapstructure:"website_url"`
	SupportEmail string `mapstructure:"support_email"`
}

type APISettings struct {
	BaseURL      string        `mapstructure:"base_url"`
	BotKey       string        `mapstructure:"bot_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
	EventTimeout time.Duration `mapstructure:"event_timeout"`
	RetryMax     int           `mapstructure:"retry_max"`
}

type TelegramSettings struct {
	Token       string        `mapstructure:"token"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
	ProxyURL    string        `mapstructure:"proxy_url"`
}

type ModerationSettings struct {
	WarningTTL       time.Duration `mapstructure:"warning_ttl"`
	WelcomeTTL       time.Duration `mapstructure:"welcome_ttl"`
	BanAfterWarnings int           `mapstructure:"ban_after_warnings"`
	SpamMute         time.Duration `mapstructure:"spam_mute"`
	RoleCacheTTL     time.Duration `mapstructure:"role_cache_ttl"`
	RoleCacheSize    int           `mapstructure:"role_cache_size"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
}

type ScheduleSettings struct {
	PolicyRefresh        time.Duration `mapstructure:"policy_refresh"`
	PolicyFirstRun       time.Duration `mapstructure:"policy_first_run"`
	BroadcastPoll        time.Duration `mapstructure:"broadcast_poll"`
	BroadcastFirstRun    time.Duration `mapstructure:"broadcast_first_run"`
	JournalRetentionDays int           `mapstructure:"journal_retention_days"`
}

type BroadcastSettings struct {
	Concurrency    int     `mapstructure:"concurrency"`
	SendsPerSecond float64 `mapstructure:"sends_per_second"`
	Burst          int     `mapstructure:"burst"`
}

type StartupSettings struct {
	ConflictRetries int           `mapstructure:"conflict_retries"`
	ConflictStep    time.Duration `mapstructure:"conflict_step"`
}

type DatabaseSettings struct {
	Path string `mapstructure:"path"`
}

type RedisSettings struct {
	URL string `mapstructure:"url"`
}

type MetricsSettings struct {
	Addr string `mapstructure:"addr"`
}

type GRPCSettings struct {
	Addr string `mapstructure:"addr"`
}

type DiscordSettings struct {
	Token          string `mapstructure:"token"`
	AdminChannelID string `mapstructure:"admin_channel_id"`
}

type LogSettings struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// ConfigError names the offending key.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}

// Validate reports the first setting the bot cannot start without.
func (s Settings) Validate() error {
	if s.Telegram.Token == "" {
		return &ConfigError{Field: "telegram.token", Message: "TELEGRAM_BOT_TOKEN is not set"}
	}
	if _, err := url.ParseRequestURI(s.API.BaseURL); err != nil {
		return &ConfigError{Field: "api.base_url", Message: err.Error()}
	}
	if s.Broadcast.Concurrency < 0 || s.Broadcast.SendsPerSecond < 0 {
		return &ConfigError{Field: "broadcast", Message: "values must not be negative"}
	}
	return nil
}

// StartupDelay is the pause before the first Telegram call.
func (s Settings) StartupDelay() time.Duration {
	if s.StartupDelaySeconds <= 0 {
		return 0
	}
	return time.Duration(s.StartupDelaySeconds) * time.Second
}
