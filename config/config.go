package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfig 从多个源加载配置：.env 文件、config.yaml、以及 ./config/ 目录下的 JSON 文件。
// 配置加载顺序:
// 1. .env 文件 (用于环境变量)
// 2. config.yaml (基础配置)
// 3. config/knowledge_base.json (合并到主配置)
// 环境变量会覆盖配置文件中的同名设置。
func LoadConfig() error {
	// 1. 从 .env 文件加载环境变量，如果文件不存在则忽略。
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found, skipping")
	}

	// 2. 设置并读取基础配置文件 (config.yaml)。
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("parse config.yaml: %w", err)
		}
		log.Printf("config.yaml not found, using environment and defaults only")
	}

	// 3. 合并知识库文件 (config/knowledge_base.json)。
	viper.SetConfigName("knowledge_base")
	viper.SetConfigType("json")
	viper.AddConfigPath("./config")

	if err := viper.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("merge config/knowledge_base.json: %w", err)
		}
	}
	return nil
}

// Load decodes the global viper configuration.
func Load() (Settings, error) {
	return Decode(viper.GetViper())
}

// Decode applies defaults to v and unmarshals it into Settings.
func Decode(v *viper.Viper) (Settings, error) {
	setDefaults(v)
	bindEnv(v)

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

// bindEnv maps the historical environment variable names onto config keys.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("telegram.token", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("api.base_url", "API_BASE_URL")
	_ = v.BindEnv("api.bot_key", "BOT_API_KEY")
	_ = v.BindEnv("startup_delay_seconds", "BOT_STARTUP_DELAY")
	_ = v.BindEnv("redis.url", "REDIS_URL")
	_ = v.BindEnv("discord.token", "DISCORD_TOKEN")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("startup_delay_seconds", 5)

	v.SetDefault("site.website_url", "https://earnquestapp.com")
	v.SetDefault("site.support_email", "support@earnquestapp.com")

	v.SetDefault("api.base_url", "https://rebackend-ij74.onrender.com/api")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("api.event_timeout", 10*time.Second)
	v.SetDefault("api.retry_max", 2)

	v.SetDefault("telegram.call_timeout", 15*time.Second)
	v.SetDefault("telegram.poll_timeout", 30*time.Second)

	v.SetDefault("moderation.warning_ttl", 10*time.Second)
	v.SetDefault("moderation.welcome_ttl", 60*time.Second)
	v.SetDefault("moderation.ban_after_warnings", 3)
	v.SetDefault("moderation.spam_mute", 5*time.Minute)
	v.SetDefault("moderation.role_cache_ttl", 30*time.Second)
	v.SetDefault("moderation.role_cache_size", 4096)
	v.SetDefault("moderation.sweep_interval", 10*time.Minute)

	v.SetDefault("schedule.policy_refresh", 5*time.Minute)
	v.SetDefault("schedule.policy_first_run", 5*time.Second)
	v.SetDefault("schedule.broadcast_poll", 60*time.Second)
	v.SetDefault("schedule.broadcast_first_run", 10*time.Second)
	v.SetDefault("schedule.journal_retention_days", 31)

	v.SetDefault("broadcast.concurrency", 4)
	v.SetDefault("broadcast.sends_per_second", 20.0)
	v.SetDefault("broadcast.burst", 5)

	v.SetDefault("startup.conflict_retries", 3)
	v.SetDefault("startup.conflict_step", 10*time.Second)

	v.SetDefault("database.path", "data/earnquest.db")
	v.SetDefault("metrics.addr", ":2112")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}
