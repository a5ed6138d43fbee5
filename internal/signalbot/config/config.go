package config

import (
	"fmt"
	"time"

	"trade-signal-bot/pkg/config"
)

const (
	PlatformTelegram = "telegram"
	PlatformDiscord  = "discord"

	StorageFile     = "file"
	StorageBolt     = "bolt"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Bot holds the operator-facing settings of the signal bot.
type Bot struct {
	OwnerID        string `mapstructure:"owner_id"`
	Platform       string `mapstructure:"platform"`
	MentionRoleID  string `mapstructure:"mention_role_id"`
	SummaryEnabled bool   `mapstructure:"summary_enabled"`
}

// Telegram holds configuration for the Telegram channel publisher.
type Telegram struct {
	BotToken        string `mapstructure:"bot_token"`
	ChannelID       int64  `mapstructure:"channel_id"`
	ChannelUsername string `mapstructure:"channel_username"`
}

// Discord holds configuration for the Discord webhook publisher.
type Discord struct {
	BotToken    string `mapstructure:"bot_token"`
	AppID       string `mapstructure:"app_id"`
	GuildID     string `mapstructure:"guild_id"`
	ChannelID   string `mapstructure:"channel_id"`
	WebhookName string `mapstructure:"webhook_name"`
}

// Storage selects and configures the signal repository backend.
type Storage struct {
	Driver      string `mapstructure:"driver"`
	FilePath    string `mapstructure:"file_path"`
	BoltPath    string `mapstructure:"bolt_path"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

// Reconcile configures the periodic re-render of posted messages.
type Reconcile struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"`
}

// RateLimit caps outgoing chat messages.
type RateLimit struct {
	MessagesPerMinute int `mapstructure:"messages_per_minute"`
}

// Cache configures the read cache in front of the repository.
type Cache struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// Config holds the full configuration of the signal bot. It is built once at
// start-up and passed by pointer; nothing mutates it afterwards.
type Config struct {
	App       config.App      `mapstructure:"app"`
	Logger    config.Logger   `mapstructure:"logger"`
	Bot       Bot             `mapstructure:"bot"`
	Telegram  Telegram        `mapstructure:"telegram"`
	Discord   Discord         `mapstructure:"discord"`
	Storage   Storage         `mapstructure:"storage"`
	Database  config.Database `mapstructure:"database"`
	Redis     config.Redis    `mapstructure:"redis"`
	API       config.API      `mapstructure:"api"`
	Reconcile Reconcile       `mapstructure:"reconcile"`
	RateLimit RateLimit       `mapstructure:"rate_limit"`
	Cache     Cache           `mapstructure:"cache"`
}

// Defaults are applied before the config file and environment are read.
var Defaults = map[string]interface{}{
	"app.name":                       "trade-signal-bot",
	"logger.level":                   "info",
	"logger.encoding":                "json",
	"logger.file.max_size_mb":        50,
	"logger.file.max_backups":        5,
	"logger.file.max_age_days":       28,
	"bot.platform":                   PlatformTelegram,
	"bot.summary_enabled":            true,
	"bot.owner_id":                   "",
	"bot.mention_role_id":            "",
	"telegram.bot_token":             "",
	"telegram.channel_id":            0,
	"telegram.channel_username":      "",
	"discord.bot_token":              "",
	"discord.app_id":                 "",
	"discord.guild_id":               "",
	"discord.channel_id":             "",
	"discord.webhook_name":           "Signals",
	"storage.driver":                 StorageFile,
	"storage.file_path":              "data/signals.json",
	"storage.bolt_path":              "data/signals.db",
	"storage.redis_prefix":           "signals",
	"api.enabled":                    false,
	"api.host":                       "",
	"api.port":                       8080,
	"reconcile.enabled":              true,
	"reconcile.cron":                 "@every 30m",
	"rate_limit.messages_per_minute": 20,
	"cache.ttl":                      "30s",
}

// Load loads the signal bot configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, Defaults); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings needed to run the bot.
func (c *Config) Validate() error {
	if c.Bot.OwnerID == "" {
		return fmt.Errorf("bot.owner_id is required")
	}
	switch c.Bot.Platform {
	case PlatformTelegram:
		if c.Telegram.BotToken == "" || c.Telegram.ChannelID == 0 {
			return fmt.Errorf("telegram.bot_token and telegram.channel_id are required")
		}
	case PlatformDiscord:
		if c.Discord.BotToken == "" || c.Discord.AppID == "" || c.Discord.ChannelID == "" {
			return fmt.Errorf("discord.bot_token, discord.app_id and discord.channel_id are required")
		}
	default:
		return fmt.Errorf("unknown bot.platform %q", c.Bot.Platform)
	}
	return c.ValidateStorage()
}

// ValidateStorage checks only the storage settings, for commands that never
// connect to a chat platform.
func (c *Config) ValidateStorage() error {
	switch c.Storage.Driver {
	case StorageFile:
		if c.Storage.FilePath == "" {
			return fmt.Errorf("storage.file_path is required")
		}
	case StorageBolt:
		if c.Storage.BoltPath == "" {
			return fmt.Errorf("storage.bolt_path is required")
		}
	case StorageRedis, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	return nil
}
