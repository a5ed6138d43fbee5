package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
bot:
  owner_id: "1001"
telegram:
  bot_token: "token"
  channel_id: -1001234
`))
	require.NoError(t, err)

	assert.Equal(t, "1001", cfg.Bot.OwnerID)
	assert.Equal(t, PlatformTelegram, cfg.Bot.Platform)
	assert.True(t, cfg.Bot.SummaryEnabled)
	assert.Equal(t, int64(-1001234), cfg.Telegram.ChannelID)
	assert.Equal(t, StorageFile, cfg.Storage.Driver)
	assert.Equal(t, "data/signals.json", cfg.Storage.FilePath)
	assert.Equal(t, "@every 30m", cfg.Reconcile.Cron)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Bot:     Bot{OwnerID: "1", Platform: PlatformDiscord},
			Discord: Discord{BotToken: "t", AppID: "a", ChannelID: "c"},
			Storage: Storage{Driver: StorageBolt, BoltPath: "x.db"},
		}
	}
	require.NoError(t, base().Validate())

	cfg := base()
	cfg.Bot.OwnerID = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Bot.Platform = "slack"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Discord.AppID = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Storage.Driver = "mongo"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Storage.BoltPath = ""
	assert.Error(t, cfg.ValidateStorage())
}
