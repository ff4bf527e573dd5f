package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_YAMLAppliesDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `portal:
  username: "alice"
  password: "secret"
telegram:
  bot_token: "123:abc"
  chat_id: "42"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.Portal.Username)
	assert.Equal(t, "secret", cfg.Portal.Password)
	assert.Equal(t, DefaultBaseURL, cfg.Portal.BaseURL)
	assert.Equal(t, DefaultUserAgent, cfg.Portal.UserAgent)
	assert.Equal(t, DefaultTimeout, cfg.Portal.Timeout)
	assert.Equal(t, DefaultTelegramURL, cfg.Telegram.APIURL)
	assert.Equal(t, DefaultUploadTimeout, cfg.Telegram.Timeout)
	assert.Equal(t, DefaultTopicPrefix, cfg.MQTT.TopicPrefix)
	assert.False(t, cfg.StrictLogin)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", `portal:
  base_url: "http://localhost:9000"
  username: "alice"
  password: "secret"
  timeout: 5s
telegram:
  timeout: 0s
slack:
  token: "xoxb-1"
  channel: "C123"
strict_login: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.Portal.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Portal.Timeout)
	assert.Zero(t, cfg.Telegram.Timeout)
	assert.True(t, cfg.Slack.Enabled())
	assert.False(t, cfg.Telegram.Enabled())
	assert.True(t, cfg.StrictLogin)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `portal:
  username: "alice"
  password: "secret"
`)
	t.Setenv("BANDWIDTHSCRAPER_PORTAL_PASSWORD", "from-env")
	t.Setenv("BANDWIDTHSCRAPER_TELEGRAM_CHAT_ID", "99")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Portal.Password)
	assert.Equal(t, "99", cfg.Telegram.ChatID)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.Portal.BaseURL)
	assert.Error(t, cfg.Validate())
}

func TestLoad_InvalidYAMLReturnsError(t *testing.T) {
	path := writeFile(t, "bad.yaml", "portal: [unclosed")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_LegacyINI(t *testing.T) {
	path := writeFile(t, "config.ini", `[dhiraagu]
username = bob
password = hunter2

[telegram]
bot_token = 555:xyz
chat_id = 1234
timeout = 2m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "bob", cfg.Portal.Username)
	assert.Equal(t, "hunter2", cfg.Portal.Password)
	assert.Equal(t, DefaultBaseURL, cfg.Portal.BaseURL)
	assert.Equal(t, "555:xyz", cfg.Telegram.BotToken)
	assert.Equal(t, "1234", cfg.Telegram.ChatID)
	assert.Equal(t, DefaultTelegramURL, cfg.Telegram.APIURL)
	assert.Equal(t, 2*time.Minute, cfg.Telegram.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, Save(path, Sample()))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "your-username", cfg.Portal.Username)
	assert.Equal(t, "-1000000000", cfg.Telegram.ChatID)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestValidate(t *testing.T) {
	for _, tt := range []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "no credentials",
			cfg:     Config{Telegram: TelegramConfig{BotToken: "t", ChatID: "c"}},
			wantErr: "username and password",
		},
		{
			name:    "no target",
			cfg:     Config{Portal: PortalConfig{Username: "u", Password: "p"}},
			wantErr: "no delivery target",
		},
		{
			name: "mqtt without broker",
			cfg: Config{
				Portal:   PortalConfig{Username: "u", Password: "p"},
				Telegram: TelegramConfig{BotToken: "t", ChatID: "c"},
				MQTT:     MQTTConfig{Enabled: true},
			},
			wantErr: "broker",
		},
		{
			name: "ok",
			cfg: Config{
				Portal:   PortalConfig{Username: "u", Password: "p"},
				Telegram: TelegramConfig{BotToken: "t", ChatID: "c"},
			},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
