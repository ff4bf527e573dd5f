package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL       = "https://portal.dhivehinet.net.mv"
	DefaultTelegramURL   = "https://api.telegram.org"
	DefaultUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/87.0.4280.88 Safari/537.36"
	DefaultTopicPrefix   = "isp_usage"
	DefaultTimeout       = 30 * time.Second
	DefaultUploadTimeout = 60 * time.Second

	envPrefix = "BANDWIDTHSCRAPER"
)

// Config holds the application configuration
type Config struct {
	Portal      PortalConfig   `mapstructure:"portal" yaml:"portal"`
	Telegram    TelegramConfig `mapstructure:"telegram" yaml:"telegram"`
	Slack       SlackConfig    `mapstructure:"slack" yaml:"slack,omitempty"`
	MQTT        MQTTConfig     `mapstructure:"mqtt" yaml:"mqtt,omitempty"`
	StrictLogin bool           `mapstructure:"strict_login" yaml:"strict_login,omitempty"` // Abort the run when login fails
}

// PortalConfig holds the ISP portal account
type PortalConfig struct {
	BaseURL   string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Username  string        `mapstructure:"username" yaml:"username"`
	Password  string        `mapstructure:"password" yaml:"password"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent,omitempty"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
}

// TelegramConfig holds the bot used to deliver charts
type TelegramConfig struct {
	BotToken string        `mapstructure:"bot_token" yaml:"bot_token"`
	ChatID   string        `mapstructure:"chat_id" yaml:"chat_id"`
	APIURL   string        `mapstructure:"api_url" yaml:"api_url,omitempty"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"` // Upload timeout; 0 disables
}

// SlackConfig holds an optional Slack upload target
type SlackConfig struct {
	Token   string `mapstructure:"token" yaml:"token,omitempty"`
	Channel string `mapstructure:"channel" yaml:"channel,omitempty"`
	APIURL  string `mapstructure:"api_url" yaml:"api_url,omitempty"` // Override for testing
}

// MQTTConfig holds the optional daily summary publisher
type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	Broker      string `mapstructure:"broker" yaml:"broker,omitempty"` // e.g., "homeassistant.local:1883"
	Username    string `mapstructure:"username" yaml:"username,omitempty"`
	Password    string `mapstructure:"password" yaml:"password,omitempty"`
	TopicPrefix string `mapstructure:"topic_prefix" yaml:"topic_prefix,omitempty"`
}

// Enabled reports whether Telegram delivery is configured
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// Enabled reports whether Slack delivery is configured
func (s SlackConfig) Enabled() bool {
	return s.Token != "" && s.Channel != ""
}

// Load reads the config file. Files ending in .ini use the legacy section layout.
func Load(configPath string) (*Config, error) {
	if strings.EqualFold(filepath.Ext(configPath), ".ini") {
		return loadINI(configPath)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Missing file: defaults and environment only
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("portal.base_url", DefaultBaseURL)
	v.SetDefault("portal.username", "")
	v.SetDefault("portal.password", "")
	v.SetDefault("portal.user_agent", DefaultUserAgent)
	v.SetDefault("portal.timeout", DefaultTimeout)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.api_url", DefaultTelegramURL)
	v.SetDefault("telegram.timeout", DefaultUploadTimeout)
	v.SetDefault("slack.token", "")
	v.SetDefault("slack.channel", "")
	v.SetDefault("slack.api_url", "")
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic_prefix", DefaultTopicPrefix)
	v.SetDefault("strict_login", false)
}

// loadINI reads the [dhiraagu] / [telegram] layout
func loadINI(configPath string) (*Config, error) {
	f, err := ini.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	account := f.Section("dhiraagu")
	telegram := f.Section("telegram")

	cfg := &Config{
		Portal: PortalConfig{
			BaseURL:   account.Key("base_url").MustString(DefaultBaseURL),
			Username:  account.Key("username").String(),
			Password:  account.Key("password").String(),
			UserAgent: DefaultUserAgent,
			Timeout:   DefaultTimeout,
		},
		Telegram: TelegramConfig{
			BotToken: telegram.Key("bot_token").String(),
			ChatID:   telegram.Key("chat_id").String(),
			APIURL:   telegram.Key("api_url").MustString(DefaultTelegramURL),
			Timeout:  telegram.Key("timeout").MustDuration(DefaultUploadTimeout),
		},
		MQTT: MQTTConfig{TopicPrefix: DefaultTopicPrefix},
	}
	return cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// Validate checks that a run has an account and somewhere to deliver charts
func (c *Config) Validate() error {
	if c.Portal.Username == "" || c.Portal.Password == "" {
		return errors.New("portal username and password are required")
	}
	if !c.Telegram.Enabled() && !c.Slack.Enabled() {
		return errors.New("no delivery target configured (set telegram.bot_token/chat_id or slack.token/channel)")
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return errors.New("MQTT broker address is required when enabled")
	}
	return nil
}

// Sample returns a starter configuration for the init command
func Sample() *Config {
	return &Config{
		Portal: PortalConfig{
			BaseURL:  DefaultBaseURL,
			Username: "your-username",
			Password: "your-password",
		},
		Telegram: TelegramConfig{
			BotToken: "123456:bot-token",
			ChatID:   "-1000000000",
		},
		MQTT: MQTTConfig{
			Enabled:     false,
			TopicPrefix: DefaultTopicPrefix,
		},
	}
}
