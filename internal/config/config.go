package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env string `yaml:"env" env:"ENV" env-default:"local"`

	// Telegram
	BotToken string  `yaml:"bot_token" env:"BOT_TOKEN" env-required:"true"`
	AdminIDs []int64 `yaml:"admin_ids" env:"ADMIN_IDS" env-separator:","`

	// Storage
	DataDir       string `yaml:"data_dir" env:"DATA_DIR" env-default:"storage/cache"`
	HistoryDBPath string `yaml:"history_db_path" env:"HISTORY_DB_PATH" env-default:"storage/history.db"`

	Marketplace MarketplaceConfig `yaml:"marketplace"`
	Webhook     WebhookConfig     `yaml:"webhook"`
	Delivery    DeliveryConfig    `yaml:"delivery"`
}

// MarketplaceConfig describes the marketplace API
type MarketplaceConfig struct {
	BaseURL      string        `yaml:"base_url" env:"MARKETPLACE_URL" env-required:"true"`
	Token        string        `yaml:"-" env:"MARKETPLACE_TOKEN"`
	SelfID       int64         `yaml:"self_id" env:"MARKETPLACE_SELF_ID"`
	MinDelay     time.Duration `yaml:"min_delay" env:"MARKETPLACE_MIN_DELAY" env-default:"250ms"`
	PollInterval time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL" env-default:"0s"`
}

// WebhookConfig describes the inbound event server
type WebhookConfig struct {
	Port         int           `yaml:"port" env:"WEBHOOK_PORT" env-default:"8080"`
	Endpoint     string        `yaml:"endpoint" env:"WEBHOOK_ENDPOINT"`
	Secret       string        `yaml:"-" env:"WEBHOOK_SECRET"`
	SyncInterval time.Duration `yaml:"sync_interval" env:"WEBHOOK_SYNC_INTERVAL" env-default:"10m"`
	QueueSize    int           `yaml:"queue_size" env:"QUEUE_SIZE" env-default:"256"`
}

// DeliveryConfig describes the delivery script
type DeliveryConfig struct {
	NodeBinary   string        `yaml:"node_binary" env:"NODE_BINARY" env-default:"node"`
	ScriptPath   string        `yaml:"script_path" env:"DELIVERY_SCRIPT" env-default:"minecraft_bot.js"`
	Timeout      time.Duration `yaml:"timeout" env:"DELIVERY_TIMEOUT" env-default:"90s"`
	ProbeTimeout time.Duration `yaml:"probe_timeout" env:"PROBE_TIMEOUT" env-default:"30s"`
	BatchDelay   time.Duration `yaml:"batch_delay" env:"BATCH_DELAY" env-default:"3s"`
	TestAmount   int64         `yaml:"test_amount" env:"TEST_AMOUNT" env-default:"1000"`
}

// Load reads the configuration from CONFIG_PATH when set, environment variables otherwise.
// Environment variables override values from the file.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	return &cfg, nil
}

// MustLoad - если не загружаем - паникуем
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// IsAdmin reports whether the Telegram user may run admin commands
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
