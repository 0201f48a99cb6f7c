// Package config loads and validates application configuration
// from a YAML file and environment variables.
package config

import (
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
)

// Config is the root application configuration.
type Config struct {
	// Token is the Telegram bot token. It is the only required field.
	Token string `yaml:"token" env:"ORDO_TOKEN"`

	// Operators are Telegram user IDs that always have operator rights,
	// in addition to admins managed at runtime.
	Operators []int64 `yaml:"operators" env:"ORDO_OPERATORS"`

	// DataDir is the directory for JSON collection files when the
	// database is disabled.
	DataDir string `yaml:"data_dir" env:"ORDO_DATA_DIR"`

	// AllowLinks permits links inside order submissions. They are
	// rejected and re-prompted by default.
	AllowLinks bool `yaml:"allow_links" env:"ORDO_ALLOW_LINKS"`

	// Debug sets the log level to debug and enables verbose telebot output.
	Debug bool `yaml:"debug" env:"ORDO_DEBUG"`

	Bot       BotConfig      `yaml:"bot"`
	Database  DatabaseConfig `yaml:"database"`
	Webhook   WebhookConfig  `yaml:"webhook"`
	Scheduler SchedConfig    `yaml:"scheduler"`
}

// BotConfig contains Telegram transport settings.
type BotConfig struct {
	// LPTimeout is the long polling timeout. Ignored when a webhook URL is set.
	LPTimeout time.Duration `yaml:"lp_timeout" env:"ORDO_LP_TIMEOUT"`

	// NoPreview disables link previews in outgoing messages.
	NoPreview bool `yaml:"no_preview" env:"ORDO_NO_PREVIEW"`

	// NotifyWorkers is the size of the goroutine pool for operator
	// and broadcast fan-out.
	NotifyWorkers int `yaml:"notify_workers" env:"ORDO_NOTIFY_WORKERS"`
}

// DatabaseConfig contains MongoDB settings. When Disabled is true (or the
// address is empty) collections are stored as JSON files under DataDir.
type DatabaseConfig struct {
	Address  string `yaml:"address" env:"ORDO_DB_ADDRESS"`
	DBName   string `yaml:"db_name" env:"ORDO_DB_NAME"`
	Username string `yaml:"username" env:"ORDO_DB_USERNAME"`
	Password string `yaml:"password" env:"ORDO_DB_PASSWORD"`
	Disabled bool   `yaml:"disabled" env:"ORDO_DB_DISABLED"`
}

// WebhookConfig contains settings for webhook-based updates.
// The bot uses long polling when URL is empty.
type WebhookConfig struct {
	// URL is the public webhook URL, e.g. https://bot.example.com.
	// The token-derived path is appended automatically.
	URL string `yaml:"url" env:"ORDO_WEBHOOK_URL"`

	// Listen is the local listen address.
	Listen string `yaml:"listen" env:"ORDO_WEBHOOK_LISTEN"`

	// SecretToken is passed to Telegram and verified on every request.
	SecretToken string `yaml:"secret_token" env:"ORDO_WEBHOOK_SECRET"`

	// MaxConnections is the maximum number of simultaneous webhook
	// connections Telegram is allowed to open.
	MaxConnections int `yaml:"max_connections" env:"ORDO_WEBHOOK_MAX_CONNECTIONS"`

	// DropPendingUpdates discards updates accumulated while offline.
	DropPendingUpdates bool `yaml:"drop_pending_updates" env:"ORDO_WEBHOOK_DROP_PENDING"`

	ReadTimeout time.Duration `yaml:"read_timeout" env:"ORDO_WEBHOOK_READ_TIMEOUT"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"ORDO_WEBHOOK_IDLE_TIMEOUT"`

	// RPS enables rate limiting when greater than zero.
	RPS       int `yaml:"rps" env:"ORDO_WEBHOOK_RPS"`
	BurstSize int `yaml:"burst_size" env:"ORDO_WEBHOOK_BURST"`
}

// SchedConfig contains scheduled broadcast settings.
type SchedConfig struct {
	// PollInterval is how often the dispatch loop checks for due entries.
	PollInterval time.Duration `yaml:"poll_interval" env:"ORDO_SCHED_POLL_INTERVAL"`
}

// Read loads configuration from the given YAML file (if path is not empty)
// and then from environment variables, applies defaults and validates.
func Read(path string) (Config, error) {
	var cfg Config

	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return cfg, errm.Wrap(err, "read config file")
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, errm.Wrap(err, "read env")
		}
	}

	if err := cfg.prepareAndValidate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (cfg *Config) prepareAndValidate() error {
	cfg.DataDir = lang.Check(cfg.DataDir, "data")
	cfg.Bot.LPTimeout = lang.Check(cfg.Bot.LPTimeout, 15*time.Second)
	cfg.Bot.NotifyWorkers = lang.Check(cfg.Bot.NotifyWorkers, 8)
	cfg.Scheduler.PollInterval = lang.Check(cfg.Scheduler.PollInterval, 30*time.Second)

	if cfg.Webhook.URL != "" {
		if _, err := url.ParseRequestURI(cfg.Webhook.URL); err != nil {
			return errm.Wrap(err, "invalid webhook url")
		}
		cfg.Webhook.Listen = lang.Check(cfg.Webhook.Listen, ":8443")
		cfg.Webhook.MaxConnections = lang.Check(cfg.Webhook.MaxConnections, 40)
		cfg.Webhook.ReadTimeout = lang.Check(cfg.Webhook.ReadTimeout, 10*time.Second)
		cfg.Webhook.IdleTimeout = lang.Check(cfg.Webhook.IdleTimeout, 60*time.Second)
	}

	if cfg.Database.Address == "" {
		cfg.Database.Disabled = true
	}

	if err := validation.ValidateStruct(cfg,
		validation.Field(&cfg.Token, validation.Required),
	); err != nil {
		return errm.Wrap(err, "validate config")
	}

	return cfg.Database.Validate()
}

// Validate validates database configuration.
func (cfg DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&cfg,
		validation.Field(&cfg.Address, validation.Required.When(!cfg.Disabled)),
		validation.Field(&cfg.DBName, validation.Required.When(!cfg.Disabled)),
		validation.Field(&cfg.Username, validation.Required.When(len(cfg.Password) > 0 && !cfg.Disabled)),
		validation.Field(&cfg.Password, validation.Required.When(len(cfg.Username) > 0 && !cfg.Disabled)),
	)
}
