// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type AppConfig struct {
	Listen               string        `yaml:"listen"`
	ReferralLinkTemplate string        `yaml:"referral_link_template"`
	SetupURL             string        `yaml:"setup_url"`
	RequestTimeout       time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type StoreConfig struct {
	Driver    string `yaml:"driver"` // file | redis
	Path      string `yaml:"path"`
	KeyPrefix string `yaml:"key_prefix"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // lifetime of issued-invoice records
}

type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type BridgeConfig struct {
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	SimulatedStatus  string        `yaml:"simulated_status"` // status the no-op bridge resolves invoices with
	AllowedOrigins   []string      `yaml:"allowed_origins"`
}

type PaymentConfig struct {
	// ConfirmTimeout bounds the wait for the host's invoice callback. Zero waits forever.
	ConfirmTimeout time.Duration `yaml:"confirm_timeout"`
}

type BotConfig struct {
	Token    string `yaml:"token"`
	Username string `yaml:"username"`
	Workers  int    `yaml:"workers"` // polling workers
	APIURL   string `yaml:"api_url"`
}

type APIConfig struct {
	Listen         string        `yaml:"listen"`
	JWTSecret      string        `yaml:"jwt_secret"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	InitDataMaxAge time.Duration `yaml:"init_data_max_age"`
	RateLimit      int           `yaml:"rate_limit"`
	RateWindow     time.Duration `yaml:"rate_window"`
	AllowAnonymous bool          `yaml:"allow_anonymous"`
}

type Config struct {
	App     AppConfig     `yaml:"app"`
	Log     LogConfig     `yaml:"log"`
	Store   StoreConfig   `yaml:"store"`
	Redis   RedisConfig   `yaml:"redis"`
	Backend BackendConfig `yaml:"backend"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	Payment PaymentConfig `yaml:"payment"`
	Bot     BotConfig     `yaml:"bot"`
	API     APIConfig     `yaml:"api"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, applies a .env file if present,
// overlays WHITELIST_* environment variables and fills defaults.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.Runtime.Dev = dev
	return cfg, nil
}

// Parse decodes YAML and applies defaults without touching the environment.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.setDefaults()
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.App.Listen == "" {
		c.App.Listen = ":8080"
	}
	if c.App.ReferralLinkTemplate == "" {
		c.App.ReferralLinkTemplate = "https://t.me/WhiteListVPN_bot?start=%s"
	}
	if c.App.SetupURL == "" {
		c.App.SetupURL = "https://example.com/vpn-setup-instructions"
	}
	if c.App.RequestTimeout <= 0 {
		c.App.RequestTimeout = 15 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "file"
	}
	if c.Store.Path == "" {
		c.Store.Path = "data/storage.json"
	}
	c.Redis.TTL = normalizeTTL(c.Redis.TTL)
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = 10 * time.Second
	}
	if c.Bridge.HandshakeTimeout <= 0 {
		c.Bridge.HandshakeTimeout = 5 * time.Second
	}
	if c.Bridge.SimulatedStatus == "" {
		c.Bridge.SimulatedStatus = "cancelled"
	}
	if c.Bot.Workers <= 0 {
		c.Bot.Workers = 8
	}
	if c.API.Listen == "" {
		c.API.Listen = ":8081"
	}
	if c.API.SessionTTL <= 0 {
		c.API.SessionTTL = 24 * time.Hour
	}
	if c.API.InitDataMaxAge <= 0 {
		c.API.InitDataMaxAge = 24 * time.Hour
	}
	if c.API.RateLimit <= 0 {
		c.API.RateLimit = 5
	}
	if c.API.RateWindow <= 0 {
		c.API.RateWindow = time.Minute
	}
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&c.Bot.Token, "WHITELIST_BOT_TOKEN")
	override(&c.API.JWTSecret, "WHITELIST_JWT_SECRET")
	override(&c.Redis.URL, "WHITELIST_REDIS_URL")
	override(&c.Redis.Password, "WHITELIST_REDIS_PASSWORD")
	override(&c.Backend.BaseURL, "WHITELIST_BACKEND_URL")
}

// ValidateApp checks the settings the mini-app session process needs.
func (c *Config) ValidateApp() error {
	switch c.Store.Driver {
	case "file":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis.url is required for store.driver=redis")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	if c.Backend.BaseURL == "" && !c.Runtime.Dev {
		return errors.New("backend.base_url is required")
	}
	if !strings.Contains(c.App.ReferralLinkTemplate, "%s") {
		return errors.New("app.referral_link_template must contain %s")
	}
	return nil
}

// ValidateInvoiceAPI checks the settings the invoice endpoint needs.
func (c *Config) ValidateInvoiceAPI() error {
	if c.Bot.Token == "" {
		return errors.New("bot.token is required")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if c.API.JWTSecret == "" && !c.API.AllowAnonymous {
		return errors.New("api.jwt_secret is required unless api.allow_anonymous is set")
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 24 * time.Hour
	}
	return d
}
