package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abdulachik/weibobot/internal/domain"
	"github.com/abdulachik/weibobot/internal/weibo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	// Monitored Weibo uids, in priority order
	Accounts []domain.Account

	// Seen store
	StoreBackend   string // file, sqlite or redis (default: file)
	SeenPath       string // text file for the file backend
	DatabasePath   string // SQLite database for the sqlite backend
	RedisURL       string
	RedisKeyPrefix string

	// Weibo API
	WeiboBaseURL   string
	WeiboUserAgent string
	RequestTimeout time.Duration
	VerifyOrder    bool // fall back to latest timestamp when a feed is not newest-first

	// DingTalk
	DingTalkWebhook string
	DingTalkSecret  string

	// Optional run lock file
	LockPath string

	// Logging
	LogLevel string
}

// Duration wraps time.Duration for YAML values like "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// fileConfig is the layout of the optional YAML file named by CONFIG_FILE.
type fileConfig struct {
	Accounts []string `yaml:"accounts"`
	Store    struct {
		Backend      string `yaml:"backend"`
		Path         string `yaml:"path"`
		DatabasePath string `yaml:"database_path"`
		RedisURL     string `yaml:"redis_url"`
		RedisPrefix  string `yaml:"redis_prefix"`
	} `yaml:"store"`
	Weibo struct {
		BaseURL     string   `yaml:"base_url"`
		UserAgent   string   `yaml:"user_agent"`
		Timeout     Duration `yaml:"timeout"`
		VerifyOrder *bool    `yaml:"verify_order"`
	} `yaml:"weibo"`
	DingTalk struct {
		Webhook string `yaml:"webhook"`
		Secret  string `yaml:"secret"`
	} `yaml:"dingtalk"`
	LockPath string `yaml:"lock_path"`
	LogLevel string `yaml:"log_level"`
}

// Load reads configuration from environment variables.
// It automatically loads .env file if present, and a YAML file if
// CONFIG_FILE is set. Environment variables win over the YAML file.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		StoreBackend:   BackendFile,
		SeenPath:       "weiboID.txt",
		DatabasePath:   "data/weibobot.db",
		RedisKeyPrefix: "weibobot:seen",
		WeiboBaseURL:   weibo.DefaultBaseURL,
		WeiboUserAgent: weibo.DefaultUserAgent,
		RequestTimeout: weibo.DefaultTimeout,
		VerifyOrder:    true,
		LogLevel:       "info",
	}
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &domain.ConfigError{Key: "CONFIG_FILE", Reason: err.Error()}
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return &domain.ConfigError{Key: "CONFIG_FILE", Reason: fmt.Sprintf("parse %s: %v", path, err)}
	}

	if len(fc.Accounts) > 0 {
		c.Accounts = parseAccounts(fc.Accounts)
	}
	setString(&c.StoreBackend, fc.Store.Backend)
	setString(&c.SeenPath, fc.Store.Path)
	setString(&c.DatabasePath, fc.Store.DatabasePath)
	setString(&c.RedisURL, fc.Store.RedisURL)
	setString(&c.RedisKeyPrefix, fc.Store.RedisPrefix)
	setString(&c.WeiboBaseURL, fc.Weibo.BaseURL)
	setString(&c.WeiboUserAgent, fc.Weibo.UserAgent)
	if fc.Weibo.Timeout.Duration != 0 {
		c.RequestTimeout = fc.Weibo.Timeout.Duration
	}
	if fc.Weibo.VerifyOrder != nil {
		c.VerifyOrder = *fc.Weibo.VerifyOrder
	}
	setString(&c.DingTalkWebhook, fc.DingTalk.Webhook)
	setString(&c.DingTalkSecret, fc.DingTalk.Secret)
	setString(&c.LockPath, fc.LockPath)
	setString(&c.LogLevel, fc.LogLevel)
	return nil
}

func (c *Config) applyEnv() error {
	if uids := os.Getenv("WEIBO_UIDS"); uids != "" {
		c.Accounts = parseAccounts(strings.Split(uids, ","))
	}

	c.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", c.StoreBackend))
	c.SeenPath = getEnv("SEEN_PATH", c.SeenPath)
	c.DatabasePath = getEnv("DATABASE_PATH", c.DatabasePath)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.RedisKeyPrefix = getEnv("REDIS_KEY_PREFIX", c.RedisKeyPrefix)
	c.WeiboBaseURL = getEnv("WEIBO_BASE_URL", c.WeiboBaseURL)
	c.WeiboUserAgent = getEnv("WEIBO_USER_AGENT", c.WeiboUserAgent)
	c.DingTalkWebhook = getEnv("DINGTALK_WEBHOOK", getEnv("webhook", c.DingTalkWebhook))
	c.DingTalkSecret = getEnv("DINGTALK_SECRET", getEnv("secret", c.DingTalkSecret))
	c.LockPath = getEnv("LOCK_PATH", c.LockPath)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	// Parse durations
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return &domain.ConfigError{Key: "REQUEST_TIMEOUT", Reason: err.Error()}
		}
		c.RequestTimeout = timeout
	}

	// Parse booleans
	if v := os.Getenv("VERIFY_ORDER"); v != "" {
		verify, err := strconv.ParseBool(v)
		if err != nil {
			return &domain.ConfigError{Key: "VERIFY_ORDER", Reason: err.Error()}
		}
		c.VerifyOrder = verify
	}

	return nil
}

// Validate checks that required configuration is present. It runs before
// any store or network access.
func (c *Config) Validate() error {
	if len(c.Accounts) == 0 {
		return &domain.ConfigError{Key: "WEIBO_UIDS", Reason: "at least one account is required"}
	}
	if err := c.ValidateStore(); err != nil {
		return err
	}
	if c.RequestTimeout <= 0 {
		return &domain.ConfigError{Key: "REQUEST_TIMEOUT", Reason: "must be positive"}
	}
	return validateURL("WEIBO_BASE_URL", c.WeiboBaseURL)
}

// ValidateStore checks configuration needed to open the seen store.
func (c *Config) ValidateStore() error {
	switch c.StoreBackend {
	case BackendFile:
		if c.SeenPath == "" {
			return &domain.ConfigError{Key: "SEEN_PATH", Reason: "required for the file backend"}
		}
	case BackendSQLite:
		if c.DatabasePath == "" {
			return &domain.ConfigError{Key: "DATABASE_PATH", Reason: "required for the sqlite backend"}
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return &domain.ConfigError{Key: "REDIS_URL", Reason: "required for the redis backend"}
		}
		if c.RedisKeyPrefix == "" {
			return &domain.ConfigError{Key: "REDIS_KEY_PREFIX", Reason: "required for the redis backend"}
		}
	default:
		return &domain.ConfigError{
			Key:    "STORE_BACKEND",
			Reason: fmt.Sprintf("invalid backend %q (must be file, sqlite or redis)", c.StoreBackend),
		}
	}
	return nil
}

// ValidateForNotify checks configuration needed to deliver notifications.
func (c *Config) ValidateForNotify() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DingTalkWebhook == "" {
		return &domain.ConfigError{Key: "DINGTALK_WEBHOOK", Reason: "required for notifications"}
	}
	return validateURL("DINGTALK_WEBHOOK", c.DingTalkWebhook)
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &domain.ConfigError{Key: key, Reason: fmt.Sprintf("invalid URL %q", raw)}
	}
	return nil
}

// parseAccounts trims entries and drops blanks and repeats, keeping the
// first occurrence.
func parseAccounts(raw []string) []domain.Account {
	seen := make(map[string]bool, len(raw))
	var accounts []domain.Account
	for _, r := range raw {
		uid := strings.TrimSpace(r)
		if uid == "" || seen[uid] {
			continue
		}
		seen[uid] = true
		accounts = append(accounts, domain.Account(uid))
	}
	return accounts
}

func setString(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
