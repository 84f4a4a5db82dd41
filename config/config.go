package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Upstream   UpstreamConfig   `yaml:"upstream"`
	Hours      HoursConfig      `yaml:"business_hours"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Wizard     WizardConfig     `yaml:"wizard"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// UpstreamConfig describes the remote availability API and how its
// reservation status codes map onto lifecycle classes.
type UpstreamConfig struct {
	URL                   string            `yaml:"url"`
	Headers               map[string]string `yaml:"headers"`
	HTTPProxy             string            `yaml:"http_proxy"`
	Timezone              string            `yaml:"timezone"`
	TimeoutSeconds        int               `yaml:"timeout_seconds"`
	Timeout               time.Duration     `yaml:"-"` // Ignored by YAML parser
	RefreshSeconds        int               `yaml:"refresh_seconds"`
	Refresh               time.Duration     `yaml:"-"`
	StatusConfirmedValues []int             `yaml:"status_confirmed_values"`
	StatusPendingValues   []int             `yaml:"status_pending_values"`
	StatusCancelledValues []int             `yaml:"status_cancelled_values"`
}

// HoursConfig is the bookable window in local hours, half-open [open, close).
type HoursConfig struct {
	Open  int `yaml:"open"`
	Close int `yaml:"close"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// PushConfig holds the VAPID keys for resource-watch web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// WizardConfig holds settings for wizard sessions.
type WizardConfig struct {
	SessionTTLMinutes int `yaml:"session_ttl_minutes"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Upstream.TimeoutSeconds <= 0 {
		cfg.Upstream.TimeoutSeconds = 30
	}
	cfg.Upstream.Timeout = time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second

	if cfg.Upstream.RefreshSeconds <= 0 {
		cfg.Upstream.RefreshSeconds = 300
	}
	cfg.Upstream.Refresh = time.Duration(cfg.Upstream.RefreshSeconds) * time.Second

	if cfg.Upstream.Timezone == "" {
		cfg.Upstream.Timezone = "Local"
	}

	if cfg.Hours.Open <= 0 && cfg.Hours.Close <= 0 {
		cfg.Hours.Open = 8
		cfg.Hours.Close = 17
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Wizard.SessionTTLMinutes <= 0 {
		cfg.Wizard.SessionTTLMinutes = 30
	}

	return &cfg, nil
}
