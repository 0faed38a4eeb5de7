package infra

import (
	"fmt"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents client configuration loaded from an optional YAML file
// and environment variables. Environment variables take precedence.
type Config struct {
	AppEnv          string
	LogLevel        string
	BaseURL         string
	HomePath        string
	ResultsPath     string
	Locale          string
	MetricsAddr     string
	PollInterval    time.Duration
	PollMaxInterval time.Duration
	PollBackoff     float64
	PollTimeout     time.Duration
	HTTPTimeout     time.Duration
}

type fileConfig struct {
	AppEnv   string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`
	Locale   string `yaml:"locale"`
	Server   struct {
		BaseURL     string `yaml:"base_url"`
		HomePath    string `yaml:"home_path"`
		ResultsPath string `yaml:"results_path"`
		TimeoutSecs int    `yaml:"timeout_seconds"`
	} `yaml:"server"`
	Poll struct {
		IntervalMS    int     `yaml:"interval_ms"`
		MaxIntervalMS int     `yaml:"max_interval_ms"`
		Backoff       float64 `yaml:"backoff"`
		TimeoutSecs   int     `yaml:"timeout_seconds"`
	} `yaml:"poll"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
}

// LoadConfig loads configuration and applies defaults where needed. The YAML
// file named by JOBCLIENT_CONFIG, when set, supplies the defaults.
func LoadConfig() (*Config, error) {
	var fc fileConfig
	if path := strings.TrimSpace(os.Getenv("JOBCLIENT_CONFIG")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", orDefault(fc.AppEnv, "development")),
		LogLevel:        getEnv("LOG_LEVEL", orDefault(fc.LogLevel, "")),
		BaseURL:         strings.TrimRight(getEnv("JOBS_BASE_URL", orDefault(fc.Server.BaseURL, "http://localhost:5000")), "/"),
		HomePath:        getEnv("HOME_PATH", orDefault(fc.Server.HomePath, "/home")),
		ResultsPath:     getEnv("RESULTS_PATH", orDefault(fc.Server.ResultsPath, "/results/")),
		Locale:          getEnv("LOCALE", orDefault(fc.Locale, "en")),
		MetricsAddr:     getEnv("METRICS_ADDR", fc.Metrics.Addr),
		PollInterval:    time.Millisecond * time.Duration(getEnvInt("POLL_INTERVAL_MS", orDefaultInt(fc.Poll.IntervalMS, 2000))),
		PollMaxInterval: time.Millisecond * time.Duration(getEnvInt("POLL_MAX_INTERVAL_MS", fc.Poll.MaxIntervalMS)),
		PollBackoff:     getEnvFloat("POLL_BACKOFF", orDefaultFloat(fc.Poll.Backoff, 1)),
		PollTimeout:     time.Second * time.Duration(getEnvInt("POLL_TIMEOUT_SECONDS", fc.Poll.TimeoutSecs)),
		HTTPTimeout:     time.Second * time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", orDefaultInt(fc.Server.TimeoutSecs, 30))),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	// Zero max interval means the same as the interval.
	if cfg.PollMaxInterval < cfg.PollInterval {
		cfg.PollMaxInterval = cfg.PollInterval
	}
	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("JOBS_BASE_URL must be an absolute http(s) url, got %q", c.BaseURL)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL_MS must be positive")
	}
	if math.IsNaN(c.PollBackoff) || math.IsInf(c.PollBackoff, 0) {
		return fmt.Errorf("POLL_BACKOFF must be a finite number, got %v", c.PollBackoff)
	}
	if c.PollBackoff < 1 {
		return fmt.Errorf("POLL_BACKOFF must be >= 1, got %v", c.PollBackoff)
	}
	if c.PollMaxInterval < 0 {
		return fmt.Errorf("POLL_MAX_INTERVAL_MS must not be negative")
	}
	if c.PollTimeout < 0 {
		return fmt.Errorf("POLL_TIMEOUT_SECONDS must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func orDefaultInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}

func orDefaultFloat(v, fallback float64) float64 {
	if v != 0 {
		return v
	}
	return fallback
}
