package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. Values come from an optional
// YAML file, then environment overrides, then defaults for anything unset.
type Config struct {
	Redis struct {
		Addr          string `yaml:"addr"`
		Password      string `yaml:"password"`
		DB            int    `yaml:"db"`
		MaxFailures   int    `yaml:"max_failures"`
		ResetTimeoutS int    `yaml:"reset_timeout_s"`
	} `yaml:"redis"`

	SQLite struct {
		Path     string `yaml:"path"`
		Disabled bool   `yaml:"disabled"`
	} `yaml:"sqlite"`

	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`

	Quota struct {
		DailyLimit int `yaml:"daily_limit"`
	} `yaml:"quota"`

	Analysis struct {
		HistoryDays       int `yaml:"history_days"`
		RequestTimeoutS   int `yaml:"request_timeout_s"`
		NarrativeTimeoutS int `yaml:"narrative_timeout_s"`
	} `yaml:"analysis"`

	MarketData struct {
		BaseURL           string  `yaml:"base_url"`
		TimeoutS          int     `yaml:"timeout_s"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"market_data"`

	OpenAI struct {
		APIKey      string  `yaml:"api_key"`
		Model       string  `yaml:"model"`
		BaseURL     string  `yaml:"base_url"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`
	} `yaml:"openai"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads config from a YAML file (a missing file is fine), then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.SQLite.Path, "SQLITE_PATH")
	setBool(&c.SQLite.Disabled, "SQLITE_DISABLED")
	setString(&c.Metrics.Addr, "METRICS_ADDR")
	setInt(&c.Quota.DailyLimit, "DAILY_SEARCH_LIMIT")
	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.Model, "OPENAI_MODEL")
	setString(&c.MarketData.BaseURL, "MARKET_DATA_BASE_URL")
	setString(&c.Log.Level, "LOG_LEVEL")
}

func (c *Config) applyDefaults() {
	defaultString(&c.Redis.Addr, "localhost:6379")
	defaultInt(&c.Redis.MaxFailures, 5)
	defaultInt(&c.Redis.ResetTimeoutS, 10)

	defaultString(&c.SQLite.Path, "data/analysis.db")
	defaultString(&c.Metrics.Addr, ":9090")
	defaultInt(&c.Quota.DailyLimit, 10)

	defaultInt(&c.Analysis.HistoryDays, 90)
	defaultInt(&c.Analysis.RequestTimeoutS, 30)
	defaultInt(&c.Analysis.NarrativeTimeoutS, 20)

	defaultString(&c.MarketData.BaseURL, "https://query1.finance.yahoo.com/v8/finance/chart")
	defaultInt(&c.MarketData.TimeoutS, 15)
	if c.MarketData.RequestsPerSecond <= 0 {
		c.MarketData.RequestsPerSecond = 5
	}
	defaultInt(&c.MarketData.Burst, 5)

	defaultString(&c.OpenAI.Model, "gpt-3.5-turbo")
	defaultInt(&c.OpenAI.MaxTokens, 500)
	if c.OpenAI.Temperature <= 0 {
		c.OpenAI.Temperature = 0.3
	}

	defaultString(&c.Log.Level, "info")
}

// NarrativeEnabled reports whether an OpenAI key is configured.
func (c *Config) NarrativeEnabled() bool { return strings.TrimSpace(c.OpenAI.APIKey) != "" }

// JournalEnabled reports whether the SQLite journal should be opened.
func (c *Config) JournalEnabled() bool { return !c.SQLite.Disabled }

func (c *Config) RedisResetTimeout() time.Duration {
	return time.Duration(c.Redis.ResetTimeoutS) * time.Second
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Analysis.RequestTimeoutS) * time.Second
}

func (c *Config) NarrativeTimeout() time.Duration {
	return time.Duration(c.Analysis.NarrativeTimeoutS) * time.Second
}

func (c *Config) MarketDataTimeout() time.Duration {
	return time.Duration(c.MarketData.TimeoutS) * time.Second
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		log.Printf("[config] ignoring invalid %s=%q", key, v)
		return
	}
	*dst = n
}

func setBool(dst *bool, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		log.Printf("[config] ignoring invalid %s=%q", key, v)
		return
	}
	*dst = b
}

func defaultString(dst *string, fallback string) {
	if *dst == "" {
		*dst = fallback
	}
}

func defaultInt(dst *int, fallback int) {
	if *dst <= 0 {
		*dst = fallback
	}
}
