package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.MaxFailures != 5 || cfg.RedisResetTimeout() != 10*time.Second {
		t.Errorf("unexpected redis defaults %+v", cfg.Redis)
	}
	if cfg.Quota.DailyLimit != 10 {
		t.Errorf("expected daily limit 10, got %d", cfg.Quota.DailyLimit)
	}
	if cfg.Analysis.HistoryDays != 90 || cfg.RequestTimeout() != 30*time.Second || cfg.NarrativeTimeout() != 20*time.Second {
		t.Errorf("unexpected analysis defaults %+v", cfg.Analysis)
	}
	if cfg.OpenAI.Model != "gpt-3.5-turbo" || cfg.OpenAI.MaxTokens != 500 || cfg.OpenAI.Temperature != 0.3 {
		t.Errorf("unexpected openai defaults %+v", cfg.OpenAI)
	}
	if cfg.NarrativeEnabled() {
		t.Error("narrative must be disabled without an API key")
	}
	if !cfg.JournalEnabled() || cfg.SQLite.Path != "data/analysis.db" {
		t.Errorf("unexpected sqlite defaults %+v", cfg.SQLite)
	}
	if cfg.Log.Level != "info" || cfg.Metrics.Addr != ":9090" {
		t.Errorf("unexpected log/metrics defaults")
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
redis:
  addr: redis:6379
  max_failures: 3
quota:
  daily_limit: 25
market_data:
  requests_per_second: 2.5
openai:
  api_key: from-file
  temperature: 0.7
sqlite:
  disabled: true
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REDIS_ADDR", "env-redis:6380")
	t.Setenv("DAILY_SEARCH_LIMIT", "not-a-number")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Redis.Addr != "env-redis:6380" {
		t.Errorf("env should override file, got %s", cfg.Redis.Addr)
	}
	if cfg.Redis.MaxFailures != 3 || cfg.Redis.ResetTimeoutS != 10 {
		t.Errorf("unexpected redis %+v", cfg.Redis)
	}
	if cfg.Quota.DailyLimit != 25 {
		t.Errorf("invalid env must not override file, got %d", cfg.Quota.DailyLimit)
	}
	if cfg.MarketData.RequestsPerSecond != 2.5 || cfg.MarketData.Burst != 5 {
		t.Errorf("unexpected market data %+v", cfg.MarketData)
	}
	if !cfg.NarrativeEnabled() || cfg.OpenAI.Temperature != 0.7 {
		t.Errorf("unexpected openai %+v", cfg.OpenAI)
	}
	if cfg.JournalEnabled() {
		t.Error("journal should be disabled from file")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug, got %s", cfg.Log.Level)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("redis: [unterminated"), 0o644)
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
