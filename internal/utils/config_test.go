package utils

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("HISTORY_BACKEND", "")
	t.Setenv("SHORT_TERM_LIMIT", "")
	t.Setenv("SUMMARIZE_THRESHOLD", "")
	t.Setenv("FALLBACK_CITY", "")
	t.Setenv("LLM_TIMEOUT", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.LLM.APIKey != "gemini-key" {
		t.Fatalf("expected GEMINI_API_KEY fallback, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "gemini-2.0-flash-lite" {
		t.Fatalf("unexpected model %q", cfg.LLM.Model)
	}
	if cfg.LLM.Timeout != 30*time.Second {
		t.Fatalf("expected 30s llm timeout, got %s", cfg.LLM.Timeout)
	}
	if cfg.History.Backend != BackendSQLite {
		t.Fatalf("expected sqlite backend, got %q", cfg.History.Backend)
	}
	if cfg.Memory.ShortTermLimit != 10 || cfg.Memory.SummarizeThreshold != 20 {
		t.Fatalf("unexpected memory limits %+v", cfg.Memory)
	}
	if cfg.Memory.PersistToolTriggers {
		t.Fatalf("tool trigger persistence should be off by default")
	}
	if cfg.Tools.FallbackCity != "Bengaluru" {
		t.Fatalf("unexpected fallback city %q", cfg.Tools.FallbackCity)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("LLM_API_KEY", "primary")
	t.Setenv("GEMINI_API_KEY", "secondary")
	t.Setenv("LLM_BASE_URL", "http://localhost:9999/v1/")
	t.Setenv("LLM_TIMEOUT", "not-a-duration")
	t.Setenv("HISTORY_BACKEND", "Redis")
	t.Setenv("SHORT_TERM_LIMIT", "-4")
	t.Setenv("SUMMARIZE_THRESHOLD", "6")
	t.Setenv("AGENT_PERSIST_TOOL_TRIGGERS", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.LLM.APIKey != "primary" {
		t.Fatalf("LLM_API_KEY should win, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.BaseURL != "http://localhost:9999/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Timeout != 30*time.Second {
		t.Fatalf("invalid duration should fall back, got %s", cfg.LLM.Timeout)
	}
	if cfg.History.Backend != BackendRedis {
		t.Fatalf("expected redis backend, got %q", cfg.History.Backend)
	}
	if cfg.Memory.ShortTermLimit != 10 {
		t.Fatalf("negative limit should fall back, got %d", cfg.Memory.ShortTermLimit)
	}
	if cfg.Memory.SummarizeThreshold != 6 {
		t.Fatalf("expected threshold 6, got %d", cfg.Memory.SummarizeThreshold)
	}
	if !cfg.Memory.PersistToolTriggers {
		t.Fatalf("expected tool trigger persistence enabled")
	}
}

func TestValidateRequiresCompletionKey(t *testing.T) {
	cfg := &Config{History: HistoryConfig{Backend: BackendSQLite}}

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected error for missing api key")
	}
	if !strings.Contains(err.Error(), "LLM_API_KEY") {
		t.Fatalf("error should name the missing variable: %v", err)
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := &Config{
		LLM:     LLMConfig{APIKey: "key"},
		History: HistoryConfig{Backend: "cassandra"},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestBuildDSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "chat"}
	if got := cfg.BuildDSN(); got != "postgres://u:p@db:5433/chat" {
		t.Fatalf("unexpected dsn %q", got)
	}

	cfg.DSN = "postgres://explicit"
	if got := cfg.BuildDSN(); got != "postgres://explicit" {
		t.Fatalf("explicit dsn should win, got %q", got)
	}
}
