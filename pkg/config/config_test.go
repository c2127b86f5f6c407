package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "environment: test\n"))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("port %d, want 8080", cfg.Server.Port)
	}
	if cfg.Resolver.SkipThreshold != 3 {
		t.Fatalf("skip threshold %d, want 3", cfg.Resolver.SkipThreshold)
	}
	if cfg.Resolver.DefaultTimeout != 15*time.Second {
		t.Fatalf("default timeout %v, want 15s", cfg.Resolver.DefaultTimeout)
	}
	if !cfg.LLM.PreferGateway {
		t.Fatalf("prefer_gateway should default to true")
	}
	if cfg.Backend.Type != "none" {
		t.Fatalf("backend %q, want none", cfg.Backend.Type)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
environment: production
resolver:
  skip_threshold: 5
  timeouts:
    tushare: 8s
llm:
  prefer_gateway: false
`))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if cfg.Resolver.SkipThreshold != 5 {
		t.Fatalf("skip threshold %d, want 5", cfg.Resolver.SkipThreshold)
	}
	if cfg.Resolver.Timeouts["tushare"] != 8*time.Second {
		t.Fatalf("tushare timeout %v, want 8s", cfg.Resolver.Timeouts["tushare"])
	}
	if cfg.LLM.PreferGateway {
		t.Fatalf("prefer_gateway should be false")
	}
}

func TestValidateBackend(t *testing.T) {
	if _, err := Load(writeConfig(t, "environment: test\nbackend:\n  type: postgres\n")); err == nil {
		t.Fatalf("unknown backend must fail validation")
	}
	if _, err := Load(writeConfig(t, "environment: test\nbackend:\n  type: kafka\n")); err == nil {
		t.Fatalf("kafka backend without brokers must fail validation")
	}
	if _, err := Load(writeConfig(t, "environment: test\nbackend:\n  type: clickhouse\n")); err == nil {
		t.Fatalf("clickhouse backend without host must fail validation")
	}
}

func TestValidateStream(t *testing.T) {
	if _, err := Load(writeConfig(t, "environment: test\nstream:\n  enabled: true\n")); err == nil {
		t.Fatalf("enabled stream without url must fail validation")
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("SKIP_THRESHOLD", "7")
	t.Setenv("PREFER_GATEWAY", "false")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := LoadWithEnv(writeConfig(t, "environment: test\n"))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if cfg.Resolver.SkipThreshold != 7 {
		t.Fatalf("skip threshold %d, want env override 7", cfg.Resolver.SkipThreshold)
	}
	if cfg.LLM.PreferGateway {
		t.Fatalf("prefer_gateway should be overridden to false")
	}
	if cfg.LLM.Gemini.APIKey != "test-key" {
		t.Fatalf("gemini key not overridden")
	}
}
