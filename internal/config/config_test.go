package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cosminimum/theregistry/internal/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("addr = %q, want :8080", cfg.Addr)
	}
	if cfg.DatabasePath != "registry.db" {
		t.Errorf("database_path = %q", cfg.DatabasePath)
	}
	if cfg.Council.BaseAcceptanceRate != 0.03 {
		t.Errorf("base acceptance rate = %f, want 0.03", cfg.Council.BaseAcceptanceRate)
	}
	if cfg.Council.HardTurnCap != 25 || cfg.Council.SoftTurnCap != 15 {
		t.Errorf("turn caps = %d/%d, want 15/25", cfg.Council.SoftTurnCap, cfg.Council.HardTurnCap)
	}
	if cfg.Council.QuestionTriggerChance != 0.25 {
		t.Errorf("question trigger chance = %f", cfg.Council.QuestionTriggerChance)
	}
	if cfg.Ollama.Model != "llama3.1" {
		t.Errorf("ollama model = %q", cfg.Ollama.Model)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("REGISTRY_ADDR", ":9999")
	t.Setenv("OLLAMA_MODEL", "qwen2")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Errorf("addr = %q, want :9999", cfg.Addr)
	}
	if cfg.Ollama.Model != "qwen2" {
		t.Errorf("ollama model = %q, want qwen2", cfg.Ollama.Model)
	}
}

func TestLoadConfigYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
addr: ":7070"
token_duration: 1h
council:
  soft_turn_cap: 10
  hard_turn_cap: 20
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Errorf("addr = %q, want :7070", cfg.Addr)
	}
	if cfg.TokenDuration != time.Hour {
		t.Errorf("token duration = %s, want 1h", cfg.TokenDuration)
	}
	if cfg.Council.SoftTurnCap != 10 || cfg.Council.HardTurnCap != 20 {
		t.Errorf("turn caps = %d/%d, want 10/20", cfg.Council.SoftTurnCap, cfg.Council.HardTurnCap)
	}

	if _, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing config file should error")
	}
}
