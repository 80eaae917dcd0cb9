package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/jobs.db
source:
  base_url: https://hnhiring.example
  pages:
    - january-2026
    - february-2026
  timeout: 10s
ollama:
  base_url: http://127.0.0.1:11434
  model: llama3
  timeout: 90s
extraction:
  batch_size: 25
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.Path != "/tmp/jobs.db" {
		t.Errorf("database.path = %q", cfg.Database.Path)
	}
	if len(cfg.Source.Pages) != 2 || cfg.Source.Pages[0] != "january-2026" {
		t.Errorf("source.pages = %v", cfg.Source.Pages)
	}
	if cfg.Source.Timeout != 10*time.Second {
		t.Errorf("source.timeout = %v", cfg.Source.Timeout)
	}
	if cfg.Ollama.Model != "llama3" {
		t.Errorf("ollama.model = %q", cfg.Ollama.Model)
	}
	if cfg.Ollama.Timeout != 90*time.Second {
		t.Errorf("ollama.timeout = %v", cfg.Ollama.Timeout)
	}
	if cfg.Extraction.BatchSize != 25 {
		t.Errorf("extraction.batch_size = %d", cfg.Extraction.BatchSize)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Extraction.BatchSize != 10 {
		t.Errorf("default batch_size = %d, want 10", cfg.Extraction.BatchSize)
	}
	if cfg.Ollama.BaseURL != "http://localhost:11434" {
		t.Errorf("default ollama.base_url = %q", cfg.Ollama.BaseURL)
	}
	if cfg.Source.BaseURL != "https://hnhiring.com" {
		t.Errorf("default source.base_url = %q", cfg.Source.BaseURL)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("HNJOBS_TEST_DB", "/data/env.db")
	path := writeConfig(t, "database:\n  path: ${HNJOBS_TEST_DB}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "/data/env.db" {
		t.Errorf("database.path = %q, want env-expanded value", cfg.Database.Path)
	}
}

func TestLoadRejectsBadBatchSize(t *testing.T) {
	path := writeConfig(t, "extraction:\n  batch_size: 0\n")
	if _, err := Load(path); err == nil {
		t.Error("expected validation error for batch_size 0")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, "ollama:\n  timeout: soon\n")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error for ollama.timeout")
	}
}
