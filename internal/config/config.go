package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the hnjobs pipeline.
type Config struct {
	Database   DatabaseConfig
	Source     SourceConfig
	Ollama     OllamaConfig
	Extraction ExtractionConfig
}

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string
}

// SourceConfig describes the hnhiring listing source.
type SourceConfig struct {
	BaseURL string   // e.g. https://hnhiring.com
	Pages   []string // page identifiers, e.g. "january-2026"
	Timeout time.Duration
}

// OllamaConfig describes the local inference server used for extraction.
type OllamaConfig struct {
	BaseURL string // e.g. http://localhost:11434
	Model   string
	Timeout time.Duration // per chat round trip
}

// ExtractionConfig controls the enrichment phase.
type ExtractionConfig struct {
	// BatchSize bounds how much completed-but-uncommitted extraction work a
	// crash can lose: enrichments are flushed every BatchSize postings.
	BatchSize int
}

const (
	defaultDBPath        = "hnjobs.db"
	defaultSourceBaseURL = "https://hnhiring.com"
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "mistral:7b-instruct-q4_0"
	defaultBatchSize     = 10
)

// rawConfig is used for YAML unmarshaling (snake_case fields and durations
// as strings).
type rawConfig struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Source struct {
		BaseURL string   `yaml:"base_url"`
		Pages   []string `yaml:"pages"`
		Timeout string   `yaml:"timeout"`
	} `yaml:"source"`
	Ollama struct {
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
		Timeout string `yaml:"timeout"`
	} `yaml:"ollama"`
	Extraction struct {
		BatchSize *int `yaml:"batch_size"`
	} `yaml:"extraction"`
}

// Load reads and parses the YAML config file at path, applies defaults,
// validates it, and returns Config. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if raw.Database.Path != "" {
		cfg.Database.Path = raw.Database.Path
	}
	if raw.Source.BaseURL != "" {
		cfg.Source.BaseURL = raw.Source.BaseURL
	}
	if len(raw.Source.Pages) > 0 {
		cfg.Source.Pages = raw.Source.Pages
	}
	if raw.Source.Timeout != "" {
		cfg.Source.Timeout, err = time.ParseDuration(raw.Source.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse source.timeout %q: %w", raw.Source.Timeout, err)
		}
	}
	if raw.Ollama.BaseURL != "" {
		cfg.Ollama.BaseURL = raw.Ollama.BaseURL
	}
	if raw.Ollama.Model != "" {
		cfg.Ollama.Model = raw.Ollama.Model
	}
	if raw.Ollama.Timeout != "" {
		cfg.Ollama.Timeout, err = time.ParseDuration(raw.Ollama.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse ollama.timeout %q: %w", raw.Ollama.Timeout, err)
		}
	}
	if raw.Extraction.BatchSize != nil {
		cfg.Extraction.BatchSize = *raw.Extraction.BatchSize
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Path: defaultDBPath},
		Source: SourceConfig{
			BaseURL: defaultSourceBaseURL,
			Timeout: 30 * time.Second,
		},
		Ollama: OllamaConfig{
			BaseURL: defaultOllamaBaseURL,
			Model:   defaultOllamaModel,
			Timeout: 2 * time.Minute,
		},
		Extraction: ExtractionConfig{BatchSize: defaultBatchSize},
	}
}

func validate(cfg *Config) error {
	if cfg.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if cfg.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url must not be empty")
	}
	if cfg.Ollama.Model == "" {
		return fmt.Errorf("ollama.model must not be empty")
	}
	if cfg.Extraction.BatchSize < 1 {
		return fmt.Errorf("extraction.batch_size must be at least 1, got %d", cfg.Extraction.BatchSize)
	}
	return nil
}
