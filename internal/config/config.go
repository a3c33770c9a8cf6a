// Package config provides configuration loading and structs for the
// RecallGuard server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Feed    FeedConfig    `yaml:"feed"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Shop    ShopConfig    `yaml:"shop"`
	Import  ImportConfig  `yaml:"import"`
	Search  SearchConfig  `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// FeedConfig holds the public recall feed settings.
type FeedConfig struct {
	URL            string `yaml:"url"`
	ServiceKey     string `yaml:"service_key"`
	PageSize       int    `yaml:"page_size"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// OpenAIConfig holds settings for variant generation and image extraction.
// An empty API key disables both features.
type OpenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	ChatModel      string `yaml:"chat_model"`
	VisionModel    string `yaml:"vision_model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ShopConfig holds shop search API credentials for alternative-product
// lookups. Empty credentials disable the feature.
type ShopConfig struct {
	ClientID       string `yaml:"client_id"`
	ClientSecret   string `yaml:"client_secret"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ImportConfig holds the spreadsheet import directory. Empty disables the
// directory watcher.
type ImportConfig struct {
	Directory string `yaml:"directory"`
}

// SearchConfig holds search behavior settings.
type SearchConfig struct {
	DetailBaseURL         string `yaml:"detail_base_url"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// Load reads and parses the config file at path, expands paths, and applies
// defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Import.Directory != "" {
		cfg.Import.Directory = expandPath(cfg.Import.Directory, configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
