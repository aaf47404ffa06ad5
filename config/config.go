package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ProviderConfig is one backend credential entry in the settings file.
type ProviderConfig struct {
	ID      string `toml:"id"` // "openai" or "anthropic"
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Enabled bool   `toml:"enabled"`
}

type Config struct {
	DefaultModel  string           `toml:"default_model"`
	Instructions  string           `toml:"instructions"`
	MaxToolDepth  int              `toml:"max_tool_depth"`
	DataDirectory string           `toml:"data_directory"`
	Providers     []ProviderConfig `toml:"providers"`
}

var Debug = false
var DebugLog *log.Logger

// Load reads the settings file (if present), then applies environment
// overrides. Missing file is not an error; defaults apply.
func Load() (*Config, error) {
	cfg := &Config{
		DefaultModel: "gpt-4o-mini",
		Instructions: "You are a helpful assistant.",
		MaxToolDepth: 3,
		Providers: []ProviderConfig{
			{ID: "openai", Enabled: true},
			{ID: "anthropic", Enabled: true},
		},
	}

	path := SettingsFilePath()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.setProviderKey("openai", key)
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.setProviderKey("anthropic", key)
	}
	if model := os.Getenv("RELAY_MODEL"); model != "" {
		c.DefaultModel = model
	}
	if dataDir := os.Getenv("RELAY_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
}

func (c *Config) setProviderKey(id, key string) {
	for i := range c.Providers {
		if c.Providers[i].ID == id {
			c.Providers[i].APIKey = key
			return
		}
	}
	c.Providers = append(c.Providers, ProviderConfig{ID: id, APIKey: key, Enabled: true})
}

// Provider returns the credential entry for a provider ID, or nil.
func (c *Config) Provider(id string) *ProviderConfig {
	for i := range c.Providers {
		if c.Providers[i].ID == id {
			return &c.Providers[i]
		}
	}
	return nil
}

// DataDir returns the directory for session storage and debug logs.
func (c *Config) DataDir() string {
	if c.DataDirectory != "" {
		return expandPath(c.DataDirectory)
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, ".local", "share", "relay")
}

// SettingsFilePath returns the TOML settings file location.
func SettingsFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "relay.toml"
	}
	return filepath.Join(dir, "relay", "config.toml")
}

func expandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
