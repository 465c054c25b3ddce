// Package config handles Paralens configuration loading and management.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/paralens-ai/paralens/internal/errors"
)

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".paralens")

	return &Config{
		Server: ServerConfig{
			Listen: "127.0.0.1:8765",
			AllowedOrigins: []string{
				"chrome-extension://*",
				"moz-extension://*",
			},
		},
		Agent: AgentConfig{
			TargetLanguage: "en",
			ExplainEnabled: true,
			HistoryCap:     100,
			RequestTimeout: 120,
		},
		Paths: PathsConfig{
			DataDir:   dataDir,
			LogsDir:   filepath.Join(dataDir, "logs"),
			HistoryDB: filepath.Join(dataDir, "history.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads the configuration from the given path.
// If the file doesn't exist, returns defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigInvalid, "invalid config file", errors.CategoryUser)
	}

	cfg = expandPaths(cfg)

	return cfg, nil
}

// Save saves the configuration to the given path.
func (c *Config) Save(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	return encoder.Encode(c)
}

// expandPaths expands a leading ~ in configured paths.
func expandPaths(cfg *Config) *Config {
	homeDir, _ := os.UserHomeDir()

	expand := func(p string) string {
		if p != "" && p[0] == '~' {
			return filepath.Join(homeDir, p[1:])
		}
		return p
	}

	cfg.Paths.DataDir = expand(cfg.Paths.DataDir)
	cfg.Paths.LogsDir = expand(cfg.Paths.LogsDir)
	cfg.Paths.HistoryDB = expand(cfg.Paths.HistoryDB)

	return cfg
}
