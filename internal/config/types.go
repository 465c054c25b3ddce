// Package config provides configuration types for Paralens.
package config

// Config represents the main Paralens configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Agent   AgentConfig   `toml:"agent"`
	Paths   PathsConfig   `toml:"paths"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig configures the background HTTP service.
type ServerConfig struct {
	Listen         string   `toml:"listen"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// AgentConfig contains task execution settings.
type AgentConfig struct {
	TargetLanguage string `toml:"target_language"`
	ExplainEnabled bool   `toml:"explain_enabled"`
	HistoryCap     int    `toml:"history_cap"`
	RequestTimeout int    `toml:"request_timeout"` // seconds, per chat-completion call
}

// PathsConfig contains storage locations.
type PathsConfig struct {
	DataDir   string `toml:"data_dir"`
	LogsDir   string `toml:"logs_dir"`
	HistoryDB string `toml:"history_db"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}
