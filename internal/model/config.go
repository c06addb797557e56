package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds settings for the remote task backend.
type ServerConfig struct {
	// BaseURL is the root URL of the backend API
	// (e.g., https://tasks.example.com/api).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec is the per-request HTTP timeout in seconds.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// SyncConfig holds settings for notification polling.
type SyncConfig struct {
	// PollIntervalSec is how often (in seconds) to re-fetch
	// notifications while the app is in the foreground.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `mapstructure:"level" yaml:"level"`

	// File is an optional path to write logs to. Empty means stderr.
	File string `mapstructure:"file" yaml:"file"`
}

// StorageConfig holds local persistence settings.
type StorageConfig struct {
	// DBPath is the path of the local task cache database.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Sync    SyncConfig    `mapstructure:"sync" yaml:"sync"`
	Logging LogConfig     `mapstructure:"logging" yaml:"logging"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskmovil/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "taskmovil", "config.yaml")
}

// defaultDBPath returns the default location of the task cache database.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "taskmovil.db")
	}
	return filepath.Join(home, ".local", "share", "taskmovil", "cache.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			BaseURL:    "http://localhost:3000/api",
			TimeoutSec: 30,
		},
		Sync: SyncConfig{
			PollIntervalSec: 30,
		},
		Logging: LogConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.base_url", "http://localhost:3000/api")
	v.SetDefault("server.timeout_sec", 30)
	v.SetDefault("sync.poll_interval_sec", 30)
	v.SetDefault("logging.level", "info")
	v.SetDefault("storage.db_path", defaultDBPath())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Sync.PollIntervalSec <= 0 {
		cfg.Sync.PollIntervalSec = 30
	}
	if cfg.Server.TimeoutSec <= 0 {
		cfg.Server.TimeoutSec = 30
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("sync", cfg.Sync)
	v.Set("logging", cfg.Logging)
	v.Set("storage", cfg.Storage)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
