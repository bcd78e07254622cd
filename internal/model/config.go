package model

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// IMAPConfig holds the connection settings for the mail server.
type IMAPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`

	// TLS selects implicit TLS; when false the client upgrades via STARTTLS.
	TLS bool `mapstructure:"tls" yaml:"tls"`

	// Mailbox is the folder fetched from, usually INBOX.
	Mailbox string `mapstructure:"mailbox" yaml:"mailbox"`

	// FetchWorkers is the number of concurrent fetch connections.
	FetchWorkers int `mapstructure:"fetch_workers" yaml:"fetch_workers"`
}

// SearchConfig holds settings for the local search pass.
type SearchConfig struct {
	// Workers is the classification pool size; 0 means one per CPU core.
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// StorageConfig holds the local persistence paths.
type StorageConfig struct {
	// DataDir is the root for message blobs and attachment files.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	// DatabasePath is the SQLite index file.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level     string `mapstructure:"level" yaml:"level"`
	Format    string `mapstructure:"format" yaml:"format"`
	Output    string `mapstructure:"output" yaml:"output"`
	AddSource bool   `mapstructure:"add_source" yaml:"add_source"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	IMAP    IMAPConfig    `mapstructure:"imap" yaml:"imap"`
	Search  SearchConfig  `mapstructure:"search" yaml:"search"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// SearchWorkers returns the effective classification pool size.
func (c *AppConfig) SearchWorkers() int {
	if c.Search.Workers > 0 {
		return c.Search.Workers
	}
	return runtime.NumCPU()
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailtriage/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "mailtriage", "config.yaml")
}

// defaultDataDir returns the default data directory for blobs and the index.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "mailtriage-data")
	}
	return filepath.Join(home, ".local", "share", "mailtriage")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dataDir := defaultDataDir()
	return &AppConfig{
		IMAP: IMAPConfig{
			Port:         "993",
			TLS:          true,
			Mailbox:      "INBOX",
			FetchWorkers: 4,
		},
		Search: SearchConfig{Workers: 0},
		Storage: StorageConfig{
			DataDir:      dataDir,
			DatabasePath: filepath.Join(dataDir, "manager.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("imap.port", "993")
	v.SetDefault("imap.tls", true)
	v.SetDefault("imap.mailbox", "INBOX")
	v.SetDefault("imap.fetch_workers", 4)
	v.SetDefault("search.workers", 0)
	v.SetDefault("storage.data_dir", defaultDataDir())
	v.SetDefault("storage.database_path", filepath.Join(defaultDataDir(), "manager.db"))
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")

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

	v.Set("imap", cfg.IMAP)
	v.Set("search", cfg.Search)
	v.Set("storage", cfg.Storage)
	v.Set("logging", cfg.Logging)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
