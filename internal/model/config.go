package model

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// AccountConfig holds the IMAP account that stores the notes.
type AccountConfig struct {
	Profile `mapstructure:",squash" yaml:",inline"`

	// Username is the IMAP login. Defaults to Email when empty.
	Username string `mapstructure:"username" yaml:"username"`

	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`

	// TLS selects implicit TLS; false uses STARTTLS.
	TLS bool `mapstructure:"tls" yaml:"tls"`

	// FolderPattern is the LIST pattern matching note folders.
	FolderPattern string `mapstructure:"folder_pattern" yaml:"folder_pattern"`

	// DefaultFolder receives notes created without a folder.
	DefaultFolder string `mapstructure:"default_folder" yaml:"default_folder"`
}

// Login returns the IMAP user name.
func (a AccountConfig) Login() string {
	if a.Username != "" {
		return a.Username
	}
	return a.Email
}

// DatabaseConfig holds the local cache location.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// SyncConfig holds reconciliation settings.
type SyncConfig struct {
	// TimeoutSec bounds a single sync, merge, or test task.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Account  AccountConfig  `mapstructure:"account" yaml:"account"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Sync     SyncConfig     `mapstructure:"sync" yaml:"sync"`
}

// configDir returns ~/.config/notesync, or the working directory when the
// home directory cannot be resolved.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "notesync")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/notesync/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Account: AccountConfig{
			Port:          "993",
			TLS:           true,
			FolderPattern: "Notes*",
			DefaultFolder: "Notes",
		},
		Database: DatabaseConfig{
			Path: filepath.Join(configDir(), "notes.db"),
		},
		Log: LogConfig{
			Level: "info",
		},
		Sync: SyncConfig{
			TimeoutSec: 120,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Values can be overridden with NOTESYNC_* environment variables, e.g.
// NOTESYNC_ACCOUNT_HOST. If the file does not exist, defaults are used.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("notesync")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values. Every key
	// needs a default for AutomaticEnv to pick it up during Unmarshal.
	def := defaultAppConfig()
	v.SetDefault("account.email", "")
	v.SetDefault("account.domain", "")
	v.SetDefault("account.username", "")
	v.SetDefault("account.host", "")
	v.SetDefault("account.port", def.Account.Port)
	v.SetDefault("account.tls", def.Account.TLS)
	v.SetDefault("account.folder_pattern", def.Account.FolderPattern)
	v.SetDefault("account.default_folder", def.Account.DefaultFolder)
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("sync.timeout_sec", def.Sync.TimeoutSec)

	if err := v.ReadInConfig(); err != nil {
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isNotFound && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Sync.TimeoutSec <= 0 {
		cfg.Sync.TimeoutSec = def.Sync.TimeoutSec
	}
	if cfg.Account.DefaultFolder == "" {
		cfg.Account.DefaultFolder = def.Account.DefaultFolder
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

	v.Set("account.email", cfg.Account.Email)
	v.Set("account.domain", cfg.Account.DomainOverride)
	v.Set("account.username", cfg.Account.Username)
	v.Set("account.host", cfg.Account.Host)
	v.Set("account.port", cfg.Account.Port)
	v.Set("account.tls", cfg.Account.TLS)
	v.Set("account.folder_pattern", cfg.Account.FolderPattern)
	v.Set("account.default_folder", cfg.Account.DefaultFolder)
	v.Set("database.path", cfg.Database.Path)
	v.Set("log.level", cfg.Log.Level)
	v.Set("sync.timeout_sec", cfg.Sync.TimeoutSec)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
