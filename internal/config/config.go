// Package config loads adv settings from adv.toml and ADV_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// FileName is the config file name, looked up in the user config
// directory and the working directory.
const FileName = "adv.toml"

// Remote drivers.
const (
	DriverNone   = ""
	DriverHTTP   = "http"
	DriverLibSQL = "libsql"
)

// Config is the full adv configuration.
type Config struct {
	Data      DataConfig      `mapstructure:"data" toml:"data"`
	Remote    RemoteConfig    `mapstructure:"remote" toml:"remote"`
	Log       LogConfig       `mapstructure:"log" toml:"log"`
	Timezone  string          `mapstructure:"timezone" toml:"timezone"`
	Auth      AuthConfig      `mapstructure:"auth" toml:"auth"`
	Notify    NotifyConfig    `mapstructure:"notify" toml:"notify"`
	Dashboard DashboardConfig `mapstructure:"dashboard" toml:"dashboard"`
	Server    ServerConfig    `mapstructure:"server" toml:"server"`
}

// DataConfig locates the local store.
type DataConfig struct {
	Dir string `mapstructure:"dir" toml:"dir"`
}

// RemoteConfig selects and configures the remote document store. An empty
// driver means local-only.
type RemoteConfig struct {
	Driver       string        `mapstructure:"driver" toml:"driver"`
	URL          string        `mapstructure:"url" toml:"url"`
	Token        string        `mapstructure:"token" toml:"token"`
	Timeout      time.Duration `mapstructure:"timeout" toml:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval" toml:"poll_interval"`
}

// LogConfig controls log output. An empty File logs to stderr.
type LogConfig struct {
	File       string `mapstructure:"file" toml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" toml:"max_age_days"`
}

// AuthConfig configures the PIN gate.
type AuthConfig struct {
	Pin string `mapstructure:"pin" toml:"pin"`
}

// NotifyConfig configures notifications.
type NotifyConfig struct {
	Desktop bool `mapstructure:"desktop" toml:"desktop"`
}

// DashboardConfig configures the live dashboard.
type DashboardConfig struct {
	Port int `mapstructure:"port" toml:"port"`
}

// ServerConfig configures the bundled document server.
type ServerConfig struct {
	Port    int    `mapstructure:"port" toml:"port"`
	BlobDir string `mapstructure:"blob_dir" toml:"blob_dir"`
	Token   string `mapstructure:"token" toml:"token"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Data: DataConfig{Dir: DefaultDataDir()},
		Remote: RemoteConfig{
			Timeout:      10 * time.Second,
			PollInterval: 2 * time.Second,
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Auth:      AuthConfig{Pin: "9302"},
		Notify:    NotifyConfig{Desktop: true},
		Dashboard: DashboardConfig{Port: 8080},
		Server:    ServerConfig{Port: 8787},
	}
}

// DefaultDataDir is $XDG_DATA_HOME/adv, falling back to ~/.local/share/adv.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "adv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".adv"
	}
	return filepath.Join(home, ".local", "share", "adv")
}

// DefaultConfigPath is where `adv config init` writes.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return FileName
	}
	return filepath.Join(dir, "adv", FileName)
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("data.dir", d.Data.Dir)
	v.SetDefault("remote.driver", d.Remote.Driver)
	v.SetDefault("remote.url", d.Remote.URL)
	v.SetDefault("remote.token", d.Remote.Token)
	v.SetDefault("remote.timeout", d.Remote.Timeout)
	v.SetDefault("remote.poll_interval", d.Remote.PollInterval)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("timezone", d.Timezone)
	v.SetDefault("auth.pin", d.Auth.Pin)
	v.SetDefault("notify.desktop", d.Notify.Desktop)
	v.SetDefault("dashboard.port", d.Dashboard.Port)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.blob_dir", d.Server.BlobDir)
	v.SetDefault("server.token", d.Server.Token)
}

// Load reads the configuration. When path is empty adv.toml is searched
// for in the user config directory and the working directory; a missing
// file is not an error. ADV_* environment variables override the file
// (ADV_REMOTE_URL sets remote.url).
func Load(path string) (*Config, string, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ADV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.SetConfigType("toml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "adv"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, "", fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, v.ConfigFileUsed(), nil
}

// Validate checks the configuration for values adv cannot run with.
func (c *Config) Validate() error {
	switch c.Remote.Driver {
	case DriverNone, DriverHTTP, DriverLibSQL:
	default:
		return fmt.Errorf("invalid remote.driver %q (want %q, %q or empty)", c.Remote.Driver, DriverHTTP, DriverLibSQL)
	}
	if c.Remote.Driver != DriverNone && c.Remote.URL == "" {
		return fmt.Errorf("remote.driver %q requires remote.url", c.Remote.Driver)
	}
	if c.Remote.Timeout < 0 {
		return fmt.Errorf("remote.timeout cannot be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	for name, port := range map[string]int{"dashboard.port": c.Dashboard.Port, "server.port": c.Server.Port} {
		if port < 0 || port > 65535 {
			return fmt.Errorf("invalid %s %d", name, port)
		}
	}
	return nil
}

// Location returns the time zone for calendar-day calculations.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// RemoteEnabled reports whether a remote store is configured.
func (c *Config) RemoteEnabled() bool {
	return c.Remote.Driver != DriverNone
}

// BlobDir is where the document server keeps uploads.
func (c *Config) BlobDir() string {
	if c.Server.BlobDir != "" {
		return c.Server.BlobDir
	}
	return filepath.Join(c.Data.Dir, "blobs")
}

// LocalPath is the local store database.
func (c *Config) LocalPath() string {
	return filepath.Join(c.Data.Dir, "adv.db")
}

// ServerPath is the document server database.
func (c *Config) ServerPath() string {
	return filepath.Join(c.Data.Dir, "server.db")
}

// ReplicaPath is the embedded libSQL replica.
func (c *Config) ReplicaPath() string {
	return filepath.Join(c.Data.Dir, "replica.db")
}

// Write encodes c as TOML to path, creating parent directories. An
// existing file is left alone unless overwrite is set.
func Write(path string, c *Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	return f.Close()
}
