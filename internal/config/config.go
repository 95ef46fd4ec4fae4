package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/relayctl/relayctl/internal/logger"
	"github.com/relayctl/relayctl/internal/service"
)

// Environment overrides.
const (
	EnvConfig = "RELAYCTL_CONFIG" // config file path
	EnvHome   = "RELAYCTL_HOME"   // data directory (pid files, logs, history db)
)

// DefaultDirName is the per-user data directory under $HOME.
const DefaultDirName = ".relayctl"

// Config is the top-level TOML structure. The router block is always present
// (defaults are applied when omitted); providers are declared as an array of
// tables so their startup order follows the file.
type Config struct {
	Home      string           `mapstructure:"home"`
	Log       LogConfig        `mapstructure:"log"`
	Health    HealthConfig     `mapstructure:"health"`
	Stop      StopConfig       `mapstructure:"stop"`
	History   HistoryConfig    `mapstructure:"history"`
	Server    ServerConfig     `mapstructure:"server"`
	Router    RouterConfig     `mapstructure:"router"`
	Providers []ProviderConfig `mapstructure:"providers"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Color      bool   `mapstructure:"color"`
	File       string `mapstructure:"file"` // optional rotated supervisor log
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type HealthConfig struct {
	Attempts int           `mapstructure:"attempts"`
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type StopConfig struct {
	GracePeriod time.Duration `mapstructure:"grace_period"`
	KillWait    time.Duration `mapstructure:"kill_wait"`
}

type HistoryConfig struct {
	Backend string `mapstructure:"backend"` // "", "sqlite", "postgres"
	DSN     string `mapstructure:"dsn"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"` // loopback listen address for relayctl serve
}

type RouterConfig struct {
	Command   string   `mapstructure:"command"`
	WorkDir   string   `mapstructure:"workdir"`
	Env       []string `mapstructure:"env"`
	HealthURL string   `mapstructure:"health_url"`
}

type ProviderConfig struct {
	Name      string   `mapstructure:"name"`
	Enabled   bool     `mapstructure:"enabled"`
	Command   string   `mapstructure:"command"`
	WorkDir   string   `mapstructure:"workdir"`
	Env       []string `mapstructure:"env"`
	HealthURL string   `mapstructure:"health_url"`
}

// Defaults applied when the file omits values.
const (
	DefaultRouterCommand   = "relay-router"
	DefaultRouterHealthURL = "http://127.0.0.1:3456/health"
	DefaultServeAddr       = "127.0.0.1:3457"
	DefaultHealthAttempts  = 10
	DefaultHealthInterval  = time.Second
	DefaultHealthTimeout   = 2 * time.Second
	DefaultGracePeriod     = 8 * time.Second
	DefaultKillWait        = 2 * time.Second
)

// ResolvePath decides the config file path: explicit flag first, then the
// RELAYCTL_CONFIG environment variable, then <home>/relayctl.toml.
func ResolvePath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return filepath.Join(HomeDir(), "relayctl.toml")
}

// HomeDir returns the data directory: RELAYCTL_HOME when set, otherwise
// ~/.relayctl.
func HomeDir() string {
	if h := os.Getenv(EnvHome); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDirName
	}
	return filepath.Join(home, DefaultDirName)
}

// Load reads and validates the config file at path. A missing file is
// reported via service.ErrConfigMissing. The file is read once per
// invocation.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, service.ErrConfigMissing)
		}
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Home == "" {
		c.Home = HomeDir()
	}
	if c.Router.Command == "" {
		c.Router.Command = DefaultRouterCommand
	}
	if c.Router.HealthURL == "" {
		c.Router.HealthURL = DefaultRouterHealthURL
	}
	if c.Health.Attempts <= 0 {
		c.Health.Attempts = DefaultHealthAttempts
	}
	if c.Health.Interval <= 0 {
		c.Health.Interval = DefaultHealthInterval
	}
	if c.Health.Timeout <= 0 {
		c.Health.Timeout = DefaultHealthTimeout
	}
	if c.Stop.GracePeriod <= 0 {
		c.Stop.GracePeriod = DefaultGracePeriod
	}
	if c.Stop.KillWait <= 0 {
		c.Stop.KillWait = DefaultKillWait
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServeAddr
	}
}

func (c *Config) validate() error {
	seen := map[string]bool{"router": true}
	for _, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider with empty name")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate service name %q", p.Name)
		}
		seen[p.Name] = true
		if p.Enabled && p.Command == "" {
			return fmt.Errorf("provider %q enabled but has no command", p.Name)
		}
	}
	return nil
}

// PidDir returns the directory holding pid records.
func (c *Config) PidDir() string { return filepath.Join(c.Home, "pid") }

// LogDir returns the directory holding service log files.
func (c *Config) LogDir() string { return filepath.Join(c.Home, "logs") }

// HistoryDSN returns the DSN for the configured history backend, defaulting
// the sqlite path into the data directory.
func (c *Config) HistoryDSN() string {
	if c.History.DSN != "" {
		return c.History.DSN
	}
	if c.History.Backend == "sqlite" {
		return filepath.Join(c.Home, "history.db")
	}
	return ""
}

// SupervisorLog returns the slog configuration for the supervisor itself.
func (c *Config) SupervisorLog() logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		Color:      c.Log.Color,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
	}
}
