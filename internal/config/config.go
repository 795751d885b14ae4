// Package config loads telwatch settings from a TOML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/telwatch/internal/history"
	"github.com/theirongolddev/telwatch/internal/logging"
	"github.com/theirongolddev/telwatch/internal/util"
)

// MinPollInterval is the shortest poll interval accepted from config
const MinPollInterval = 100 * time.Millisecond

// Config is the complete telwatch configuration
type Config struct {
	Device  DeviceConfig  `toml:"device"`
	Monitor MonitorConfig `toml:"monitor"`
	Server  ServerConfig  `toml:"server"`
	History HistoryConfig `toml:"history"`
	Caller  CallerConfig  `toml:"caller"`
	Log     LogConfig     `toml:"log"`
}

// DeviceConfig selects the phone and how adb reaches it
type DeviceConfig struct {
	ADBPath        string `toml:"adb_path"`
	Serial         string `toml:"serial"`
	Remote         string `toml:"remote"`          // ssh user@host with the device attached, empty for local
	ConnectAddress string `toml:"connect_address"` // host:port for adb connect, empty to skip
	ConnectRetries int    `toml:"connect_retries"`
	ConnectBackoff string `toml:"connect_backoff"`
	CommandTimeout string `toml:"command_timeout"`
}

// MonitorConfig holds poller settings
type MonitorConfig struct {
	PollInterval string `toml:"poll_interval"`
}

// ServerConfig holds HTTP settings
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// HistoryConfig holds call log settings
type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// CallerConfig holds caller number formatting settings
type CallerConfig struct {
	Region string `toml:"region"` // ISO 3166 region for numbers without a country code
}

// LogConfig holds logger settings
type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// DefaultPath returns the default config file path
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "telwatch", "config.toml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "telwatch", "config.toml")
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			ADBPath:        "adb",
			ConnectRetries: 3,
			ConnectBackoff: "2s",
			CommandTimeout: "5s",
		},
		Monitor: MonitorConfig{PollInterval: "500ms"},
		Server:  ServerConfig{Addr: ":8080"},
		History: HistoryConfig{Enabled: true, Path: history.DefaultPath()},
		Caller:  CallerConfig{Region: "US"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads the config at path (DefaultPath when empty). A missing file
// yields the defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// applyDefaults fills values the file set to empty
func applyDefaults(cfg *Config) {
	defaults := Default()
	if cfg.Device.ADBPath == "" {
		cfg.Device.ADBPath = defaults.Device.ADBPath
	}
	if cfg.Device.ConnectRetries <= 0 {
		cfg.Device.ConnectRetries = defaults.Device.ConnectRetries
	}
	if cfg.Device.ConnectBackoff == "" {
		cfg.Device.ConnectBackoff = defaults.Device.ConnectBackoff
	}
	if cfg.Device.CommandTimeout == "" {
		cfg.Device.CommandTimeout = defaults.Device.CommandTimeout
	}
	if cfg.Monitor.PollInterval == "" {
		cfg.Monitor.PollInterval = defaults.Monitor.PollInterval
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaults.Server.Addr
	}
	if cfg.History.Path == "" {
		cfg.History.Path = defaults.History.Path
	}
	if strings.HasPrefix(cfg.History.Path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.History.Path = filepath.Join(home, cfg.History.Path[2:])
		}
	}
	if cfg.Caller.Region == "" {
		cfg.Caller.Region = defaults.Caller.Region
	}
	cfg.Caller.Region = strings.ToUpper(cfg.Caller.Region)
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// applyEnvOverrides applies TELWATCH_* environment variables
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TELWATCH_SERIAL"); v != "" {
		cfg.Device.Serial = v
	}
	if v := os.Getenv("TELWATCH_REMOTE"); v != "" {
		cfg.Device.Remote = v
	}
	if v := os.Getenv("TELWATCH_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TELWATCH_POLL_INTERVAL"); v != "" {
		cfg.Monitor.PollInterval = v
	}
	if v := os.Getenv("TELWATCH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TELWATCH_HISTORY"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.History.Enabled = enabled
		}
	}
}

// Validate checks values that are parsed lazily
func (c *Config) Validate() error {
	if _, err := c.PollInterval(); err != nil {
		return err
	}
	if _, err := util.ParseDuration(c.Device.ConnectBackoff); err != nil {
		return fmt.Errorf("device.connect_backoff: %w", err)
	}
	if _, err := util.ParseDuration(c.Device.CommandTimeout); err != nil {
		return fmt.Errorf("device.command_timeout: %w", err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if len(c.Caller.Region) != 2 {
		return fmt.Errorf("caller.region: %q is not a two-letter region code", c.Caller.Region)
	}
	return nil
}

// PollInterval returns the parsed poll interval. Values below
// MinPollInterval are raised to it.
func (c *Config) PollInterval() (time.Duration, error) {
	d, err := util.ParseDuration(c.Monitor.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("monitor.poll_interval: %w", err)
	}
	if d < MinPollInterval {
		d = MinPollInterval
	}
	return d, nil
}

// ConnectBackoff returns the parsed adb connect backoff
func (c *Config) ConnectBackoff() time.Duration {
	d, err := util.ParseDuration(c.Device.ConnectBackoff)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// CommandTimeout returns the parsed per-command adb timeout
func (c *Config) CommandTimeout() time.Duration {
	d, err := util.ParseDuration(c.Device.CommandTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// CreateDefault creates a default config file
func CreateDefault() (string, error) {
	path := DefaultPath()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := Print(Default(), f); err != nil {
		return "", err
	}
	return path, nil
}

// Print writes config to a writer in TOML format
func Print(cfg *Config, w io.Writer) error {
	fmt.Fprintln(w, "# telwatch configuration")
	fmt.Fprintln(w, "# Environment overrides: TELWATCH_SERIAL, TELWATCH_REMOTE, TELWATCH_ADDR,")
	fmt.Fprintln(w, "# TELWATCH_POLL_INTERVAL, TELWATCH_LOG_LEVEL, TELWATCH_HISTORY")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[device]")
	fmt.Fprintln(w, "# adb binary; on a remote host this is resolved there")
	fmt.Fprintf(w, "adb_path = %q\n", cfg.Device.ADBPath)
	if cfg.Device.Serial != "" {
		fmt.Fprintf(w, "serial = %q\n", cfg.Device.Serial)
	} else {
		fmt.Fprintln(w, "# serial = \"emulator-5554\"  # required when several devices are attached")
	}
	if cfg.Device.Remote != "" {
		fmt.Fprintf(w, "remote = %q\n", cfg.Device.Remote)
	} else {
		fmt.Fprintln(w, "# remote = \"pi@phonehost\"  # run adb over ssh")
	}
	if cfg.Device.ConnectAddress != "" {
		fmt.Fprintf(w, "connect_address = %q\n", cfg.Device.ConnectAddress)
	} else {
		fmt.Fprintln(w, "# connect_address = \"192.168.1.20:5555\"  # adb over TCP")
	}
	fmt.Fprintf(w, "connect_retries = %d\n", cfg.Device.ConnectRetries)
	fmt.Fprintf(w, "connect_backoff = %q\n", cfg.Device.ConnectBackoff)
	fmt.Fprintf(w, "command_timeout = %q\n", cfg.Device.CommandTimeout)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[monitor]")
	fmt.Fprintln(w, "# How often the telecom dump is captured (minimum 100ms)")
	fmt.Fprintf(w, "poll_interval = %q\n", cfg.Monitor.PollInterval)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[server]")
	fmt.Fprintf(w, "addr = %q\n", cfg.Server.Addr)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[history]")
	fmt.Fprintln(w, "# Finished calls are logged to a local SQLite database")
	fmt.Fprintf(w, "enabled = %t\n", cfg.History.Enabled)
	fmt.Fprintf(w, "path = %q\n", cfg.History.Path)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[caller]")
	fmt.Fprintln(w, "# Region used to format numbers that lack a country code")
	fmt.Fprintf(w, "region = %q\n", cfg.Caller.Region)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[log]")
	fmt.Fprintln(w, "# debug, info, warn, error")
	fmt.Fprintf(w, "level = %q\n", cfg.Log.Level)
	fmt.Fprintf(w, "development = %t\n", cfg.Log.Development)

	return nil
}
