// Package config loads the dupwatch YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lexandro/dupwatch/store"
)

// DefaultFileName is looked up in the current directory when --config is not given.
const DefaultFileName = "dupwatch.yaml"

// DefaultSMTPPort is used when email.port is unset.
const DefaultSMTPPort = 587

// ErrNotFound is returned by Load when the configuration file does not exist.
var ErrNotFound = errors.New("config file not found")

// Error is a configuration file that exists but cannot be used.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Config is the dupwatch configuration.
type Config struct {
	// IgnorePaths excludes every path containing one of these substrings
	IgnorePaths []string `yaml:"ignore_paths"`

	// IgnorePatterns are doublestar globs matched against root-relative paths and basenames
	IgnorePatterns []string `yaml:"ignore_patterns,omitempty"`

	WorkingDir string `yaml:"working_dir"`

	// DeleteScore lists path substrings; a later entry marks a more valuable location
	DeleteScore []string `yaml:"delete_score"`

	// Action: D (delete), T (test), S (stop after test), anything else reports only
	Action string `yaml:"action"`

	// Watchdog keeps running after the initial scan and reacts to file changes
	Watchdog bool `yaml:"watchdog"`

	Debounce       string `yaml:"debounce,omitempty"`        // e.g. "2s"
	ResyncInterval string `yaml:"resync_interval,omitempty"` // e.g. "1h"; empty disables

	Store StoreConfig `yaml:"store"`
	Email EmailConfig `yaml:"email,omitempty"`

	MetricsAddr string `yaml:"metrics_addr,omitempty"` // e.g. ":9090"; empty disables
	LogLevel    string `yaml:"log_level,omitempty"`
	LogFile     string `yaml:"log_file,omitempty"`

	// Parsed by Validate.
	DebounceInterval time.Duration `yaml:"-"`
	ResyncEvery      time.Duration `yaml:"-"`
}

// StoreConfig selects the hash store backend.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path,omitempty"`
	DSN     string `yaml:"dsn,omitempty"`
}

// EmailConfig configures report delivery over SMTP.
type EmailConfig struct {
	To       string `yaml:"to,omitempty"`
	From     string `yaml:"from,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Hostname string `yaml:"hostname,omitempty"`
	Port     int    `yaml:"port,omitempty"`
}

// Enabled reports whether enough is set to send mail.
func (e EmailConfig) Enabled() bool {
	return e.To != "" && e.Hostname != ""
}

// Default returns the configuration used for unset keys.
func Default() *Config {
	return &Config{
		WorkingDir: ".",
		Action:     "T",
		Debounce:   "2s",
		Store: StoreConfig{
			Backend: store.BackendSQLite,
			Path:    store.DefaultSQLitePath,
		},
		Email:            EmailConfig{Port: DefaultSMTPPort},
		LogLevel:         "info",
		DebounceInterval: 2 * time.Second,
	}
}

// Load reads path over the defaults and validates the result.
// A missing file yields an error wrapping ErrNotFound; anything else unusable is *Error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, &Error{Path: path, Err: fmt.Errorf("reading config file: %w", err)}
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("parsing YAML: %w", err)}
	}
	if err := config.Validate(); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return config, nil
}

// Validate checks the values and fills the parsed duration fields.
func (c *Config) Validate() error {
	if c.WorkingDir == "" {
		c.WorkingDir = "."
	}
	if c.Email.Port == 0 {
		c.Email.Port = DefaultSMTPPort
	}

	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	switch c.Store.Backend {
	case "":
		c.Store.Backend = store.BackendSQLite
	case store.BackendSQLite, store.BackendMemory, store.BackendBleve:
	case store.BackendPostgres:
		if c.Store.DSN == "" {
			return errors.New("store.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == store.BackendSQLite && c.Store.Path == "" {
		c.Store.Path = store.DefaultSQLitePath
	}

	var err error
	if c.DebounceInterval, err = parseDuration("debounce", c.Debounce); err != nil {
		return err
	}
	if c.ResyncEvery, err = parseDuration("resync_interval", c.ResyncInterval); err != nil {
		return err
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// StoreOptions converts the store section for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{Backend: c.Store.Backend, Path: c.Store.Path, DSN: c.Store.DSN}
}

// WriteDefault writes a starter configuration file. Existing files are not overwritten.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing config file: %w", err)
	}
	return f.Close()
}

func parseDuration(key, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", key, value)
	}
	return d, nil
}
