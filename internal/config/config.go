// Package config loads journalq settings from files and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. JOURNALQ_TAIL_POLL_INTERVAL.
const EnvPrefix = "JOURNALQ"

// Config holds application configuration
type Config struct {
	// Global settings
	Format   string `mapstructure:"format" json:"format" yaml:"format" toml:"format"`
	Quiet    bool   `mapstructure:"quiet" json:"quiet" yaml:"quiet" toml:"quiet"`
	Verbose  bool   `mapstructure:"verbose" json:"verbose" yaml:"verbose" toml:"verbose"`
	LogLevel string `mapstructure:"log_level" json:"log_level" yaml:"log_level" toml:"log_level"`

	Journal JournalConfig `mapstructure:"journal" json:"journal" yaml:"journal" toml:"journal"`
	Tail    TailConfig    `mapstructure:"tail" json:"tail" yaml:"tail" toml:"tail"`
	Query   QueryConfig   `mapstructure:"query" json:"query" yaml:"query" toml:"query"`
}

// JournalConfig selects where and how journals are read
type JournalConfig struct {
	Path    string `mapstructure:"path" json:"path" yaml:"path" toml:"path"`             // empty: local system journal
	Backend string `mapstructure:"backend" json:"backend" yaml:"backend" toml:"backend"` // auto, native, export
}

// TailConfig holds tail command defaults
type TailConfig struct {
	PollInterval string `mapstructure:"poll_interval" json:"poll_interval" yaml:"poll_interval" toml:"poll_interval"`
	Since        string `mapstructure:"since" json:"since" yaml:"since" toml:"since"` // empty: from now
	StateFile    string `mapstructure:"state_file" json:"state_file" yaml:"state_file" toml:"state_file"`
}

// QueryConfig holds query command defaults
type QueryConfig struct {
	Since string `mapstructure:"since" json:"since" yaml:"since" toml:"since"`
	Limit int    `mapstructure:"limit" json:"limit" yaml:"limit" toml:"limit"`
}

// Meta records where the effective configuration came from.
type Meta struct {
	Path string   // config file used, empty when none
	Env  []string // environment variables that overrode a value
}

// Source describes Meta in one word.
func (m Meta) Source() string {
	switch {
	case m.Path != "" && len(m.Env) > 0:
		return "file+env"
	case m.Path != "":
		return "file"
	case len(m.Env) > 0:
		return "env"
	}
	return "defaults"
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Format:   "ndjson",
		LogLevel: "warn",
		Journal: JournalConfig{
			Backend: "auto",
		},
		Tail: TailConfig{
			PollInterval: "100ms",
		},
		Query: QueryConfig{
			Since: "5m",
			Limit: 1000,
		},
	}
}

// Load loads configuration from files and environment
// Config file search order (highest precedence first):
// 1. ./.journalq.yaml (or .yml, .toml)
// 2. ~/.journalq.yaml (or .yml, .toml)
// 3. $XDG_CONFIG_HOME/journalq/config.yaml (or ~/.config/journalq/config.yaml)
// 4. /etc/journalq/config.yaml
func Load() (*Config, error) {
	cfg, _, err := LoadWithMeta()
	return cfg, err
}

// LoadWithMeta is Load plus provenance.
func LoadWithMeta() (*Config, Meta, error) {
	return load(findConfigFile())
}

// LoadFromFile loads configuration from a specific file. Environment
// overrides still apply.
func LoadFromFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	cfg, _, err := load(path)
	return cfg, err
}

func load(path string) (*Config, Meta, error) {
	meta := Meta{Path: path}
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, meta, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, meta, fmt.Errorf("decode config: %w", err)
	}
	for _, key := range keys {
		name := envName(key)
		if _, ok := os.LookupEnv(name); ok {
			meta.Env = append(meta.Env, name)
		}
	}
	return cfg, meta, nil
}

// keys lists every setting; viper only consults the environment for keys
// it knows about.
var keys = []string{
	"format", "quiet", "verbose", "log_level",
	"journal.path", "journal.backend",
	"tail.poll_interval", "tail.since", "tail.state_file",
	"query.since", "query.limit",
}

func newViper() *viper.Viper {
	v := viper.New()
	d := Default()
	defaults := map[string]any{
		"format":             d.Format,
		"quiet":              d.Quiet,
		"verbose":            d.Verbose,
		"log_level":          d.LogLevel,
		"journal.path":       d.Journal.Path,
		"journal.backend":    d.Journal.Backend,
		"tail.poll_interval": d.Tail.PollInterval,
		"tail.since":         d.Tail.Since,
		"tail.state_file":    d.Tail.StateFile,
		"query.since":        d.Query.Since,
		"query.limit":        d.Query.Limit,
	}
	for _, k := range keys {
		v.SetDefault(k, defaults[k])
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if !slices.Contains([]string{"ndjson", "text"}, c.Format) {
		return fmt.Errorf("invalid format %q (want ndjson or text)", c.Format)
	}
	if c.Query.Limit < 0 {
		return fmt.Errorf("invalid query.limit %d", c.Query.Limit)
	}
	return nil
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	names := []string{".journalq.yaml", ".journalq.yml", ".journalq.toml"}

	var searchPaths []string
	if cwd, err := os.Getwd(); err == nil {
		searchPaths = append(searchPaths, cwd)
	}
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, home)
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(configDir, "journalq"))
	}
	searchPaths = append(searchPaths, "/etc/journalq")

	for _, dir := range searchPaths {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		// config.yaml only counts inside dedicated directories
		if filepath.Base(dir) != "journalq" {
			continue
		}
		for _, name := range []string{"config.yaml", "config.toml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	return ""
}

// ConfigFile returns the path to the config file that would be loaded
func ConfigFile() string {
	return findConfigFile()
}

// DefaultPath is where `config init` writes when no path is given.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "journalq", "config.toml"), nil
}
