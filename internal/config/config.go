// Package config provides layered configuration for empdex.
//
// Configuration is applied in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/empdex/config.yaml)
//  3. Project config (.empdex.yaml in the working directory)
//  4. Environment variables (EMPDEX_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete empdex configuration.
type Config struct {
	Version       int                 `yaml:"version" json:"version"`
	DataDir       string              `yaml:"data_dir" json:"data_dir"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch" json:"elasticsearch"`
	CSV           CSVConfig           `yaml:"csv" json:"csv"`
	Collections   CollectionsConfig   `yaml:"collections" json:"collections"`
	Ingest        IngestConfig        `yaml:"ingest" json:"ingest"`
	Watch         WatchConfig         `yaml:"watch" json:"watch"`
	Journal       JournalConfig       `yaml:"journal" json:"journal"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
}

// ElasticsearchConfig configures the search engine connection.
type ElasticsearchConfig struct {
	// Addresses are the cluster endpoints.
	Addresses []string `yaml:"addresses" json:"addresses"`
	// Username and Password enable basic auth when set.
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	// Timeout is the per-request timeout (e.g. "30s").
	Timeout string `yaml:"timeout" json:"timeout"`
}

// CSVConfig configures the employee CSV source.
type CSVConfig struct {
	// Path is the CSV file to ingest.
	Path string `yaml:"path" json:"path"`
	// Encoding is the text encoding of the file (iso-8859-1 or utf-8).
	Encoding string `yaml:"encoding" json:"encoding"`
}

// CollectionsConfig names the collections the demo sequence targets.
type CollectionsConfig struct {
	// Primary is the main employee collection.
	Primary string `yaml:"primary" json:"primary"`
	// Secondary is the second collection used by the demo sequence.
	Secondary string `yaml:"secondary" json:"secondary"`
}

// IngestConfig configures document indexing behaviour.
type IngestConfig struct {
	// Refresh is the refresh policy for index and delete calls
	// ("true", "false", or "wait_for"). "true" keeps counts exact
	// right after an ingest or delete.
	Refresh string `yaml:"refresh" json:"refresh"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce is how long to wait after the last file event before
	// re-ingesting (e.g. "500ms").
	Debounce string `yaml:"debounce" json:"debounce"`
	// PollInterval is the fallback polling interval when fsnotify is
	// unavailable (e.g. "2s").
	PollInterval string `yaml:"poll_interval" json:"poll_interval"`
	// ForcePoll forces polling even when fsnotify works.
	ForcePoll bool `yaml:"force_poll" json:"force_poll"`
}

// JournalConfig configures the local run journal.
type JournalConfig struct {
	// Disabled turns the journal off. The zero value keeps it on.
	Disabled bool `yaml:"disabled" json:"disabled"`
	// Path overrides the journal database location. Empty means
	// <data_dir>/journal.db.
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig configures the structured log trail.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	File      string `yaml:"file" json:"file"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		DataDir: DefaultDataDir(),
		Elasticsearch: ElasticsearchConfig{
			Addresses: []string{"http://localhost:9200"},
			Timeout:   "30s",
		},
		CSV: CSVConfig{
			Path:     "employee_data.csv",
			Encoding: "iso-8859-1",
		},
		Collections: CollectionsConfig{
			Primary:   "employees",
			Secondary: "employees-alt",
		},
		Ingest: IngestConfig{
			Refresh: "true",
		},
		Watch: WatchConfig{
			Debounce:     "500ms",
			PollInterval: "2s",
		},
		Journal: JournalConfig{},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// DefaultDataDir returns the default data directory (~/.empdex).
// Falls back to temp directory if home directory is unavailable.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".empdex")
	}
	return filepath.Join(home, ".empdex")
}

// JournalPath returns the effective journal database path.
func (c *Config) JournalPath() string {
	if c.Journal.Path != "" {
		return c.Journal.Path
	}
	return filepath.Join(c.DataDir, "journal.db")
}

// LockPath returns the path of the ingest lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, "ingest.lock")
}

// RequestTimeout returns the parsed Elasticsearch request timeout.
func (c *ElasticsearchConfig) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// DebounceDuration returns the parsed watch debounce interval.
func (c *WatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// PollIntervalDuration returns the parsed polling fallback interval.
func (c *WatchConfig) PollIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/empdex/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/empdex/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "empdex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "empdex", "config.yaml")
	}
	return filepath.Join(home, ".config", "empdex", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist (that's OK).
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()

	if !fileExists(configPath) {
		return nil, nil // No user config is fine
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}

	return cfg, nil
}

// Load loads configuration from the specified directory.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .empdex.yaml or .empdex.yml.
func (c *Config) loadFromFile(dir string) error {
	// .yaml takes precedence
	yamlPath := filepath.Join(dir, ".empdex.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".empdex.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine - use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}

	// Elasticsearch
	if len(other.Elasticsearch.Addresses) > 0 {
		c.Elasticsearch.Addresses = other.Elasticsearch.Addresses
	}
	if other.Elasticsearch.Username != "" {
		c.Elasticsearch.Username = other.Elasticsearch.Username
	}
	if other.Elasticsearch.Password != "" {
		c.Elasticsearch.Password = other.Elasticsearch.Password
	}
	if other.Elasticsearch.Timeout != "" {
		c.Elasticsearch.Timeout = other.Elasticsearch.Timeout
	}

	// CSV
	if other.CSV.Path != "" {
		c.CSV.Path = other.CSV.Path
	}
	if other.CSV.Encoding != "" {
		c.CSV.Encoding = other.CSV.Encoding
	}

	// Collections
	if other.Collections.Primary != "" {
		c.Collections.Primary = other.Collections.Primary
	}
	if other.Collections.Secondary != "" {
		c.Collections.Secondary = other.Collections.Secondary
	}

	// Ingest
	if other.Ingest.Refresh != "" {
		c.Ingest.Refresh = other.Ingest.Refresh
	}

	// Watch
	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Watch.PollInterval != "" {
		c.Watch.PollInterval = other.Watch.PollInterval
	}
	if other.Watch.ForcePoll {
		c.Watch.ForcePoll = true
	}

	// Journal. Disabled has false as its zero value, so a config file
	// can only switch the journal off, matching the on-by-default rule.
	if other.Journal.Disabled {
		c.Journal.Disabled = true
	}
	if other.Journal.Path != "" {
		c.Journal.Path = other.Journal.Path
	}

	// Logging
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
}

// applyEnvOverrides applies EMPDEX_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("EMPDEX_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("EMPDEX_ES_ADDRESSES"); v != "" {
		var addrs []string
		for _, a := range strings.Split(v, ",") {
			if a = strings.TrimSpace(a); a != "" {
				addrs = append(addrs, a)
			}
		}
		if len(addrs) > 0 {
			c.Elasticsearch.Addresses = addrs
		}
	}
	if v := os.Getenv("EMPDEX_ES_USERNAME"); v != "" {
		c.Elasticsearch.Username = v
	}
	if v := os.Getenv("EMPDEX_ES_PASSWORD"); v != "" {
		c.Elasticsearch.Password = v
	}
	if v := os.Getenv("EMPDEX_CSV_PATH"); v != "" {
		c.CSV.Path = v
	}
	if v := os.Getenv("EMPDEX_CSV_ENCODING"); v != "" {
		c.CSV.Encoding = v
	}
	if v := os.Getenv("EMPDEX_REFRESH"); v != "" {
		c.Ingest.Refresh = v
	}
	if v := os.Getenv("EMPDEX_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("EMPDEX_JOURNAL_DISABLED"); v != "" {
		c.Journal.Disabled = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("EMPDEX_WATCH_DEBOUNCE"); v != "" {
		c.Watch.Debounce = v
	}
}

// FindProjectRoot finds the project root directory.
// It looks for a .git directory or .empdex.yaml/.yml file by walking up
// the directory tree, falling back to the starting directory.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}

		if fileExists(filepath.Join(currentDir, ".empdex.yaml")) ||
			fileExists(filepath.Join(currentDir, ".empdex.yml")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if len(c.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("elasticsearch.addresses must not be empty")
	}
	for _, a := range c.Elasticsearch.Addresses {
		if !strings.HasPrefix(a, "http://") && !strings.HasPrefix(a, "https://") {
			return fmt.Errorf("elasticsearch address must start with http:// or https://, got %s", a)
		}
	}
	if c.Elasticsearch.Timeout != "" {
		if _, err := time.ParseDuration(c.Elasticsearch.Timeout); err != nil {
			return fmt.Errorf("elasticsearch.timeout is not a valid duration: %s", c.Elasticsearch.Timeout)
		}
	}

	if c.CSV.Path == "" {
		return fmt.Errorf("csv.path must not be empty")
	}
	validEncodings := map[string]bool{"iso-8859-1": true, "latin-1": true, "utf-8": true}
	if !validEncodings[strings.ToLower(c.CSV.Encoding)] {
		return fmt.Errorf("csv.encoding must be 'iso-8859-1', 'latin-1', or 'utf-8', got %s", c.CSV.Encoding)
	}

	if c.Collections.Primary == "" {
		return fmt.Errorf("collections.primary must not be empty")
	}
	if c.Collections.Secondary == "" {
		return fmt.Errorf("collections.secondary must not be empty")
	}

	validRefresh := map[string]bool{"true": true, "false": true, "wait_for": true}
	if !validRefresh[strings.ToLower(c.Ingest.Refresh)] {
		return fmt.Errorf("ingest.refresh must be 'true', 'false', or 'wait_for', got %s", c.Ingest.Refresh)
	}

	if c.Watch.Debounce != "" {
		if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
			return fmt.Errorf("watch.debounce is not a valid duration: %s", c.Watch.Debounce)
		}
	}
	if c.Watch.PollInterval != "" {
		if _, err := time.ParseDuration(c.Watch.PollInterval); err != nil {
			return fmt.Errorf("watch.poll_interval is not a valid duration: %s", c.Watch.PollInterval)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// MergeNewDefaults adds new default fields while preserving existing values.
// Returns a list of field names that were added with their default values.
func (c *Config) MergeNewDefaults() []string {
	defaults := NewConfig()
	var added []string

	// Elasticsearch - request timeout
	if c.Elasticsearch.Timeout == "" {
		c.Elasticsearch.Timeout = defaults.Elasticsearch.Timeout
		added = append(added, "elasticsearch.timeout")
	}

	// Collections - the demo sequence needs a secondary collection
	if c.Collections.Secondary == "" {
		c.Collections.Secondary = defaults.Collections.Secondary
		added = append(added, "collections.secondary")
	}

	// Ingest - refresh policy
	if c.Ingest.Refresh == "" {
		c.Ingest.Refresh = defaults.Ingest.Refresh
		added = append(added, "ingest.refresh")
	}

	// Watch - debounce and polling intervals
	if c.Watch.Debounce == "" {
		c.Watch.Debounce = defaults.Watch.Debounce
		added = append(added, "watch.debounce")
	}
	if c.Watch.PollInterval == "" {
		c.Watch.PollInterval = defaults.Watch.PollInterval
		added = append(added, "watch.poll_interval")
	}
	// force_poll is boolean - can't distinguish "not set" from "set to
	// false", so it is never auto-migrated

	// Logging - rotation limits
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = defaults.Logging.MaxSizeMB
		added = append(added, "logging.max_size_mb")
	}
	if c.Logging.MaxFiles == 0 {
		c.Logging.MaxFiles = defaults.Logging.MaxFiles
		added = append(added, "logging.max_files")
	}

	return added
}
