package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix  = "CLIPDECK_"
	configFile = "config.yaml"
)

// Config is the user configuration stored in ~/.clipdeck/config.yaml
type Config struct {
	DatabasePath      string     `yaml:"database_path,omitempty" json:"database_path,omitempty" jsonschema:"description=Path to the history database"`
	HistoryLimit      int        `yaml:"history_limit" json:"history_limit" jsonschema:"minimum=1,default=1000"`
	MaskSensitive     bool       `yaml:"mask_sensitive" json:"mask_sensitive"`
	CurrentCollection string     `yaml:"current_collection,omitempty" json:"current_collection,omitempty"`
	List              ListConfig `yaml:"list" json:"list"`
	Onboarded         bool       `yaml:"onboarded" json:"onboarded"`
}

// ListConfig tunes the virtualized history list.
type ListConfig struct {
	RowCacheSize    int `yaml:"row_cache_size" json:"row_cache_size" jsonschema:"minimum=1,default=500"`
	DefaultRowLines int `yaml:"default_row_lines" json:"default_row_lines" jsonschema:"minimum=1,default=1"`
	MaxRowLines     int `yaml:"max_row_lines" json:"max_row_lines" jsonschema:"minimum=1,default=3"`
	BatchSize       int `yaml:"batch_size" json:"batch_size" jsonschema:"minimum=1,default=50"`
	BatchDelayMS    int `yaml:"batch_delay_ms" json:"batch_delay_ms" jsonschema:"minimum=0,default=16"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		HistoryLimit: 1000,
		List: ListConfig{
			RowCacheSize:    500,
			DefaultRowLines: 1,
			MaxRowLines:     3,
			BatchSize:       50,
			BatchDelayMS:    16,
		},
	}
}

// BatchDelay returns the configured pause between batches. A zero setting
// returns a negative duration, which batch processors read as "no pause".
func (l ListConfig) BatchDelay() time.Duration {
	if l.BatchDelayMS == 0 {
		return -1
	}
	return time.Duration(l.BatchDelayMS) * time.Millisecond
}

// GetConfigDir returns the clipdeck home, honouring CLIPDECK_HOME.
func GetConfigDir() (string, error) {
	if dir := os.Getenv(envPrefix + "HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".clipdeck"), nil
}

// GetConfigPath returns the path of the config file.
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// ResolveDatabasePath resolves where the history database lives.
func (c *Config) ResolveDatabasePath() (string, error) {
	if c.DatabasePath != "" {
		return expandHome(c.DatabasePath)
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// Load reads the config file, falling back to defaults, then applies
// CLIPDECK_* environment overrides.
func Load() (*Config, error) {
	cfg := Default()

	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// Save writes the config file, creating the directory if needed.
func (c *Config) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// IsFirstLaunch reports whether no config file has been written yet.
func IsFirstLaunch() (bool, error) {
	path, err := GetConfigPath()
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	return false, err
}

// Set updates a setting by its yaml key, as used by the update_setting
// command. Nested list settings use a "list." prefix.
func (c *Config) Set(key, value string) error {
	// Parse before assigning so a rejected value leaves the field alone.
	setInt := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("setting %s expects a number: %w", key, err)
		}
		*dst = n
		return nil
	}

	var err error
	switch key {
	case "database_path":
		c.DatabasePath = value
	case "history_limit":
		err = setInt(&c.HistoryLimit)
	case "mask_sensitive":
		var b bool
		if b, err = strconv.ParseBool(value); err != nil {
			err = fmt.Errorf("setting %s expects true or false: %w", key, err)
		} else {
			c.MaskSensitive = b
		}
	case "current_collection":
		c.CurrentCollection = value
	case "list.row_cache_size":
		err = setInt(&c.List.RowCacheSize)
	case "list.default_row_lines":
		err = setInt(&c.List.DefaultRowLines)
	case "list.max_row_lines":
		err = setInt(&c.List.MaxRowLines)
	case "list.batch_size":
		err = setInt(&c.List.BatchSize)
	case "list.batch_delay_ms":
		err = setInt(&c.List.BatchDelayMS)
	default:
		return fmt.Errorf("unknown setting: %s", key)
	}
	if err != nil {
		return err
	}
	c.normalize()
	return nil
}

// Schema returns the JSON schema describing the config file.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{DoNotReference: true}
	s := r.Reflect(&Config{})
	s.Title = "clipdeck configuration"
	return json.MarshalIndent(s, "", "  ")
}

// GetEnvVarName maps a config key to its environment variable.
func GetEnvVarName(key string) string {
	key = strings.ReplaceAll(key, ".", "_")
	return envPrefix + strings.ToUpper(key)
}

// GetEnv reads a CLIPDECK_* variable.
func GetEnv(key string) string {
	return os.Getenv(GetEnvVarName(key))
}

func (c *Config) applyEnv() {
	for _, key := range []string{
		"database_path",
		"history_limit",
		"mask_sensitive",
		"list.row_cache_size",
		"list.batch_size",
		"list.batch_delay_ms",
	} {
		if v := GetEnv(key); v != "" {
			// Invalid values keep the file setting.
			_ = c.Set(key, v)
		}
	}
}

func (c *Config) normalize() {
	d := Default()
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = d.HistoryLimit
	}
	if c.List.RowCacheSize <= 0 {
		c.List.RowCacheSize = d.List.RowCacheSize
	}
	if c.List.DefaultRowLines <= 0 {
		c.List.DefaultRowLines = d.List.DefaultRowLines
	}
	if c.List.MaxRowLines < c.List.DefaultRowLines {
		c.List.MaxRowLines = c.List.DefaultRowLines
	}
	if c.List.BatchSize <= 0 {
		c.List.BatchSize = d.List.BatchSize
	}
	if c.List.BatchDelayMS < 0 {
		c.List.BatchDelayMS = d.List.BatchDelayMS
	}
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
