package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"smartpick.dev/smartpick/internal/engine"
	"smartpick.dev/smartpick/internal/utils"
)

// FileName is the config file inside the .git directory
const FileName = ".smartpick_config"

// Config holds the tunables of a smartpick repository
type Config struct {
	MaxCommitsDisplay        int  `json:"max_commits_display"`
	MaxSearchDepth           int  `json:"max_search_depth"`
	RenameDetectionThreshold int  `json:"rename_detection_threshold"`
	AutoAddDependencies      bool `json:"auto_add_dependencies"`
	RecordStats              bool `json:"record_stats"`
	ShowProgressBar          bool `json:"show_progress_bar"`
	MaxRetries               int  `json:"max_retries"`
	RetryDelay               int  `json:"retry_delay"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		MaxCommitsDisplay:        5,
		MaxSearchDepth:           100,
		RenameDetectionThreshold: 50,
		AutoAddDependencies:      false,
		RecordStats:              false,
		ShowProgressBar:          true,
		MaxRetries:               3,
		RetryDelay:               2,
	}
}

// Path returns the config file location for a .git directory
func Path(gitDir string) string {
	return filepath.Join(gitDir, FileName)
}

// Load reads the config from gitDir. Keys missing from the file keep their defaults.
func Load(gitDir string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(Path(gitDir))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to gitDir
func (c *Config) Save(gitDir string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return utils.WriteFileAtomic(Path(gitDir), append(data, '\n'), 0o600)
}

// Validate rejects values the engine cannot work with
func (c *Config) Validate() error {
	switch {
	case c.MaxSearchDepth <= 0:
		return fmt.Errorf("max_search_depth must be positive, got %d", c.MaxSearchDepth)
	case c.RenameDetectionThreshold < 0 || c.RenameDetectionThreshold > 100:
		return fmt.Errorf("rename_detection_threshold must be between 0 and 100, got %d", c.RenameDetectionThreshold)
	case c.MaxRetries < 0:
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	case c.RetryDelay < 0:
		return fmt.Errorf("retry_delay must not be negative, got %d", c.RetryDelay)
	case c.MaxCommitsDisplay < 0:
		return fmt.Errorf("max_commits_display must not be negative, got %d", c.MaxCommitsDisplay)
	}
	return nil
}

// EngineOptions returns the options that affect planning
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		MaxSearchDepth:      c.MaxSearchDepth,
		AutoAddDependencies: c.AutoAddDependencies,
		RenameThreshold:     c.RenameDetectionThreshold,
	}
}

// RetryDelayDuration returns retry_delay as a duration
func (c *Config) RetryDelayDuration() time.Duration {
	return time.Duration(c.RetryDelay) * time.Second
}

// Keys returns every config key in declaration order
func Keys() []string {
	t := reflect.TypeOf(Config{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		keys = append(keys, jsonKey(t.Field(i)))
	}
	return keys
}

// Get returns the value of key formatted for display
func (c *Config) Get(key string) (string, error) {
	field, err := c.field(key)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(field.Interface()), nil
}

// ApplyOverrides applies "key=value" pairs, coercing each value to the
// type of the field it sets. The result is validated as a whole.
func (c *Config) ApplyOverrides(overrides []string) error {
	for _, o := range overrides {
		key, value, ok := strings.Cut(o, "=")
		if !ok {
			return fmt.Errorf("invalid override %q, expected key=value", o)
		}
		if err := c.Set(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return err
		}
	}
	return c.Validate()
}

// Set assigns a single key from its string form
func (c *Config) Set(key, value string) error {
	field, err := c.field(key)
	if err != nil {
		return err
	}
	switch field.Kind() {
	case reflect.Bool:
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		field.SetBool(b)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %q is not a number", key, value)
		}
		field.SetInt(int64(n))
	default:
		return fmt.Errorf("unsupported config type for %s", key)
	}
	return nil
}

func (c *Config) field(key string) (reflect.Value, error) {
	v := reflect.ValueOf(c).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if jsonKey(t.Field(i)) == key {
			return v.Field(i), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys(), ", "))
}

func jsonKey(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	return name
}

func parseBool(value string) (bool, error) {
	v := strings.ToLower(value)
	if slices.Contains([]string{"true", "yes", "y", "1", "t", "on"}, v) {
		return true, nil
	}
	if slices.Contains([]string{"false", "no", "n", "0", "f", "off"}, v) {
		return false, nil
	}
	return false, fmt.Errorf("%q is not a boolean", value)
}
