package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PietroNarcisi/NostressAI/internal/fileutil"
	"github.com/PietroNarcisi/NostressAI/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength     = 4096
	MaxURLLength      = 2048 // Browser limit
	MaxDSNLength      = 4096
	MaxThemeLength    = 50
	MaxLanguageLength = 30
	MaxLanguages      = 64
	MaxAddrLength     = 255
	MaxExcerptLength  = 10000
	MaxWorkers        = 16
)

// Store drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// appName is the directory under the user config dir searched for configs.
const appName = "nostress"

// Config holds the settings of the CLI and server.
type Config struct {
	Content   ContentConfig   `yaml:"content"`
	Store     StoreConfig     `yaml:"store"`
	Excerpt   ExcerptConfig   `yaml:"excerpt"`
	Highlight HighlightConfig `yaml:"highlight"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Workers   int             `yaml:"workers"` // 0 = automatic
}

// ContentConfig locates the flat-file content tree.
type ContentConfig struct {
	Dir          string `yaml:"dir"`
	AssetBaseURL string `yaml:"assetBaseURL"` // Empty = leave relative targets untouched
}

// StoreConfig selects the document store backing.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "file" or "sqlite"
	DSN    string `yaml:"dsn"`    // SQLite database path
}

// ExcerptConfig sets excerpt lengths in UTF-16 code units.
type ExcerptConfig struct {
	ListLength   int `yaml:"listLength"`
	DetailLength int `yaml:"detailLength"`
}

// HighlightConfig selects code highlighting themes and languages.
type HighlightConfig struct {
	Light     string   `yaml:"light"`
	Dark      string   `yaml:"dark"`
	Languages []string `yaml:"languages"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	BaseURL string `yaml:"baseURL"`
	Watch   bool   `yaml:"watch"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// Validate checks field lengths and ranges.
// Called automatically by LoadConfig, but available for callers that
// build a Config by hand or merge overrides into one.
func (c *Config) Validate() error {
	if err := validateFieldLength("content.dir", c.Content.Dir, MaxPathLength); err != nil {
		return err
	}
	if err := validateURL("content.assetBaseURL", c.Content.AssetBaseURL); err != nil {
		return err
	}

	switch strings.ToLower(c.Store.Driver) {
	case "", DriverFile:
	case DriverSQLite:
		if c.Store.DSN == "" {
			return fmt.Errorf("%w: store.dsn: required when store.driver is sqlite", ErrInvalidValue)
		}
	default:
		return fmt.Errorf("%w: store.driver: %q (must be file or sqlite)", ErrInvalidValue, c.Store.Driver)
	}
	if err := validateFieldLength("store.dsn", c.Store.DSN, MaxDSNLength); err != nil {
		return err
	}

	if err := validateRange("excerpt.listLength", c.Excerpt.ListLength, 0, MaxExcerptLength); err != nil {
		return err
	}
	if err := validateRange("excerpt.detailLength", c.Excerpt.DetailLength, 0, MaxExcerptLength); err != nil {
		return err
	}

	if err := validateFieldLength("highlight.light", c.Highlight.Light, MaxThemeLength); err != nil {
		return err
	}
	if err := validateFieldLength("highlight.dark", c.Highlight.Dark, MaxThemeLength); err != nil {
		return err
	}
	if len(c.Highlight.Languages) > MaxLanguages {
		return fmt.Errorf("%w: highlight.languages: %d entries, max %d", ErrInvalidValue, len(c.Highlight.Languages), MaxLanguages)
	}
	for i, lang := range c.Highlight.Languages {
		if err := validateFieldLength(fmt.Sprintf("highlight.languages[%d]", i), lang, MaxLanguageLength); err != nil {
			return err
		}
	}

	if err := validateFieldLength("server.addr", c.Server.Addr, MaxAddrLength); err != nil {
		return err
	}
	if err := validateURL("server.baseURL", c.Server.BaseURL); err != nil {
		return err
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level: %q (must be debug, info, warn, or error)", ErrInvalidValue, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: log.format: %q (must be console or json)", ErrInvalidValue, c.Log.Format)
	}

	return validateRange("workers", c.Workers, 0, MaxWorkers)
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

func validateRange(fieldName string, value, lo, hi int) error {
	if value < lo || value > hi {
		return fmt.Errorf("%w: %s: must be between %d and %d, got %d", ErrInvalidValue, fieldName, lo, hi, value)
	}
	return nil
}

// validateURL accepts empty values and absolute http(s) URLs.
func validateURL(fieldName, value string) error {
	if value == "" {
		return nil
	}
	if err := validateFieldLength(fieldName, value, MaxURLLength); err != nil {
		return err
	}
	if !fileutil.IsURL(value) {
		return fmt.Errorf("%w: %s: %q is not an absolute http(s) URL", ErrInvalidValue, fieldName, value)
	}
	u, err := url.Parse(value)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: %s: %q is not an absolute http(s) URL", ErrInvalidValue, fieldName, value)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Content: ContentConfig{Dir: "content"},
		Store:   StoreConfig{Driver: DriverFile},
		Server:  ServerConfig{Addr: ":8080", BaseURL: "https://www.nostress.ai"},
		Log:     LogConfig{Level: "info", Format: "console"},
	}
}

// ApplyDefaults fills empty fields from DefaultConfig.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Content.Dir == "" {
		c.Content.Dir = d.Content.Dir
	}
	if c.Store.Driver == "" {
		c.Store.Driver = d.Store.Driver
	}
	c.Store.Driver = strings.ToLower(c.Store.Driver)
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = d.Server.BaseURL
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields absent from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, <user config dir>/nostress/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, appName, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
