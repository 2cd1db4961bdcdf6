// Package config loads the docstacker YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/georgepadayatti/docstacker/letterhead"
	"github.com/georgepadayatti/docstacker/logger"
	"github.com/georgepadayatti/docstacker/pdf/bridge"
	"github.com/georgepadayatti/docstacker/stamp"
	"github.com/georgepadayatti/docstacker/store"
)

// Common errors
var (
	ErrConfigurationError = errors.New("configuration error")
	ErrUnexpectedField    = errors.New("unexpected field in configuration")
	ErrInvalidConfigType  = errors.New("configuration must be a dictionary")
)

// ConfigError represents a configuration error with context.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	if e.Err == nil {
		return ErrConfigurationError
	}
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowed-origins"`
	MaxUploadMB     int64         `yaml:"max-upload-mb"`
	ReadTimeout     time.Duration `yaml:"read-timeout"`
	WriteTimeout    time.Duration `yaml:"write-timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout"`
}

// RenderConfig configures page rasterizing and letterhead compositing.
type RenderConfig struct {
	DPI            float64 `yaml:"dpi"`
	JPEGQuality    int     `yaml:"jpeg-quality"`
	Workers        int     `yaml:"workers"`
	WhiteThreshold int     `yaml:"white-threshold"`
	// Pdftoppm is the rasterizer binary, looked up on PATH when bare.
	Pdftoppm string `yaml:"pdftoppm"`
	// WorkDir holds scratch files. Empty uses the system temp directory.
	WorkDir string `yaml:"work-dir"`
}

// PlacementConfig sizes stamps behind signatures.
type PlacementConfig struct {
	StampScale          float64 `yaml:"stamp-scale"`
	MaxStampHeightRatio float64 `yaml:"max-stamp-height-ratio"`
	Margin              float64 `yaml:"margin"`
	SignatureOffsetX    float64 `yaml:"signature-offset-x"`
	SignatureOffsetY    float64 `yaml:"signature-offset-y"`
}

// StorageConfig selects the document store.
type StorageConfig struct {
	Driver        string        `yaml:"driver"`
	Dir           string        `yaml:"dir"`
	RedisAddr     string        `yaml:"redis-addr"`
	RedisPassword string        `yaml:"redis-password"`
	RedisDB       int           `yaml:"redis-db"`
	KeyPrefix     string        `yaml:"key-prefix"`
	DSN           string        `yaml:"dsn"`
	TTL           time.Duration `yaml:"ttl"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
}

// Config is the top-level configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Render    RenderConfig    `yaml:"render"`
	Placement PlacementConfig `yaml:"placement"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Default returns the built-in configuration.
func Default() *Config {
	lh := letterhead.DefaultOptions()
	l := stamp.DefaultLayout()
	s := store.DefaultOptions()
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"*"},
			MaxUploadMB:     50,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Render: RenderConfig{
			DPI:            lh.DPI,
			JPEGQuality:    lh.JPEGQuality,
			Workers:        lh.Workers,
			WhiteThreshold: int(lh.WhiteThreshold),
			Pdftoppm:       "pdftoppm",
		},
		Placement: PlacementConfig{
			StampScale:          l.Scale,
			MaxStampHeightRatio: l.MaxHeightRatio,
			Margin:              l.Margin,
			SignatureOffsetX:    l.OffsetX,
			SignatureOffsetY:    l.OffsetY,
		},
		Storage: StorageConfig{
			Driver:    s.Driver,
			Dir:       s.Dir,
			RedisAddr: s.RedisAddr,
			KeyPrefix: s.KeyPrefix,
		},
		Logging: LoggingConfig{Mode: "dev", Level: "info"},
	}
}

// Load reads and parses a configuration file.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML over the defaults, so missing keys keep their default
// values, and validates the result.
func Parse(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := CheckKeys(raw); err != nil {
		return nil, err
	}

	normalized, err := yaml.Marshal(normalizeKeys(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(normalized, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var sectionKeys = map[string][]string{
	"server":    {"addr", "allowed-origins", "max-upload-mb", "read-timeout", "write-timeout", "shutdown-timeout"},
	"render":    {"dpi", "jpeg-quality", "workers", "white-threshold", "pdftoppm", "work-dir"},
	"placement": {"stamp-scale", "max-stamp-height-ratio", "margin", "signature-offset-x", "signature-offset-y"},
	"storage":   {"driver", "dir", "redis-addr", "redis-password", "redis-db", "key-prefix", "dsn", "ttl"},
	"logging":   {"mode", "level"},
}

// CheckKeys rejects unknown sections and unknown keys inside a section.
// Underscores are accepted in place of dashes.
func CheckKeys(raw map[string]any) error {
	sections := make([]string, 0, len(sectionKeys))
	for name := range sectionKeys {
		sections = append(sections, name)
	}
	sort.Strings(sections)

	supplied := make([]string, 0, len(raw))
	for k := range raw {
		supplied = append(supplied, k)
	}
	sort.Strings(supplied)
	if err := CheckConfigKeys("docstacker", sections, supplied); err != nil {
		return err
	}

	for _, k := range supplied {
		if raw[k] == nil {
			continue
		}
		section, ok := raw[k].(map[string]any)
		if !ok {
			return &ConfigError{Field: k, Message: "must be a mapping", Err: ErrInvalidConfigType}
		}
		keys := make([]string, 0, len(section))
		for sk := range section {
			keys = append(keys, sk)
		}
		sort.Strings(keys)
		if err := CheckConfigKeys(k, sectionKeys[normalizeKey(k)], keys); err != nil {
			return err
		}
	}
	return nil
}

// CheckConfigKeys reports supplied keys that are not expected.
func CheckConfigKeys(configName string, expectedKeys, suppliedKeys []string) error {
	expectedSet := make(map[string]bool)
	for _, k := range expectedKeys {
		expectedSet[normalizeKey(k)] = true
	}

	var unexpected []string
	for _, k := range suppliedKeys {
		if !expectedSet[normalizeKey(k)] {
			unexpected = append(unexpected, k)
		}
	}

	if len(unexpected) > 0 {
		keyWord := "key"
		if len(unexpected) > 1 {
			keyWord = "keys"
		}
		return fmt.Errorf("%w: unexpected %s in configuration for %s: %s",
			ErrUnexpectedField, keyWord, configName, strings.Join(unexpected, ", "))
	}
	return nil
}

func normalizeKey(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// normalizeKeys rewrites section and key names to their dashed form.
func normalizeKeys(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if section, ok := v.(map[string]any); ok {
			v = normalizeKeys(section)
		}
		out[normalizeKey(k)] = v
	}
	return out
}

// Validate checks value ranges and cross-field requirements.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Server.Addr) == "":
		return NewConfigError("server.addr", "required field is missing")
	case c.Server.MaxUploadMB <= 0:
		return NewConfigError("server.max-upload-mb", "must be positive")
	case c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0:
		return NewConfigError("server", "timeouts cannot be negative")
	case c.Render.DPI <= 0 || c.Render.DPI > 1200:
		return NewConfigError("render.dpi", fmt.Sprintf("%v is outside (0, 1200]", c.Render.DPI))
	case c.Render.JPEGQuality < 1 || c.Render.JPEGQuality > 100:
		return NewConfigError("render.jpeg-quality", fmt.Sprintf("%d is outside [1, 100]", c.Render.JPEGQuality))
	case c.Render.Workers < 1:
		return NewConfigError("render.workers", "must be at least 1")
	case c.Render.WhiteThreshold < 0 || c.Render.WhiteThreshold > 255:
		return NewConfigError("render.white-threshold", fmt.Sprintf("%d is outside [0, 255]", c.Render.WhiteThreshold))
	case strings.TrimSpace(c.Render.Pdftoppm) == "":
		return NewConfigError("render.pdftoppm", "required field is missing")
	case c.Placement.StampScale <= 0:
		return NewConfigError("placement.stamp-scale", "must be positive")
	case c.Placement.MaxStampHeightRatio <= 0:
		return NewConfigError("placement.max-stamp-height-ratio", "must be positive")
	case c.Placement.Margin < 0:
		return NewConfigError("placement.margin", "cannot be negative")
	case !unit(c.Placement.SignatureOffsetX):
		return NewConfigError("placement.signature-offset-x", "must be within [0, 1]")
	case !unit(c.Placement.SignatureOffsetY):
		return NewConfigError("placement.signature-offset-y", "must be within [0, 1]")
	case c.Storage.TTL < 0:
		return NewConfigError("storage.ttl", "cannot be negative")
	}

	switch strings.ToLower(c.Storage.Driver) {
	case store.DriverMemory, store.DriverSQLite:
	case store.DriverFile:
		if c.Storage.Dir == "" {
			return NewConfigError("storage.dir", "required for the file driver")
		}
	case store.DriverRedis:
		if c.Storage.RedisAddr == "" {
			return NewConfigError("storage.redis-addr", "required for the redis driver")
		}
	case store.DriverPostgres:
		if c.Storage.DSN == "" {
			return NewConfigError("storage.dsn", "required for the postgres driver")
		}
	default:
		return NewConfigError("storage.driver", fmt.Sprintf("unknown driver %q", c.Storage.Driver))
	}

	switch c.Logging.Mode {
	case "dev", "prod":
	default:
		return NewConfigError("logging.mode", fmt.Sprintf("unknown mode %q", c.Logging.Mode))
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return &ConfigError{Field: "logging.level", Message: err.Error(), Err: err}
	}
	return nil
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}

// LetterheadOptions returns the compositor options.
func (c *Config) LetterheadOptions() *letterhead.Options {
	return &letterhead.Options{
		DPI:            c.Render.DPI,
		JPEGQuality:    c.Render.JPEGQuality,
		WhiteThreshold: uint8(c.Render.WhiteThreshold),
		Workers:        c.Render.Workers,
	}
}

// Layout returns the stamp layout.
func (c *Config) Layout() *stamp.Layout {
	return &stamp.Layout{
		Scale:          c.Placement.StampScale,
		MaxHeightRatio: c.Placement.MaxStampHeightRatio,
		Margin:         c.Placement.Margin,
		OffsetX:        c.Placement.SignatureOffsetX,
		OffsetY:        c.Placement.SignatureOffsetY,
	}
}

// PopplerOptions returns the rasterizer options.
func (c *Config) PopplerOptions() *bridge.PopplerOptions {
	opts := bridge.DefaultPopplerOptions()
	opts.Binary = c.Render.Pdftoppm
	opts.WorkDir = c.Render.WorkDir
	return opts
}

// StoreOptions returns the storage options.
func (c *Config) StoreOptions() *store.Options {
	return &store.Options{
		Driver:        c.Storage.Driver,
		Dir:           c.Storage.Dir,
		RedisAddr:     c.Storage.RedisAddr,
		RedisPassword: c.Storage.RedisPassword,
		RedisDB:       c.Storage.RedisDB,
		KeyPrefix:     c.Storage.KeyPrefix,
		DSN:           c.Storage.DSN,
		TTL:           c.Storage.TTL,
	}
}

// MaxUploadBytes returns the request body limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}
