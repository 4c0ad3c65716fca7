package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/notes/logger"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel       = "NOTES_LOG_LEVEL"
	EnvLogPretty      = "NOTES_LOG_PRETTY"
	EnvWatchThreshold = "NOTES_WATCH_THRESHOLD"
	EnvCacheSize      = "NOTES_CACHE_SIZE"
	EnvServerAddr     = "NOTES_SERVER_ADDR"
	EnvCORSOrigins    = "NOTES_CORS_ORIGINS"
)

// Config represents the complete application configuration
type Config struct {
	Log    LogConfig    `json:"log" yaml:"log"`
	Engine EngineConfig `json:"engine" yaml:"engine"`
	Server ServerConfig `json:"server" yaml:"server"`
}

// LogConfig contains logger settings
type LogConfig struct {
	Level  string `json:"level" yaml:"level"` // debug, info, warn, error
	Pretty bool   `json:"pretty" yaml:"pretty"`
}

// EngineConfig contains valuation settings
type EngineConfig struct {
	WatchThreshold float64 `json:"watch_threshold" yaml:"watch_threshold"` // fraction, 0.05 = 5 points
	CacheSize      int     `json:"cache_size" yaml:"cache_size"`
}

// ServerConfig contains HTTP settings
type ServerConfig struct {
	Addr           string   `json:"addr" yaml:"addr"`
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
}

// Logger returns the logger configuration for c.
func (c *Config) Logger() logger.Config {
	return logger.Config{Level: c.Log.Level, Pretty: c.Log.Pretty}
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, JSON otherwise)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log.level must be one of debug, info, warn, error", ErrInvalidConfig)
	}
	if c.Engine.WatchThreshold <= 0 || c.Engine.WatchThreshold >= 1 {
		return fmt.Errorf("%w: engine.watch_threshold must be between 0 and 1", ErrInvalidConfig)
	}
	if c.Engine.CacheSize < 0 {
		return fmt.Errorf("%w: engine.cache_size must not be negative", ErrInvalidConfig)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalidConfig)
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Engine: EngineConfig{
			WatchThreshold: 0.05,
			CacheSize:      256,
		},
		Server: ServerConfig{
			Addr: "localhost:8080",
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
	}
}

// ApplyEnv loads the given dotenv files (".env" when none are named; a
// missing file is ignored) and overlays NOTES_* variables onto c.
// Variables already set in the environment win over the files.
func ApplyEnv(c *Config, files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	if v, ok := lookup(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvLogPretty); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, EnvLogPretty, err)
		}
		c.Log.Pretty = b
	}
	if v, ok := lookup(EnvWatchThreshold); ok {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, EnvWatchThreshold, err)
		}
		c.Engine.WatchThreshold = x
	}
	if v, ok := lookup(EnvCacheSize); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, EnvCacheSize, err)
		}
		c.Engine.CacheSize = n
	}
	if v, ok := lookup(EnvServerAddr); ok {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvCORSOrigins); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	return c.Validate()
}

func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
