// Package config loads pdftool settings from defaults, an optional YAML file, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultMaxFileSize is the default maximum upload size (10MB)
	DefaultMaxFileSize = 10 * 1024 * 1024

	// DefaultPort is the default server port
	DefaultPort = "8080"

	// DefaultTempDir is the default temporary directory
	DefaultTempDir = "./temp"

	// DefaultRenderer is the page rasterizer command line
	DefaultRenderer = "pdftoppm"

	// DefaultRenderTimeout bounds rendering of a single page
	DefaultRenderTimeout = 60 * time.Second

	// DefaultLogLevel keeps the CLI quiet unless asked otherwise
	DefaultLogLevel = "warn"

	// EnvConfigFile names the YAML file to load when --config is not given
	EnvConfigFile = "PDFTOOL_CONFIG"
)

// Config holds application configuration
type Config struct {
	Renderer      string        `yaml:"renderer"`
	RenderTimeout time.Duration `yaml:"render_timeout"`
	MaxFileSize   int64         `yaml:"max_file_size"`
	TempDir       string        `yaml:"temp_dir"`
	Port          string        `yaml:"port"`
	LogLevel      string        `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Renderer:      DefaultRenderer,
		RenderTimeout: DefaultRenderTimeout,
		MaxFileSize:   DefaultMaxFileSize,
		TempDir:       DefaultTempDir,
		Port:          DefaultPort,
		LogLevel:      DefaultLogLevel,
	}
}

// Load builds the configuration. Later sources win: defaults, the YAML file at path (or
// $PDFTOOL_CONFIG), then environment variables, with .env filling unset variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg.Renderer = getEnv("PDFTOOL_RENDERER", cfg.Renderer)
	cfg.RenderTimeout = getEnvDuration("PDFTOOL_RENDER_TIMEOUT", cfg.RenderTimeout)
	cfg.MaxFileSize = getEnvInt64("MAX_FILE_SIZE", cfg.MaxFileSize)
	cfg.TempDir = getEnv("TEMP_DIR", cfg.TempDir)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	if _, err := cfg.RendererCommand(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// RendererCommand splits the renderer setting into an executable and its leading arguments.
func (c *Config) RendererCommand() ([]string, error) {
	parts, err := shlex.Split(c.Renderer)
	if err != nil {
		return nil, fmt.Errorf("invalid renderer %q: %w", c.Renderer, err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("invalid renderer %q: empty command", c.Renderer)
	}
	return parts, nil
}

// ParseLogLevel maps a level name onto logrus, defaulting to warn.
func ParseLogLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.WarnLevel
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
