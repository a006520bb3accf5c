package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds edubot client settings.
type Config struct {
	// API Gateway stage URL, e.g. https://abc.execute-api.ap-south-1.amazonaws.com/prod
	APIBaseURL string `yaml:"api_base_url"`

	// Session store DSN. A file path selects sqlite, a postgres:// URL selects postgres.
	StoreDSN string `yaml:"store_dsn"`

	Server ServerConfig `yaml:"server"`
	Stream StreamConfig `yaml:"stream"`

	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the local dev server.
type ServerConfig struct {
	Port          int    `yaml:"port"`
	AllowedOrigin string `yaml:"allowed_origin"`
}

// StreamConfig tunes the typing animation, in milliseconds.
type StreamConfig struct {
	WordDelayMS     int `yaml:"word_delay_ms"`
	SentenceDelayMS int `yaml:"sentence_delay_ms"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	// File receives logs while the terminal dashboard owns the screen.
	File string `yaml:"file"`
}

var ErrNoAPIBaseURL = errors.New("API base URL is not configured (set API_BASE_URL or api_base_url)")

// Dir is the per-user directory holding config, session and logs.
func Dir() string {
	if d, err := os.UserConfigDir(); err == nil {
		return filepath.Join(d, "edubot")
	}
	return ".edubot"
}

// DefaultPath is where Load looks when no --config flag is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

func DefaultConfig() *Config {
	return &Config{
		StoreDSN: filepath.Join(Dir(), "session.db"),
		Server: ServerConfig{
			Port:          3001,
			AllowedOrigin: "http://localhost:5173",
		},
		Stream: StreamConfig{
			WordDelayMS:     30,
			SentenceDelayMS: 100,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(Dir(), "edubot.log"),
		},
	}
}

// Load reads the YAML file at path (a missing file means defaults), then a
// .env file in the working directory, then environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// .env is optional, like in the dev setup
	_ = godotenv.Load()

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("API_BASE_URL"); v != "" {
		c.APIBaseURL = v
	} else if v := os.Getenv("VITE_API_BASE_URL"); v != "" {
		c.APIBaseURL = v
	}
	if v := os.Getenv("EDUBOT_STORE_DSN"); v != "" {
		c.StoreDSN = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("ALLOWED_ORIGIN"); v != "" {
		c.Server.AllowedOrigin = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the settings network commands depend on.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return ErrNoAPIBaseURL
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
