package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// APIKeyEnv names the environment variable holding the NYT API key.
// The key is never stored in the config file and never logged.
const APIKeyEnv = "NYT_API_KEY"

// ErrMissingAPIKey is a fatal startup condition: no request can succeed
// without a key.
var ErrMissingAPIKey = errors.New("NYT_API_KEY is not set")

type Config struct {
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	Network  NetworkConfig  `yaml:"network"`
	LogLevel string         `yaml:"log_level"`

	// APIKey is resolved from the environment, not the file.
	APIKey string `yaml:"-"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type NetworkConfig struct {
	ProbeAddr     string        `yaml:"probe_addr"`
	ProbeInterval time.Duration `yaml:"probe_interval"`
}

// Load reads the config file, applies defaults and resolves the API key
// from the environment (a .env file is honoured if present). A missing
// config file is fine; a missing API key is not.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg.setDefaults()

	if cfg.Database.Path != "" {
		cfg.Database.Path = expandPath(cfg.Database.Path)
	}

	cfg.APIKey = os.Getenv(APIKeyEnv)
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://api.nytimes.com/svc/mostpopular/v2"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(configDir(), "favourites.db")
	}
	if c.Network.ProbeInterval == 0 {
		c.Network.ProbeInterval = 5 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultLogPath returns where the application log is written. The TUI
// owns the terminal, so logs go to a file.
func DefaultLogPath() string {
	return filepath.Join(configDir(), "nytpopular.log")
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "nytpopular")
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
