package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	envconfig "github.com/binhbb2204/bookhub/pkg/config"
	"gopkg.in/yaml.v3"
)

const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

type Config struct {
	API struct {
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"api"`
	Storage struct {
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
	} `yaml:"storage"`
	Display struct {
		PageSize  int  `yaml:"page_size"`
		Sequenced bool `yaml:"sequenced"`
	} `yaml:"display"`
	Logging struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
		Path  string `yaml:"path"`
	} `yaml:"logging"`
}

// GetConfigDir is $BOOKHUB_HOME, or ~/.bookhub.
func GetConfigDir() (string, error) {
	if dir := os.Getenv("BOOKHUB_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".bookhub"), nil
}

func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// Default returns the configuration written by Init for configDir.
func Default(configDir string) *Config {
	cfg := &Config{}
	cfg.API.BaseURL = envconfig.DefaultAPIBaseURL
	cfg.API.TimeoutSeconds = int(envconfig.DefaultRequestTimeout / time.Second)
	cfg.Storage.Backend = StorageFile
	cfg.Storage.Path = filepath.Join(configDir, "session.yaml")
	cfg.Display.PageSize = 12
	cfg.Display.Sequenced = true
	cfg.Logging.Level = "info"
	cfg.Logging.Path = filepath.Join(configDir, "logs")
	return cfg
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Init creates the config directory layout and writes the default config.
// An existing config file is kept unless force is set.
func Init(force bool) (*Config, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	logsDir := filepath.Join(configDir, "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	if !force {
		if cfg, err := Load(); err == nil {
			return cfg, nil
		}
	}

	cfg := Default(configDir)
	return cfg, Save(cfg)
}

// BaseURL prefers BOOKHUB_API_URL over the config file.
func (c *Config) BaseURL() string {
	if os.Getenv("BOOKHUB_API_URL") != "" {
		return envconfig.APIBaseURL()
	}
	return strings.TrimRight(c.API.BaseURL, "/")
}

// Timeout prefers BOOKHUB_API_TIMEOUT over the config file.
func (c *Config) Timeout() time.Duration {
	if os.Getenv("BOOKHUB_API_TIMEOUT") != "" {
		return envconfig.RequestTimeout()
	}
	if c.API.TimeoutSeconds <= 0 {
		return envconfig.DefaultRequestTimeout
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

func (c *Config) LogFile() string {
	return filepath.Join(c.Logging.Path, "bookhub.log")
}

// Set assigns one "section.key" value.
func (c *Config) Set(key, value string) error {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return fmt.Errorf("invalid key format. Use 'section.key'")
	}
	section := strings.ToLower(parts[0])
	k := strings.ToLower(parts[1])

	switch section + "." + k {
	case "api.base_url":
		c.API.BaseURL = value
	case "api.timeout_seconds":
		v, err := strconv.Atoi(value)
		if err != nil || v <= 0 {
			return fmt.Errorf("invalid positive integer for timeout_seconds")
		}
		c.API.TimeoutSeconds = v
	case "storage.backend":
		if value != StorageFile && value != StorageSQLite {
			return fmt.Errorf("storage backend must be %q or %q", StorageFile, StorageSQLite)
		}
		c.Storage.Backend = value
	case "storage.path":
		c.Storage.Path = value
	case "display.page_size":
		v, err := strconv.Atoi(value)
		if err != nil || v <= 0 || v > 100 {
			return fmt.Errorf("page_size must be between 1 and 100")
		}
		c.Display.PageSize = v
	case "display.sequenced":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for sequenced")
		}
		c.Display.Sequenced = v
	case "logging.level":
		c.Logging.Level = value
	case "logging.json":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for json")
		}
		c.Logging.JSON = v
	case "logging.path":
		c.Logging.Path = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
