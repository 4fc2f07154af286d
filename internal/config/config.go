package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	Environment string `json:"environment"`
	LogLevel    string `json:"logLevel"`
	Storage     string `json:"storage"` // "mongodb" or "memory"
	Server      struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	} `json:"server"`
	MongoDB struct {
		URI      string `json:"uri"`
		Database string `json:"database"`
	} `json:"mongodb"`
	Frontend struct {
		URL string `json:"url"`
	} `json:"frontend"`
	JWT struct {
		AccessSecret string `json:"accessSecret"`
		AccessTTL    int    `json:"accessTtl"` // in minutes
	} `json:"jwt"`
	Game struct {
		IDSpace       int `json:"idSpace"`
		MaxIDAttempts int `json:"maxIdAttempts"`
	} `json:"game"`
	Housekeeping struct {
		IntervalSeconds int `json:"intervalSeconds"`
	} `json:"housekeeping"`
}

const (
	StorageMongoDB = "mongodb"
	StorageMemory  = "memory"
)

const (
	defaultIDSpace       = 10000
	defaultMaxIDAttempts = 100
)

func Load(env string) (*Config, error) {
	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		// Default to configs directory relative to working directory
		configDir = "configs"
	}

	filename := fmt.Sprintf("config.%s.json", env)
	configPath := filepath.Join(configDir, filename)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}

	cfg.Environment = env
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	// Replace environment variables in the config
	configStr := expandEnvVars(string(data))

	var cfg Config
	if err := json.Unmarshal([]byte(configStr), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Storage == "" {
		c.Storage = StorageMongoDB
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Game.IDSpace == 0 {
		c.Game.IDSpace = defaultIDSpace
	}
	if c.Game.MaxIDAttempts == 0 {
		c.Game.MaxIDAttempts = defaultMaxIDAttempts
	}
	if c.JWT.AccessTTL == 0 {
		c.JWT.AccessTTL = 7 * 24 * 60
	}
	if c.Housekeeping.IntervalSeconds == 0 {
		c.Housekeeping.IntervalSeconds = 60
	}
}

func (c *Config) validate() error {
	if c.JWT.AccessSecret == "" {
		return fmt.Errorf("jwt.accessSecret is required")
	}
	switch c.Storage {
	case StorageMongoDB:
		if c.MongoDB.URI == "" || c.MongoDB.Database == "" {
			return fmt.Errorf("mongodb.uri and mongodb.database are required")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	if c.Game.IDSpace < 1 || c.Game.MaxIDAttempts < 1 {
		return fmt.Errorf("game.idSpace and game.maxIdAttempts must be positive")
	}
	if c.Housekeeping.IntervalSeconds < 1 {
		return fmt.Errorf("housekeeping.intervalSeconds must be positive")
	}
	return nil
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// expandEnvVars replaces ${VAR_NAME} with environment variable values
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		return os.Getenv(key)
	})
}

// GetEnv loads a .env file if present and returns the active environment name.
func GetEnv() string {
	_ = godotenv.Load()

	env := os.Getenv("TTT_ENV")
	if env == "" {
		return "dev"
	}
	return env
}
