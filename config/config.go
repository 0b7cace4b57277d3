package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config captures the settings required to run the forecaster.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Output  OutputConfig  `yaml:"output"`
	Locale  LocaleConfig  `yaml:"locale"`
}

// StorageConfig selects and configures the persistence adapter.
type StorageConfig struct {
	Driver    string      `yaml:"driver" validate:"oneof=memory file redis"`
	Path      string      `yaml:"path" validate:"required_if=Driver file"`
	KeyPrefix string      `yaml:"keyPrefix"`
	Redis     RedisConfig `yaml:"redis"`
}

// RedisConfig configures the redis persistence adapter.
type RedisConfig struct {
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db" validate:"gte=0"`
	DialTimeout time.Duration `yaml:"dialTimeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig controls Prometheus exposure.
type MetricsConfig struct {
	Address string `yaml:"address"`
	PushURL string `yaml:"pushURL" validate:"omitempty,url"`
}

// OutputConfig controls how the forecast grid is rendered.
type OutputConfig struct {
	Format string `yaml:"format" validate:"oneof=text json csv xlsx"`
	Path   string `yaml:"path" validate:"required_if=Format xlsx"`
}

// LocaleConfig anchors the month timeline.
type LocaleConfig struct {
	Timezone string `yaml:"timezone" validate:"required"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SUPERFORECASTER_CONFIG")
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Driver: "file",
			Path:   ".superforecaster",
			Redis: RedisConfig{
				Addr:        "localhost:6379",
				DialTimeout: 2 * time.Second,
			},
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Output:  OutputConfig{Format: "text"},
		Locale:  LocaleConfig{Timezone: "Local"},
	}
}

// Validate checks field constraints and that the timezone resolves.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid config: timezone %q: %w", c.Locale.Timezone, err)
	}
	return nil
}

// Location returns the timezone the month timeline is anchored in.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Locale.Timezone)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SUPERFORECASTER_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("SUPERFORECASTER_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("SUPERFORECASTER_STORAGE_PREFIX"); v != "" {
		cfg.Storage.KeyPrefix = v
	}
	if v := os.Getenv("SUPERFORECASTER_REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv("SUPERFORECASTER_REDIS_PASSWORD"); v != "" {
		cfg.Storage.Redis.Password = v
	}
	if v := os.Getenv("SUPERFORECASTER_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Redis.DB = db
		}
	}
	if v := os.Getenv("SUPERFORECASTER_REDIS_DIAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Storage.Redis.DialTimeout = d
		}
	}
	if v := os.Getenv("SUPERFORECASTER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SUPERFORECASTER_LOG_FORMAT"); v != "" {
		cfg.Logging.JSON = strings.EqualFold(v, "json")
	}
	if v := os.Getenv("SUPERFORECASTER_METRICS_ADDRESS"); v != "" {
		cfg.Metrics.Address = v
	}
	if v := os.Getenv("SUPERFORECASTER_PUSH_URL"); v != "" {
		cfg.Metrics.PushURL = v
	}
	if v := os.Getenv("SUPERFORECASTER_TIMEZONE"); v != "" {
		cfg.Locale.Timezone = v
	}
}
