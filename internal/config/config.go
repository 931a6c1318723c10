package config

import (
	"errors"
	"strings"
	"time"

	libconfig "parklot/libs/config"
)

// Config defines parking system configuration. Redis is optional: with no
// addr configured the open-ticket cache is disabled.
type Config struct {
	Database struct {
		DSN string `yaml:"dsn" env:"PARKLOT_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"PARKLOT_REDIS_ADDR"`
		Password string `yaml:"password" env:"PARKLOT_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"PARKLOT_REDIS_DB"`
		TTL      int    `yaml:"ttlSeconds" env:"PARKLOT_REDIS_TTL"`
	} `yaml:"redis"`
	Fare struct {
		CarRate  float64 `yaml:"carRate" env:"PARKLOT_CAR_RATE"`
		BikeRate float64 `yaml:"bikeRate" env:"PARKLOT_BIKE_RATE"`
	} `yaml:"fare"`
}

// Load reads configuration via the shared helper and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.Redis.TTL = 86400

	if err := libconfig.Load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if cfg.Fare.CarRate < 0 || cfg.Fare.BikeRate < 0 {
		return nil, errors.New("config: fare rates must not be negative")
	}
	return cfg, nil
}

// CacheEnabled reports whether the open-ticket cache should be wired.
func (c *Config) CacheEnabled() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}

// OpenTicketTTL returns the cache ttl as a duration.
func (c *Config) OpenTicketTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Redis.TTL) * time.Second
}
