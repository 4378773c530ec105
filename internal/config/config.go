package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Supported values for DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds everything the process needs at startup.
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogPretty bool

	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
}

// DatabaseConfig selects and tunes the user store.
type DatabaseConfig struct {
	Driver       string
	DSN          string
	MaxOpenConns int
}

// RabbitMQConfig configures lifecycle event publication. An empty URL disables it.
type RabbitMQConfig struct {
	URL             string
	Queue           string
	ConsumerEnabled bool
}

// Enabled reports whether an AMQP broker was configured.
func (c RabbitMQConfig) Enabled() bool {
	return c.URL != ""
}

// Load reads configuration from environment variables and, when CONFIG_FILE is
// set, from that file. Environment variables win over the file.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		Port:      v.GetString("APP_PORT"),
		Env:       v.GetString("APP_ENV"),
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogPretty: v.GetBool("LOG_PRETTY"),
		Database: DatabaseConfig{
			Driver:       strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
			DSN:          v.GetString("DATABASE_DSN"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:             v.GetString("RABBITMQ_URL"),
			Queue:           v.GetString("RABBITMQ_QUEUE"),
			ConsumerEnabled: v.GetBool("EVENTS_CONSUMER_ENABLED"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=users port=5432 sslmode=disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "user_events")
	v.SetDefault("EVENTS_CONSUMER_ENABLED", false)
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
		if c.Database.DSN == "" {
			return errors.New("DATABASE_DSN is required for driver " + c.Database.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.RabbitMQ.Enabled() && c.RabbitMQ.Queue == "" {
		return errors.New("RABBITMQ_QUEUE must not be empty when RABBITMQ_URL is set")
	}
	return nil
}
