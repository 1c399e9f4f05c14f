package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the process configuration shared by the API server and inventoryctl.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	Client   ClientConfig
}

type AppConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Driver string // "postgres" or "sqlite"
	DSN    string
}

type RabbitMQConfig struct {
	URL string // empty disables product events
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Load reads configuration from the environment and, when present, a .env
// file in the working directory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:inventory.db?cache=shared")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("INVENTORY_API_URL", "http://localhost:8080")
	v.SetDefault("INVENTORY_HTTP_TIMEOUT", "30s")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Port: v.GetString("APP_PORT"),
			Env:  v.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Driver: v.GetString("DATABASE_DRIVER"),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		RabbitMQ: RabbitMQConfig{
			URL: v.GetString("RABBITMQ_URL"),
		},
		Client: ClientConfig{
			BaseURL: v.GetString("INVENTORY_API_URL"),
			Timeout: v.GetDuration("INVENTORY_HTTP_TIMEOUT"),
		},
	}

	switch cfg.Database.Driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.Database.Driver)
	}
	if cfg.Client.BaseURL == "" {
		return nil, errors.New("INVENTORY_API_URL must not be empty")
	}
	return cfg, nil
}
