package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.App.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Empty(t, cfg.RabbitMQ.URL)
	assert.Equal(t, "http://localhost:8080", cfg.Client.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "host=db user=inv dbname=inv sslmode=disable")
	t.Setenv("INVENTORY_API_URL", "http://inventory.internal")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "host=db user=inv dbname=inv sslmode=disable", cfg.Database.DSN)
	assert.Equal(t, "http://inventory.internal", cfg.Client.BaseURL)
}

func TestRejectsUnknownDriver(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("DATABASE_DRIVER", "mongodb")

	_, err := fromViper(v)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_DRIVER")
}
