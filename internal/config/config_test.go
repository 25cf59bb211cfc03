package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				// Verify some key fields are populated
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "koroh_realtime", cfg.Database.Database)
				assert.Equal(t, "koroh.updates", cfg.RabbitMQ.Exchange.Name)
				assert.Equal(t, "topic", cfg.RabbitMQ.Exchange.Type)
				assert.Equal(t, "realtime_updates", cfg.RabbitMQ.Queue.Name)
				assert.Equal(t, "updates.#", cfg.RabbitMQ.RoutingKey)
				assert.Equal(t, 2*time.Second, cfg.RabbitMQ.Connection.RetryInterval)
				assert.Equal(t, "koroh-realtime-service", cfg.App.Name)
				assert.Equal(t, 16, cfg.Gateway.SubscriberBuffer)
				assert.Equal(t, "dashboard", cfg.Gateway.DefaultScope)
			}
		})
	}
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(cfg *Config)
		errString string
	}{
		{
			name:   "valid config",
			mutate: func(cfg *Config) {},
		},
		{
			name:      "server port out of range",
			mutate:    func(cfg *Config) { cfg.Server.Port = 0 },
			errString: "invalid server port",
		},
		{
			name:      "missing database host",
			mutate:    func(cfg *Config) { cfg.Database.Host = "" },
			errString: "database host is required",
		},
		{
			name:      "database port out of range",
			mutate:    func(cfg *Config) { cfg.Database.Port = 70000 },
			errString: "invalid database port",
		},
		{
			name:      "missing database name",
			mutate:    func(cfg *Config) { cfg.Database.Database = "" },
			errString: "database name is required",
		},
		{
			name:      "missing rabbitmq host",
			mutate:    func(cfg *Config) { cfg.RabbitMQ.Host = "" },
			errString: "rabbitmq host is required",
		},
		{
			name:      "missing exchange name",
			mutate:    func(cfg *Config) { cfg.RabbitMQ.Exchange.Name = "" },
			errString: "rabbitmq exchange name is required",
		},
		{
			name:      "missing queue name",
			mutate:    func(cfg *Config) { cfg.RabbitMQ.Queue.Name = "" },
			errString: "rabbitmq queue name is required",
		},
		{
			name:      "negative subscriber buffer",
			mutate:    func(cfg *Config) { cfg.Gateway.SubscriberBuffer = -1 },
			errString: "subscriber_buffer must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errString == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			}
		})
	}
}
