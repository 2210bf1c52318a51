package config

import (
	"errors"
	"testing"
	"time"

	"github.com/hypernova-labs/facture-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setWebhookEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FACTURE_TRANSPORT", "webhook")
	t.Setenv("FACTURE_WEBHOOK_URL", "https://engine.local/generate")
	t.Setenv("FACTURE_SEND_WEBHOOK_URL", "https://engine.local/send")
}

func TestLoad_Defaults(t *testing.T) {
	setWebhookEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, TransportWebhook, cfg.Workflow.Transport)
	assert.Equal(t, 35*time.Second, cfg.Workflow.Timeout)
	assert.Equal(t, time.Duration(0), cfg.Workflow.LeaseTTL)
	assert.Equal(t, 2*time.Second, cfg.Poller.Interval)
	assert.Equal(t, 60*time.Second, cfg.Poller.Timeout)
	assert.Equal(t, "documents", cfg.Storage.Bucket)
	assert.Equal(t, "factures", cfg.Storage.PathPrefix)
	assert.Equal(t, 10*time.Minute, cfg.Storage.SignedURLTTL)
}

func TestLoad_Overrides(t *testing.T) {
	setWebhookEnv(t)
	t.Setenv("FACTURE_WEBHOOK_TIMEOUT", "5s")
	t.Setenv("FACTURE_LEASE_TTL", "2m")
	t.Setenv("FACTURE_POLL_INTERVAL", "500ms")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Workflow.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.Workflow.LeaseTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.Poller.Interval)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoadPoller(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("FACTURE_POLL_INTERVAL", "")
		t.Setenv("FACTURE_POLL_TIMEOUT", "")

		cfg := LoadPoller()
		assert.Equal(t, 2*time.Second, cfg.Interval)
		assert.Equal(t, 60*time.Second, cfg.Timeout)
	})

	t.Run("from environment", func(t *testing.T) {
		t.Setenv("FACTURE_POLL_INTERVAL", "250ms")
		t.Setenv("FACTURE_POLL_TIMEOUT", "90s")

		cfg := LoadPoller()
		assert.Equal(t, 250*time.Millisecond, cfg.Interval)
		assert.Equal(t, 90*time.Second, cfg.Timeout)
	})

	t.Run("does not require workflow settings", func(t *testing.T) {
		t.Setenv("FACTURE_TRANSPORT", "kafka")
		t.Setenv("FACTURE_POLL_TIMEOUT", "5s")

		assert.Equal(t, 5*time.Second, LoadPoller().Timeout)
	})
}

func TestLoad_InvalidDurationFallsBackToDefault(t *testing.T) {
	setWebhookEnv(t)
	t.Setenv("FACTURE_WEBHOOK_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 35*time.Second, cfg.Workflow.Timeout)
}

func TestLoad_MissingWebhookURL(t *testing.T) {
	t.Setenv("FACTURE_TRANSPORT", "webhook")
	t.Setenv("FACTURE_WEBHOOK_URL", "")
	t.Setenv("FACTURE_SEND_WEBHOOK_URL", "https://engine.local/send")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConfig))
	assert.Contains(t, err.Error(), "FACTURE_WEBHOOK_URL is required")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Workflow: WorkflowConfig{
				Transport:   TransportWebhook,
				GenerateURL: "https://engine.local/generate",
				SendURL:     "https://engine.local/send",
				Timeout:     time.Second,
			},
			Poller:  PollerConfig{Interval: time.Second, Timeout: 10 * time.Second},
			Storage: StorageConfig{Bucket: "documents"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantMsg string
	}{
		{
			name:   "valid webhook",
			mutate: func(c *Config) {},
		},
		{
			name: "inngest without event key",
			mutate: func(c *Config) {
				c.Workflow.Transport = TransportInngest
			},
			wantMsg: "INNGEST_EVENT_KEY is required",
		},
		{
			name: "inngest with event key",
			mutate: func(c *Config) {
				c.Workflow.Transport = TransportInngest
				c.Workflow.GenerateURL = ""
				c.Workflow.SendURL = ""
				c.Inngest.EventKey = "key"
			},
		},
		{
			name: "unknown transport",
			mutate: func(c *Config) {
				c.Workflow.Transport = "kafka"
			},
			wantMsg: `unknown FACTURE_TRANSPORT "kafka"`,
		},
		{
			name: "zero timeout",
			mutate: func(c *Config) {
				c.Workflow.Timeout = 0
			},
			wantMsg: "FACTURE_WEBHOOK_TIMEOUT must be positive",
		},
		{
			name: "negative lease",
			mutate: func(c *Config) {
				c.Workflow.LeaseTTL = -time.Second
			},
			wantMsg: "FACTURE_LEASE_TTL must not be negative",
		},
		{
			name: "interval above timeout",
			mutate: func(c *Config) {
				c.Poller.Interval = time.Minute
			},
			wantMsg: "FACTURE_POLL_INTERVAL must not exceed FACTURE_POLL_TIMEOUT",
		},
		{
			name: "empty bucket",
			mutate: func(c *Config) {
				c.Storage.Bucket = ""
			},
			wantMsg: "STORAGE_BUCKET is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			fe, ok := models.AsFactureError(err)
			require.True(t, ok)
			assert.Equal(t, models.ErrorCodeConfig, fe.Code)
			assert.False(t, fe.Retryable)
			assert.Contains(t, fe.Message, tt.wantMsg)
		})
	}
}

func TestHasStorage(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.HasStorage())

	cfg.Storage = StorageConfig{Endpoint: "https://s3.local", AccessKeyID: "id", SecretAccessKey: "secret"}
	assert.True(t, cfg.HasStorage())
}

func TestGetDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"}}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", cfg.GetDSN())
	cfg.Redis = RedisConfig{Host: "cache", Port: "6379"}
	assert.Equal(t, "cache:6379", cfg.GetRedisAddr())
}
