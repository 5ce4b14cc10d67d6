package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setLocalEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DOCUMENT_STORE", "postgres")
	t.Setenv("IDENTITY_PROVIDER", "local")
	t.Setenv("BLOB_STORE", "local")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/school")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setLocalEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, ImportPolicyPreserve, cfg.ImportPolicy)
	assert.Equal(t, "123456", cfg.DefaultImportPassword)
	assert.Equal(t, 8, cfg.FanoutConcurrency)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "school.events", cfg.EventsTopic)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.True(t, cfg.NeedsDatabase())
	assert.False(t, cfg.NeedsFirebase())
}

func TestLoadConfig_Overrides(t *testing.T) {
	setLocalEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("IMPORT_POLICY", "OVERWRITE")
	t.Setenv("PUBLIC_BASE_URL", "https://school.example.com/")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, ImportPolicyOverwrite, cfg.ImportPolicy)
	assert.Equal(t, "https://school.example.com", cfg.PublicBaseURL)
	assert.Equal(t, time.UTC, cfg.Location)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown store", env: map[string]string{"DOCUMENT_STORE": "mongo"}},
		{name: "firestore without project", env: map[string]string{"DOCUMENT_STORE": "firestore"}},
		{name: "firebase blobs without bucket", env: map[string]string{"BLOB_STORE": "firebase"}},
		{name: "casdoor without endpoint", env: map[string]string{"IDENTITY_PROVIDER": "casdoor"}},
		{name: "bad import policy", env: map[string]string{"IMPORT_POLICY": "merge"}},
		{name: "bad fanout", env: map[string]string{"FANOUT_CONCURRENCY": "0"}},
		{name: "bad ttl", env: map[string]string{"SESSION_TTL": "soon"}},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setLocalEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
