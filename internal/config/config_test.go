package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ortelius/gost-sbom/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, config.BackendFile, cfg.StoreBackend)
	assert.Equal(t, 10*1024*1024, cfg.BodyLimit())
	assert.Equal(t, 5*time.Second, cfg.VCSTimeout)
	assert.Equal(t, 3, cfg.VCSMaxRedirects)
	assert.Equal(t, "http://localhost:8529", cfg.ArangoURL)
	assert.False(t, cfg.KafkaEnabled())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("MS_PORT", "9000")
	t.Setenv("STORE_BACKEND", "ARANGO")
	t.Setenv("ARANGO_HOST", "db")
	t.Setenv("VCS_TIMEOUT", "2s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, config.BackendArango, cfg.StoreBackend)
	assert.Equal(t, "http://db:8529", cfg.ArangoURL)
	assert.Equal(t, 2*time.Second, cfg.VCSTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ms_port: \"7000\"\nbody_limit_mb: 2\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, 2*1024*1024, cfg.BodyLimit())
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	_, err := config.Load("")
	assert.ErrorContains(t, err, "unknown store backend")

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
