package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "memory", cfg.Lock.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.Auth.ValidateExpiry)
	assert.Zero(t, cfg.Auth.TokenLifetime)
	assert.False(t, cfg.Server.TLSEnabled())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MERIDIAN_DATABASE_DRIVER", "sqlite")
	t.Setenv("MERIDIAN_DATABASE_PATH", "/tmp/override.db")
	t.Setenv("MERIDIAN_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
database:
  driver: sqlite
  path: meridian-test.db
lock:
  backend: noop
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "noop", cfg.Lock.Backend)
	// Unset keys keep their defaults.
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	t.Run("bad port", func(t *testing.T) {
		cfg := base()
		cfg.Server.Port = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad driver", func(t *testing.T) {
		cfg := base()
		cfg.Database.Driver = "oracle"
		assert.Error(t, cfg.Validate())
	})

	t.Run("sqlite requires path", func(t *testing.T) {
		cfg := base()
		cfg.Database.Driver = "sqlite"
		cfg.Database.Path = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad lock backend", func(t *testing.T) {
		cfg := base()
		cfg.Lock.Backend = "zookeeper"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := base()
		cfg.Logging.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})

	t.Run("tls cert without key", func(t *testing.T) {
		cfg := base()
		cfg.Server.TLSCertPath = "cert.pem"
		assert.Error(t, cfg.Validate())
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db.internal", Port: 5432, User: "meridian",
		Password: "hunter2", Name: "accounts", SSLMode: "require",
	}
	assert.Equal(t,
		"host=db.internal port=5432 user=meridian password=hunter2 dbname=accounts sslmode=require",
		cfg.DSN())

	sqlite := DatabaseConfig{Path: "data/meridian.db", BusyTimeout: 5000}
	assert.Contains(t, sqlite.SQLiteDSN(), "file:data/meridian.db")
	assert.Contains(t, sqlite.SQLiteDSN(), "busy_timeout(5000)")
}
