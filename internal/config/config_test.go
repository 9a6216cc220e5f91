package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bookingstack/service-reservation/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOOKING_DB_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, database.DriverPostgres, cfg.DBConfig.Driver)
	assert.Equal(t, "5432", cfg.DBConfig.Port)
	assert.Equal(t, 200*time.Millisecond, cfg.DBConfig.SlowThreshold)
	assert.False(t, cfg.KafkaConfig.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaConfig.Brokers)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("BOOKING_APP_ENV", "production")
	t.Setenv("BOOKING_DB_DRIVER", "SQLite")
	t.Setenv("BOOKING_DB_SQLITE_PATH", "/tmp/reservations.db")
	t.Setenv("BOOKING_KAFKA_ENABLED", "true")
	t.Setenv("BOOKING_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, database.DriverSQLite, cfg.DBConfig.Driver)
	assert.Equal(t, "/tmp/reservations.db", cfg.DBConfig.SQLitePath)
	assert.True(t, cfg.KafkaConfig.Enabled)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaConfig.Brokers)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("BOOKING_DB_NAME=from_file\nBOOKING_DB_HOST=file-host\n"), 0o600))
	// The file never overrides variables that are already set.
	t.Setenv("BOOKING_DB_HOST", "env-host")
	t.Setenv("BOOKING_DB_DRIVER", "")
	t.Cleanup(func() { _ = os.Unsetenv("BOOKING_DB_NAME") })

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from_file", cfg.DBConfig.DBName)
	assert.Equal(t, "env-host", cfg.DBConfig.Host)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing explicit env file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("BOOKING_DB_DRIVER", "mysql")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("kafka without brokers", func(t *testing.T) {
		t.Setenv("BOOKING_DB_DRIVER", "")
		t.Setenv("BOOKING_KAFKA_ENABLED", "true")
		t.Setenv("BOOKING_KAFKA_BROKERS", " , ")
		_, err := Load()
		assert.Error(t, err)
	})
}
