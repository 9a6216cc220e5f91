package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/bookingstack/service-reservation/internal/database"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "BOOKING"

// ServiceConfig holds all configuration for the reservation service.
type ServiceConfig struct {
	AppEnv      string
	DBConfig    database.Config
	KafkaConfig KafkaConfig
}

// KafkaConfig holds the event stream settings.
type KafkaConfig struct {
	Enabled     bool
	Brokers     []string
	GroupPrefix string
}

// Load reads configuration from BOOKING_* environment variables. Env files are loaded
// first without overriding variables already set; a missing default .env is ignored.
func Load(envFiles ...string) (*ServiceConfig, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if len(envFiles) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	driver := database.Driver(strings.ToLower(v.GetString("DB_DRIVER")))
	if driver != database.DriverPostgres && driver != database.DriverSQLite {
		return nil, fmt.Errorf("invalid %s_DB_DRIVER: %q", envPrefix, driver)
	}

	cfg := &ServiceConfig{
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: database.Config{
			Driver:        driver,
			Host:          v.GetString("DB_HOST"),
			Port:          v.GetString("DB_PORT"),
			User:          v.GetString("DB_USER"),
			Password:      v.GetString("DB_PASSWORD"),
			DBName:        v.GetString("DB_NAME"),
			SSLMode:       v.GetString("DB_SSLMODE"),
			SQLitePath:    v.GetString("DB_SQLITE_PATH"),
			SlowThreshold: v.GetDuration("DB_SLOW_THRESHOLD"),
		},
		KafkaConfig: KafkaConfig{
			Enabled:     v.GetBool("KAFKA_ENABLED"),
			Brokers:     splitList(v.GetString("KAFKA_BROKERS")),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
	}

	if cfg.KafkaConfig.Enabled && len(cfg.KafkaConfig.Brokers) == 0 {
		return nil, fmt.Errorf("%s_KAFKA_BROKERS is required when kafka is enabled", envPrefix)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_DRIVER", string(database.DriverPostgres))
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "reservations")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_SQLITE_PATH", "reservations.db")
	v.SetDefault("DB_SLOW_THRESHOLD", 200*time.Millisecond)
	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "reservation-")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
