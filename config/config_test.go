package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	path := writeConfig(t, `
database:
  name: flightdesk
  user: app
booking:
  refund_grace_minutes: 15
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, time.UTC, cfg.Booking.ScheduleLocation())
	assert.Equal(t, 15*time.Minute, cfg.Booking.RefundGrace())
	assert.Equal(t, 10*time.Second, cfg.Booking.OperationTimeoutDuration())
	assert.Equal(t, ":8080", cfg.HTTP.Address)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	path := writeConfig(t, `
database:
  port: 0
booking:
  schedule_timezone: Mars/Olympus
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.name is required")
	assert.Contains(t, err.Error(), "auth.jwt_secret is required")
	assert.Contains(t, err.Error(), "database.port")
	assert.Contains(t, err.Error(), "booking.schedule_timezone")
}

func TestLoadConfig_RefundRateIsNotConfigurable(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	path := writeConfig(t, `
database:
  name: flightdesk
booking:
  refund_rate_percent: 50
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refund_rate_percent")
}

func TestBookingConfig_ScheduleLocation(t *testing.T) {
	loc := BookingConfig{ScheduleTimezone: "Asia/Kolkata"}.ScheduleLocation()
	assert.Equal(t, "Asia/Kolkata", loc.String())
	assert.Equal(t, time.UTC, BookingConfig{}.ScheduleLocation())
	assert.Equal(t, time.UTC, BookingConfig{ScheduleTimezone: "Mars/Olympus"}.ScheduleLocation())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDatabaseConfig_PoolConfig(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 6432, User: "u", Password: "p", Name: "n", SSLMode: "disable", StatementTimeoutMS: 3000}

	cfg, err := d.PoolConfig()
	require.NoError(t, err)
	assert.Equal(t, "db", cfg.ConnConfig.Host)
	assert.Equal(t, uint16(6432), cfg.ConnConfig.Port)
	assert.Equal(t, "u", cfg.ConnConfig.User)
	assert.Equal(t, "p", cfg.ConnConfig.Password)
	assert.Equal(t, "n", cfg.ConnConfig.Database)
	assert.Equal(t, "3000", cfg.ConnConfig.RuntimeParams["statement_timeout"])
	assert.Nil(t, cfg.ConnConfig.TLSConfig)
}

func TestDatabaseConfig_PoolConfigKeepsPasswordVerbatim(t *testing.T) {
	passwords := []string{`p@ss word`, `it's`, `back\slash`, `a=b host=evil`}
	for _, pw := range passwords {
		t.Run(pw, func(t *testing.T) {
			d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: pw, Name: "n", SSLMode: "prefer"}

			cfg, err := d.PoolConfig()
			require.NoError(t, err)
			assert.Equal(t, pw, cfg.ConnConfig.Password)
			assert.Equal(t, "db", cfg.ConnConfig.Host)
			for _, fb := range cfg.ConnConfig.Fallbacks {
				assert.Equal(t, "db", fb.Host)
			}
		})
	}
}

func TestDatabaseConfig_PoolConfigBadSSLMode(t *testing.T) {
	_, err := DatabaseConfig{Host: "db", Port: 5432, SSLMode: "sometimes"}.PoolConfig()
	assert.Error(t, err)

	_, err = DatabaseConfig{Host: "db", Port: 5432, SSLMode: "disable host=evil"}.PoolConfig()
	assert.Error(t, err)
}
