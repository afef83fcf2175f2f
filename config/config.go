package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Worker   WorkerConfig   `yaml:"worker"`
	Auth     AuthConfig     `yaml:"auth"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	Name               string `yaml:"name"`
	SSLMode            string `yaml:"ssl_mode"`
	StatementTimeoutMS int    `yaml:"statement_timeout_ms"`
	MigrateOnStart     bool   `yaml:"migrate_on_start"`
}

// PoolConfig sets connection fields directly so credentials never pass through
// a DSN string. statement_timeout bounds every pooled connection.
func (d DatabaseConfig) PoolConfig() (*pgxpool.Config, error) {
	sslMode := d.SSLMode
	switch sslMode {
	case "":
		sslMode = "disable"
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return nil, fmt.Errorf("database.ssl_mode: unknown mode %q", d.SSLMode)
	}
	cfg, err := pgxpool.ParseConfig("sslmode=" + sslMode)
	if err != nil {
		return nil, fmt.Errorf("database.ssl_mode: %w", err)
	}

	cc := cfg.ConnConfig
	cc.Host, cc.Port = d.Host, uint16(d.Port)
	cc.User, cc.Password, cc.Database = d.User, d.Password, d.Name
	for _, fb := range cc.Fallbacks {
		fb.Host, fb.Port = d.Host, uint16(d.Port)
	}
	if d.StatementTimeoutMS > 0 {
		cc.RuntimeParams["statement_timeout"] = strconv.Itoa(d.StatementTimeoutMS)
	}
	return cfg, nil
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	FlightsCacheTTL    int `yaml:"flights_cache_ttl_seconds"`
	SeatLockTTL        int `yaml:"seat_lock_ttl_seconds"`
	OperationTimeout   int `yaml:"operation_timeout_seconds"`
	RefundGraceMinutes int `yaml:"refund_grace_minutes"`

	// ScheduleTimezone is the IANA zone calendar dates in requests are read in.
	ScheduleTimezone string `yaml:"schedule_timezone"`
}

// ScheduleLocation falls back to UTC when the zone is unset or unknown;
// Validate rejects unknown zones at load time.
func (b BookingConfig) ScheduleLocation() *time.Location {
	if b.ScheduleTimezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(b.ScheduleTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (b BookingConfig) FlightsCacheDuration() time.Duration {
	return time.Duration(b.FlightsCacheTTL) * time.Second
}

func (b BookingConfig) SeatLockDuration() time.Duration {
	return time.Duration(b.SeatLockTTL) * time.Second
}

func (b BookingConfig) OperationTimeoutDuration() time.Duration {
	return time.Duration(b.OperationTimeout) * time.Second
}

func (b BookingConfig) RefundGrace() time.Duration {
	return time.Duration(b.RefundGraceMinutes) * time.Minute
}

type WorkerConfig struct {
	TicketResyncSeconds   int `yaml:"ticket_resync_seconds"`
	RefundFinalizeSeconds int `yaml:"refund_finalize_seconds"`
	BatchSize             int `yaml:"batch_size"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
	TokenTTL  int    `yaml:"token_ttl_minutes"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// .env is optional, the process environment wins anyway
	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{Address: ":8080"},
		GRPC: GRPCConfig{Address: ":9090"},
		Database: DatabaseConfig{
			Host:               "localhost",
			Port:               5432,
			SSLMode:            "disable",
			StatementTimeoutMS: 5000,
		},
		Booking: BookingConfig{
			FlightsCacheTTL:  60,
			SeatLockTTL:      10,
			OperationTimeout: 10,
			ScheduleTimezone: "UTC",
		},
		Worker: WorkerConfig{
			TicketResyncSeconds:   60,
			RefundFinalizeSeconds: 60,
			BatchSize:             100,
		},
		Auth: AuthConfig{Issuer: "flightdesk", TokenTTL: 60},
		SMTP: SMTPConfig{Port: 587},
		Log:  LogConfig{Level: "info", Format: "text"},
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database.name is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Errorf("database.port must be within 1..65535, got %d", c.Database.Port))
	}
	if c.Booking.ScheduleTimezone != "" {
		if _, err := time.LoadLocation(c.Booking.ScheduleTimezone); err != nil {
			errs = append(errs, fmt.Errorf("booking.schedule_timezone: %w", err))
		}
	}
	return errors.Join(errs...)
}
