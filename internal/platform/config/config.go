package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/srgjo27/studio_ledger/internal/platform/database"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type App struct {
	Env         string `envconfig:"APP_ENV" default:"local"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres"`

	// DB
	DBHost            string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort            string        `envconfig:"DB_PORT" default:"5432"`
	DBUser            string        `envconfig:"DB_USER" default:"postgres"`
	DBPassword        string        `envconfig:"DB_PASSWORD"`
	DBName            string        `envconfig:"DB_NAME" default:"studio_ledger"`
	DBSSLMode         string        `envconfig:"DB_SSLMODE" default:"disable"`
	DBConnectAttempts uint          `envconfig:"DB_CONNECT_ATTEMPTS" default:"10"`
	DBConnectDelay    time.Duration `envconfig:"DB_CONNECT_DELAY" default:"2s"`
	DBMigrate         bool          `envconfig:"DB_MIGRATE" default:"true"`

	// Redis
	RedisHost       string        `envconfig:"REDIS_HOST"`
	RedisPort       string        `envconfig:"REDIS_PORT" default:"6379"`
	AvailabilityTTL time.Duration `envconfig:"AVAILABILITY_CACHE_TTL" default:"30s"`

	// Auth
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// Notifications
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"studio.events"`

	// Tracing
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	ExpirySweepInterval time.Duration `envconfig:"EXPIRY_SWEEP_INTERVAL" default:"1m"`
	ShutdownTimeout     time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
}

// Load reads an optional .env file, then the process environment.
func Load(files ...string) (App, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	_ = godotenv.Load(files...)

	var c App
	if err := envconfig.Process("", &c); err != nil {
		return App{}, fmt.Errorf("load config: %w", err)
	}
	if err := c.validate(); err != nil {
		return App{}, err
	}
	return c, nil
}

func (c App) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("load config: JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("load config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.ExpirySweepInterval <= 0 {
		return fmt.Errorf("load config: EXPIRY_SWEEP_INTERVAL must be positive")
	}
	return nil
}

func (c App) Database() database.Config {
	return database.Config{
		Host:            c.DBHost,
		Port:            c.DBPort,
		User:            c.DBUser,
		Password:        c.DBPassword,
		DBName:          c.DBName,
		SSLMode:         c.DBSSLMode,
		ConnectAttempts: c.DBConnectAttempts,
		ConnectDelay:    c.DBConnectDelay,
	}
}

// RedisAddr is empty when no cache is configured.
func (c App) RedisAddr() string {
	if c.RedisHost == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
