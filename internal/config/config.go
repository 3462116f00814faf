package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Supported database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// MinSecretLength is the shortest JWT_SECRET accepted for HS256 signing.
const MinSecretLength = 32

// weakSecrets are placeholder values that must never sign real tokens.
var weakSecrets = []string{"change-me", "secret", "changeme"}

// Database holds the storage settings shared by every command.
type Database struct {
	DBDriver string `env:"DB_DRIVER" envDefault:"mysql"`
	DBDSN    string `env:"DB_DSN" envDefault:"user:password@tcp(localhost:3306)/yamdb?charset=utf8mb4&parseTime=True&loc=Local"`
	ResetDB  bool   `env:"RESET_DB" envDefault:"false"`
}

// Config holds application level configuration loaded from environment variables.
type Config struct {
	Database

	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`
	RedisPass string `env:"REDIS_PASSWORD"`

	TitleCacheTTL time.Duration `env:"TITLE_CACHE_TTL" envDefault:"5m"`

	JWTSecret       string        `env:"JWT_SECRET,required,notEmpty"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"24h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"25"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM" envDefault:"from@example.com"`

	LogLevel      string  `env:"LOG_LEVEL" envDefault:"info"`
	AuthRateLimit float64 `env:"AUTH_RATE_LIMIT" envDefault:"5"`
	SwaggerHost   string  `env:"SWAGGER_HOST"`
}

// SMTPEnabled reports whether outbound mail is configured.
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// SlogLevel converts LogLevel to a slog.Level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads an optional .env file and builds Config from the environment.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase reads only the storage settings, for tools that never issue
// tokens.
func LoadDatabase() (*Database, error) {
	_ = godotenv.Load()

	cfg := &Database{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (d *Database) validate() error {
	switch d.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
		return nil
	default:
		return fmt.Errorf("DB_DRIVER %q is not supported", d.DBDriver)
	}
}

func (c *Config) validate() error {
	if err := c.Database.validate(); err != nil {
		return err
	}

	for _, weak := range weakSecrets {
		if c.JWTSecret == weak {
			return fmt.Errorf("JWT_SECRET is a known placeholder value and must not be used")
		}
	}
	if len(c.JWTSecret) < MinSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", MinSecretLength)
	}

	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	return nil
}
