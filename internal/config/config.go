package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported values for the driver/backend switches.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"

	QueueMemory = "memory"
	QueueRedis  = "redis"

	HasherArgon2 = "argon2id"
	HasherBcrypt = "bcrypt"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Auth         AuthConfig
	Email        EmailConfig
	Notification NotificationConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string
}

type DatabaseConfig struct {
	Driver         string // postgres, sqlite or memory
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	ChannelBinding string // "require" for Neon DB, empty for local
	SQLitePath     string
	MaxOpenConns   int
	MaxIdleConns   int
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	// PASETO v4.local key for session tokens, exactly 32 bytes.
	PasetoKey []byte
	// HMAC secret for emailed link tokens (verification, password reset).
	LinkTokenSecret []byte

	SessionTokenDuration      time.Duration
	VerificationTokenDuration time.Duration
	ResetTokenDuration        time.Duration

	PasswordHasher    string
	BcryptCost        int
	MinPasswordLength int
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	FromAddress  string
	FrontendURL  string // where the change-password page lives
	PublicAPIURL string // base URL of this API, used in emailed links
}

type NotificationConfig struct {
	Queue       string // memory or redis
	QueueSize   int
	RedisKey    string
	Workers     int
	MaxRetries  int
	RetryBase   time.Duration
	PushTimeout time.Duration
}

// Load reads configuration from environment variables, after loading a .env
// file if one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Driver:         getEnv("DB_DRIVER", DriverPostgres),
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "eventhub"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			ChannelBinding: getEnv("DB_CHANNEL_BINDING", ""),
			SQLitePath:     getEnv("SQLITE_PATH", "file:eventhub.db?cache=shared"),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			PasetoKey:                 []byte(getEnv("PASETO_KEY", "")),
			LinkTokenSecret:           []byte(getEnv("LINK_TOKEN_SECRET", "")),
			SessionTokenDuration:      getDurationEnv("SESSION_TOKEN_DURATION", 24*time.Hour),
			VerificationTokenDuration: getDurationEnv("VERIFICATION_TOKEN_DURATION", 24*time.Hour),
			ResetTokenDuration:        getDurationEnv("RESET_TOKEN_DURATION", time.Hour),
			PasswordHasher:            getEnv("PASSWORD_HASHER", HasherArgon2),
			BcryptCost:                getIntEnv("BCRYPT_COST", 12),
			MinPasswordLength:         getIntEnv("AUTH_MIN_PASSWORD_LENGTH", 8),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", "localhost"),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASS", ""),
			FromAddress:  getEnv("SMTP_FROM", "no-reply@eventhub.local"),
			FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:3000"),
			PublicAPIURL: getEnv("PUBLIC_API_URL", "http://localhost:8080"),
		},
		Notification: NotificationConfig{
			Queue:       getEnv("NOTIFY_QUEUE", QueueMemory),
			QueueSize:   getIntEnv("NOTIFY_QUEUE_SIZE", 1024),
			RedisKey:    getEnv("NOTIFY_REDIS_KEY", "notifications:outbox"),
			Workers:     getIntEnv("NOTIFY_WORKERS", 2),
			MaxRetries:  getIntEnv("NOTIFY_MAX_RETRIES", 3),
			RetryBase:   getDurationEnv("NOTIFY_RETRY_BASE", time.Second),
			PushTimeout: getDurationEnv("NOTIFY_PUSH_TIMEOUT", 200*time.Millisecond),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks key lengths and enumerated settings.
func (c *Config) Validate() error {
	if len(c.Auth.PasetoKey) != 32 {
		return fmt.Errorf("PASETO_KEY must be exactly 32 bytes, got %d", len(c.Auth.PasetoKey))
	}
	if len(c.Auth.LinkTokenSecret) < 32 {
		return fmt.Errorf("LINK_TOKEN_SECRET must be at least 32 bytes, got %d", len(c.Auth.LinkTokenSecret))
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Notification.Queue {
	case QueueMemory, QueueRedis:
	default:
		return fmt.Errorf("unsupported NOTIFY_QUEUE %q", c.Notification.Queue)
	}
	if c.Notification.Workers < 1 {
		return fmt.Errorf("NOTIFY_WORKERS must be positive, got %d", c.Notification.Workers)
	}

	switch c.Auth.PasswordHasher {
	case HasherArgon2, HasherBcrypt:
	default:
		return fmt.Errorf("unsupported PASSWORD_HASHER %q", c.Auth.PasswordHasher)
	}

	for name, d := range map[string]time.Duration{
		"SESSION_TOKEN_DURATION":      c.Auth.SessionTokenDuration,
		"VERIFICATION_TOKEN_DURATION": c.Auth.VerificationTokenDuration,
		"RESET_TOKEN_DURATION":        c.Auth.ResetTokenDuration,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	if c.Auth.MinPasswordLength < 1 {
		return fmt.Errorf("AUTH_MIN_PASSWORD_LENGTH must be positive, got %d", c.Auth.MinPasswordLength)
	}

	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)

	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// getDurationEnv accepts either a bare number of seconds or a Go duration
// string such as "90m".
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
