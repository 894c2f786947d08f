package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DBConfig holds the master database configuration
type DBConfig struct {
	URL             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// TenantPoolConfig holds the per-tenant connection pool settings
type TenantPoolConfig struct {
	Size            int
	TTL             time.Duration
	CloseGrace      time.Duration
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// MongoConfig holds the legacy MongoDB configuration
type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Env             string
	ShutdownTimeout time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// DeveloperConfig holds the developer-mode login
type DeveloperConfig struct {
	Email        string
	PasswordHash string
}

// RetentionConfig holds the cleanup job configuration
type RetentionConfig struct {
	Enabled  bool
	Schedule string
}

// MigrationConfig holds tenant migration runner configuration
type MigrationConfig struct {
	Concurrency int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// Config holds all configuration
type Config struct {
	ServiceName string
	Master      DBConfig
	TenantPool  TenantPoolConfig
	Mongo       MongoConfig
	Server      ServerConfig
	JWT         JWTConfig
	Developer   DeveloperConfig
	Retention   RetentionConfig
	Migration   MigrationConfig
	Log         LogConfig
}

// Load loads configuration from an optional .env file and the environment
func Load(serviceName string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	config := &Config{
		ServiceName: serviceName,
		Master: DBConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 50),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		TenantPool: TenantPoolConfig{
			Size:            getEnvAsInt("TENANT_POOL_SIZE", 64),
			TTL:             getEnvAsDuration("TENANT_POOL_TTL", 30*time.Minute),
			CloseGrace:      getEnvAsDuration("TENANT_POOL_CLOSE_GRACE", 5*time.Minute),
			MaxIdleConns:    getEnvAsInt("TENANT_DB_MAX_IDLE_CONNS", 2),
			MaxOpenConns:    getEnvAsInt("TENANT_DB_MAX_OPEN_CONNS", 10),
			ConnMaxLifetime: getEnvAsDuration("TENANT_DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGODB_URI", ""),
			Database: getEnv("MONGODB_DATABASE", "fuelone"),
			Timeout:  getEnvAsDuration("MONGODB_TIMEOUT", 10*time.Second),
		},
		Server: ServerConfig{
			Port:            getEnv("PORT", "5000"),
			Env:             getEnv("APP_ENV", "development"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SECRET", ""),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Developer: DeveloperConfig{
			Email:        strings.ToLower(getEnv("DEVELOPER_EMAIL", "")),
			PasswordHash: getEnv("DEVELOPER_PASSWORD_HASH", ""),
		},
		Retention: RetentionConfig{
			Enabled:  getEnvAsBool("RETENTION_ENABLED", true),
			Schedule: getEnv("RETENTION_SCHEDULE", "0 2 * * *"),
		},
		Migration: MigrationConfig{
			Concurrency: getEnvAsInt("MIGRATION_CONCURRENCY", 4),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.Master.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWT.SigningKey == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.TenantPool.Size <= 0 {
		return fmt.Errorf("TENANT_POOL_SIZE must be positive, got %d", c.TenantPool.Size)
	}
	if c.Migration.Concurrency <= 0 {
		c.Migration.Concurrency = 1
	}
	return nil
}

// LogFields returns the configuration as zap fields, with secrets masked
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("database_url", MaskDSN(c.Master.URL)),
		zap.String("mongodb_uri", MaskDSN(c.Mongo.URI)),
		zap.String("port", c.Server.Port),
		zap.Int("tenant_pool_size", c.TenantPool.Size),
		zap.Duration("tenant_pool_ttl", c.TenantPool.TTL),
		zap.Duration("tenant_pool_close_grace", c.TenantPool.CloseGrace),
		zap.Bool("retention_enabled", c.Retention.Enabled),
	}
}

// MaskDSN hides the password of a URL style connection string. Key/value
// DSNs are masked entirely.
func MaskDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "***MASKED***"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as booleans
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
