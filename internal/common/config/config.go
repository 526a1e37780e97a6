// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Cache         CacheConfig        `mapstructure:"cache"`
	Alerts        AlertsConfig       `mapstructure:"alerts"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Scanner       ScannerConfig      `mapstructure:"scanner"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Address         string   `mapstructure:"address"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
	CORSOrigins     []string `mapstructure:"cors_origins"`
	DefaultPageSize int      `mapstructure:"default_page_size"`
	MaxPageSize     int      `mapstructure:"max_page_size"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig controls snapshot caching in Redis.
type CacheConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	SnapshotTTL int  `mapstructure:"snapshot_ttl"` // milliseconds
}

// AlertsConfig holds the threshold alert settings.
type AlertsConfig struct {
	StaleMinutes       int `mapstructure:"stale_minutes"`
	EvaluationInterval int `mapstructure:"evaluation_interval"` // milliseconds
}

// NotificationConfig holds settings for alert delivery.
type NotificationConfig struct {
	Email struct {
		Enabled   bool     `mapstructure:"enabled"`
		FromEmail string   `mapstructure:"from_email"`
		To        []string `mapstructure:"to"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled bool     `mapstructure:"enabled"`
		To      []string `mapstructure:"to"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// ScannerConfig holds settings for the VM log scanner.
type ScannerConfig struct {
	BasePath      string `mapstructure:"base_path"`
	ScanInterval  int    `mapstructure:"scan_interval"` // milliseconds
	RetentionDays int    `mapstructure:"retention_days"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
