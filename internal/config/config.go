// Package config loads service configuration from defaults, an optional YAML
// file and environment variables, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"dashboard_backend/pkg/utils"

	"gopkg.in/yaml.v3"
)

// Auth modes.
const (
	AuthModeHeader = "header"
	AuthModeJWT    = "jwt"
)

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Events   EventsConfig   `yaml:"events"`
	Logging  LoggingConfig  `yaml:"logging"`
	Export   ExportConfig   `yaml:"export"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port               string        `yaml:"port"`
	GinMode            string        `yaml:"gin_mode"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	MaxBodyBytes       int64         `yaml:"max_body_bytes"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig configures the Postgres pool. URL wins over the discrete fields.
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

// AuthConfig selects how the caller identity is resolved.
type AuthConfig struct {
	Mode      string        `yaml:"mode"`
	Header    string        `yaml:"header"`
	JWTSecret string        `yaml:"jwt_secret"`
	JWTIssuer string        `yaml:"jwt_issuer"`
	JWTTTL    time.Duration `yaml:"jwt_ttl"`
}

// EventsConfig configures change notifications. Empty NATSURL disables them.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ExportConfig configures the settings export destination.
type ExportConfig struct {
	S3Bucket   string `yaml:"s3_bucket"`
	S3Key      string `yaml:"s3_key"`
	S3Region   string `yaml:"s3_region"`
	S3Endpoint string `yaml:"s3_endpoint"`
	PageSize   int    `yaml:"page_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               "8080",
			GinMode:            "release",
			CORSAllowedOrigins: []string{"http://localhost:3000", "http://localhost:3001"},
			MaxBodyBytes:       64 << 10,
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       15 * time.Second,
			ShutdownTimeout:    10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            "5432",
			User:            "dashboard_user",
			Password:        "dashboard_password",
			Name:            "dashboard_db",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			AutoMigrate:     true,
		},
		Auth: AuthConfig{
			Mode:   AuthModeHeader,
			Header: "x-user-id",
			JWTTTL: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Export: ExportConfig{
			S3Key:    "settings/export.jsonl",
			S3Region: "us-east-1",
			PageSize: 500,
		},
	}
}

// Load builds the configuration. path may be empty, in which case APP_CONFIG
// is consulted; a missing file at an explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("APP_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	c.Server.Port = utils.Getenv("PORT", c.Server.Port)
	c.Server.GinMode = utils.Getenv("GIN_MODE", c.Server.GinMode)
	c.Server.CORSAllowedOrigins = utils.GetenvList("CORS_ALLOWED_ORIGINS", c.Server.CORSAllowedOrigins)
	c.Server.MaxBodyBytes = utils.GetenvInt64("MAX_BODY_BYTES", c.Server.MaxBodyBytes)

	c.Database.URL = utils.Getenv("DATABASE_URL", c.Database.URL)
	c.Database.Host = utils.Getenv("DB_HOST", c.Database.Host)
	c.Database.Port = utils.Getenv("DB_PORT", c.Database.Port)
	c.Database.User = utils.Getenv("DB_USER", c.Database.User)
	c.Database.Password = utils.Getenv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = utils.Getenv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = utils.Getenv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.AutoMigrate = utils.GetenvBool("DB_AUTO_MIGRATE", c.Database.AutoMigrate)

	c.Auth.Mode = strings.ToLower(utils.Getenv("AUTH_MODE", c.Auth.Mode))
	c.Auth.Header = utils.Getenv("AUTH_HEADER", c.Auth.Header)
	c.Auth.JWTSecret = utils.Getenv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.JWTIssuer = utils.Getenv("JWT_ISSUER", c.Auth.JWTIssuer)
	c.Auth.JWTTTL = utils.GetenvDuration("JWT_TTL", c.Auth.JWTTTL)

	c.Events.NATSURL = utils.Getenv("NATS_URL", c.Events.NATSURL)

	c.Logging.Level = utils.Getenv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = utils.Getenv("LOG_FORMAT", c.Logging.Format)

	c.Export.S3Bucket = utils.Getenv("EXPORT_S3_BUCKET", c.Export.S3Bucket)
	c.Export.S3Key = utils.Getenv("EXPORT_S3_KEY", c.Export.S3Key)
	c.Export.S3Region = utils.Getenv("EXPORT_S3_REGION", c.Export.S3Region)
	c.Export.S3Endpoint = utils.Getenv("EXPORT_S3_ENDPOINT", c.Export.S3Endpoint)
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be positive"))
	}
	switch c.Auth.Mode {
	case AuthModeHeader:
		if strings.TrimSpace(c.Auth.Header) == "" {
			errs = append(errs, errors.New("auth.header is required in header mode"))
		}
	case AuthModeJWT:
		if c.Auth.JWTSecret == "" {
			errs = append(errs, errors.New("auth.jwt_secret is required in jwt mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.mode %q is not one of %s, %s", c.Auth.Mode, AuthModeHeader, AuthModeJWT))
	}
	if c.Export.PageSize <= 0 {
		errs = append(errs, errors.New("export.page_size must be positive"))
	}
	return errors.Join(errs...)
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}
