package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for gatehouse-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Outbound notification configuration
	Notifications NotificationsConfig `yaml:"notifications"`

	// Preregistration housekeeping configuration
	Preregistrations PreregistrationsConfig `yaml:"preregistrations"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether JWT tokens are validated.
	// Set to false for local development without an identity provider.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	// Format: "issuer1=url1,issuer2=url2"
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:""`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr (not from config file).
	JWKSEndpoints map[string]string `yaml:"-"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"gatehouse"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"gatehouse_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// NotificationsConfig holds settings for the outbound notification pipeline.
// Webhook targets live in the database; only the email relay is configured
// here, since its credentials and recipient list are operator-owned.
type NotificationsConfig struct {
	EmailEnabled          bool `yaml:"email_enabled" env:"NOTIFY_EMAIL_ENABLED" env-default:"false"`
	EmailNotifyOnCheckin  bool `yaml:"email_notify_on_checkin" env:"NOTIFY_EMAIL_ON_CHECKIN" env-default:"true"`
	EmailNotifyOnCheckout bool `yaml:"email_notify_on_checkout" env:"NOTIFY_EMAIL_ON_CHECKOUT" env-default:"false"`

	SMTPHost     string `yaml:"smtp_host" env:"SMTP_HOST" env-default:""`
	SMTPPort     int    `yaml:"smtp_port" env:"SMTP_PORT" env-default:"587"`
	SMTPUsername string `yaml:"smtp_username" env:"SMTP_USERNAME" env-default:""`
	SMTPPassword string `yaml:"-" env:"SMTP_PASSWORD"` // Secret - not in YAML
	EmailFrom    string `yaml:"email_from" env:"NOTIFY_EMAIL_FROM" env-default:""`

	// EmailRecipientsStr is a comma-separated recipient list.
	EmailRecipientsStr string `yaml:"email_recipients" env:"NOTIFY_EMAIL_RECIPIENTS" env-default:""`

	// EmailRecipients is the parsed list from EmailRecipientsStr (not from config file).
	EmailRecipients []string `yaml:"-"`
}

// PreregistrationsConfig holds settings for the expiry sweep that marks
// overdue pending pre-registrations as expired.
type PreregistrationsConfig struct {
	ExpirySweepMinutes int `yaml:"expiry_sweep_minutes" env:"PREREG_EXPIRY_SWEEP_MINUTES" env-default:"15"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// Environment variables override YAML values. Secrets (PGPASSWORD,
// SMTP_PASSWORD) must come from environment variables (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.parseComplexFields(); err != nil {
		return nil, fmt.Errorf("failed to parse config fields: %w", err)
	}

	return cfg, nil
}

// parseComplexFields handles fields that need post-processing after loading.
func (c *Config) parseComplexFields() error {
	c.Auth.JWKSEndpoints = parseJWKSEndpoints(c.Auth.JWKSEndpointsStr)
	c.Notifications.EmailRecipients = parseRecipients(c.Notifications.EmailRecipientsStr)

	if c.Auth.EnableVerification && len(c.Auth.JWKSEndpoints) == 0 {
		return fmt.Errorf("auth verification enabled but no JWKS endpoints configured")
	}
	if c.Notifications.EmailEnabled && len(c.Notifications.EmailRecipients) == 0 {
		return fmt.Errorf("email notifications enabled but no recipients configured")
	}
	return nil
}

// parseJWKSEndpoints parses the JWKS endpoints string into a map.
// Format: "issuer1=url1,issuer2=url2"
func parseJWKSEndpoints(value string) map[string]string {
	endpoints := make(map[string]string)
	if value == "" {
		return endpoints
	}

	pairs := strings.Split(value, ",")
	for _, pair := range pairs {
		parts := strings.Split(pair, "=")
		if len(parts) == 2 {
			endpoints[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return endpoints
}

// parseRecipients splits a comma-separated address list, dropping empties.
func parseRecipients(value string) []string {
	if value == "" {
		return nil
	}
	var recipients []string
	for _, addr := range strings.Split(value, ",") {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			recipients = append(recipients, addr)
		}
	}
	return recipients
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
