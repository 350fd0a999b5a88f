package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Mail      MailConfig      `yaml:"mail"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	Session   SessionConfig   `yaml:"session"`
	Log       LogConfig       `yaml:"log"`
	Rentals   RentalsConfig   `yaml:"rentals"`
	Reminders ReminderConfig  `yaml:"reminders"`
	Outbox    OutboxConfig    `yaml:"outbox"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Firebase  FirebaseConfig  `yaml:"firebase"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP and gRPC health listener settings
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	HealthGRPCPort int    `yaml:"health_grpc_port"` // 0 disables the gRPC health listener
	PublicBaseURL  string `yaml:"public_base_url"`  // used to build tracking links in emails
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Driver       string `yaml:"driver"` // "postgres" (lib/pq) or "pgx"
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
}

// MailConfig selects the outbound transport. Empty provider means "smtp if configured".
type MailConfig struct {
	Provider string `yaml:"provider"` // "smtp", "sendgrid" or ""
	FromName string `yaml:"from_name"`
}

// SMTPConfig contains email service settings
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type SendGridConfig struct {
	APIKey string `yaml:"api_key"`
	From   string `yaml:"from"`
}

// RedisConfig configures the tracking cache. Empty address disables caching.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConfig contains bearer token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// SessionConfig contains gorilla/sessions settings
type SessionConfig struct {
	Secret string `yaml:"secret"`
	Store  string `yaml:"store"` // "cookie" or "filesystem"
	Dir    string `yaml:"dir"`   // for the filesystem store
	MaxAge int    `yaml:"max_age_seconds"`
	Secure bool   `yaml:"secure"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

type RentalsConfig struct {
	EnforceTransitions bool  `yaml:"enforce_transitions"`
	DefaultPricePerDay int64 `yaml:"default_price_per_day"`
	DefaultRentalDays  int   `yaml:"default_rental_days"`
}

type ReminderConfig struct {
	DaysBefore int    `yaml:"days_before"`
	Dedupe     bool   `yaml:"dedupe"`
	Timezone   string `yaml:"timezone"`
}

type OutboxConfig struct {
	BatchSize           int `yaml:"batch_size"`
	ClaimTimeoutMinutes int `yaml:"claim_timeout_minutes"`
}

type TrackingConfig struct {
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

// FirebaseConfig enables driver push notifications when a credentials file is set.
type FirebaseConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	SendReturnReminders string `yaml:"send_return_reminders"`
	DrainOutbox         string `yaml:"drain_outbox"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse builds a configuration from YAML bytes, applying environment overrides and defaults
func Parse(data []byte) (*Config, error) {
	cfg := Config{
		Rentals:   RentalsConfig{EnforceTransitions: true},
		Reminders: ReminderConfig{Dedupe: true},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_DRIVER"); val != "" {
		c.Database.Driver = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Mail
	if val := os.Getenv("MAIL_PROVIDER"); val != "" {
		c.Mail.Provider = val
	}
	if val := os.Getenv("SMTP_HOST"); val != "" {
		c.SMTP.Host = val
	}
	if val := os.Getenv("SMTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.SMTP.Port)
	}
	if val := os.Getenv("SMTP_USER"); val != "" {
		c.SMTP.User = val
	}
	if val := os.Getenv("SMTP_PASSWORD"); val != "" {
		c.SMTP.Password = val
	}
	if val := os.Getenv("SMTP_FROM"); val != "" {
		c.SMTP.From = val
	}
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}

	// Redis
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_USER"); val != "" {
		c.Redis.User = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// Auth
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}
	if val := os.Getenv("SESSION_SECRET"); val != "" {
		c.Session.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("PUBLIC_BASE_URL"); val != "" {
		c.Server.PublicBaseURL = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if val := os.Getenv("FIREBASE_CREDENTIALS_FILE"); val != "" {
		c.Firebase.CredentialsFile = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.HealthGRPCPort < 0 || c.Server.HealthGRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC health port: %d", c.Server.HealthGRPCPort)
	}
	c.Server.PublicBaseURL = strings.TrimRight(c.Server.PublicBaseURL, "/")
	if c.Server.PublicBaseURL == "" {
		c.Server.PublicBaseURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}

	// Database validation
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "pgx" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	// Mail is optional; without a transport notifications are only logged.
	switch c.Mail.Provider {
	case "", "smtp", "sendgrid":
	default:
		return fmt.Errorf("unsupported mail provider: %s", c.Mail.Provider)
	}
	if c.SMTP.Host != "" && (c.SMTP.Port <= 0 || c.SMTP.Port > 65535) {
		return fmt.Errorf("invalid SMTP port: %d", c.SMTP.Port)
	}
	if c.Mail.Provider == "sendgrid" && c.SendGrid.APIKey == "" {
		return fmt.Errorf("sendgrid api key is required when mail provider is sendgrid")
	}
	if c.Mail.FromName == "" {
		c.Mail.FromName = "Arriendo de Cajas"
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 12 * 60
	}

	// Session validation
	if c.Session.Secret == "" {
		c.Session.Secret = c.JWT.Secret
	}
	if c.Session.Store == "" {
		c.Session.Store = "cookie"
	}
	if c.Session.Store != "cookie" && c.Session.Store != "filesystem" {
		return fmt.Errorf("unsupported session store: %s", c.Session.Store)
	}
	if c.Session.MaxAge == 0 {
		c.Session.MaxAge = 8 * 3600
	}

	// Rental defaults
	if c.Rentals.DefaultRentalDays == 0 {
		c.Rentals.DefaultRentalDays = 7
	}

	// Reminder defaults
	if c.Reminders.DaysBefore == 0 {
		c.Reminders.DaysBefore = 2
	}
	if c.Reminders.DaysBefore < 0 {
		return fmt.Errorf("reminder days_before must be positive: %d", c.Reminders.DaysBefore)
	}
	if c.Reminders.Timezone == "" {
		c.Reminders.Timezone = "America/Santiago"
	}
	if _, err := time.LoadLocation(c.Reminders.Timezone); err != nil {
		return fmt.Errorf("invalid reminder timezone %q: %w", c.Reminders.Timezone, err)
	}

	// Outbox defaults
	if c.Outbox.BatchSize == 0 {
		c.Outbox.BatchSize = 50
	}
	if c.Outbox.ClaimTimeoutMinutes == 0 {
		c.Outbox.ClaimTimeoutMinutes = 10
	}

	if c.Tracking.CacheTTLSeconds == 0 {
		c.Tracking.CacheTTLSeconds = 300
	}

	// Scheduler defaults
	if c.Scheduler.SendReturnReminders == "" {
		c.Scheduler.SendReturnReminders = "0 0 9 * * *" // Daily at 9 AM
	}
	if c.Scheduler.DrainOutbox == "" {
		c.Scheduler.DrainOutbox = "0 */1 * * * *" // Every minute
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetHealthAddress returns the gRPC health server address
func (c *Config) GetHealthAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HealthGRPCPort)
}

// Location returns the business timezone used for date comparisons
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Reminders.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ClaimTimeout returns how long an outbox entry may stay in processing before it is reclaimed
func (c *Config) ClaimTimeout() time.Duration {
	return time.Duration(c.Outbox.ClaimTimeoutMinutes) * time.Minute
}

// TrackingCacheTTL returns the lifetime of cached tracking views
func (c *Config) TrackingCacheTTL() time.Duration {
	return time.Duration(c.Tracking.CacheTTLSeconds) * time.Second
}

// AccessTokenTTL returns the lifetime of bearer tokens
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWT.AccessTokenExpiry) * time.Minute
}
