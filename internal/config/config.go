// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode            string        `mapstructure:"GIN_MODE"`
	ServerHost         string        `mapstructure:"SERVER_HOST"`
	ServerPort         string        `mapstructure:"SERVER_PORT"`
	ServerTimeout      time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`
	CORSAllowedOrigins []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// Database Configuration
	DBDriver          string        `mapstructure:"DB_DRIVER"`
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	DBSQLitePath      string        `mapstructure:"DB_SQLITE_PATH"`
	DBAutoMigrate     bool          `mapstructure:"DB_AUTO_MIGRATE"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Auth
	JWTSecretKey       string `mapstructure:"JWT_SECRET_KEY"`
	JWTIssuer          string `mapstructure:"JWT_ISSUER"`
	AllowedEmailDomain string `mapstructure:"ALLOWED_EMAIL_DOMAIN"`

	// Firebase Configuration (optional identity provider)
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	FirebaseProjectID             string `mapstructure:"FIREBASE_PROJECT_ID"`

	// Elasticsearch Configuration (optional item search)
	ElasticsearchURL string `mapstructure:"ELASTICSEARCH_URL"`

	// Storage
	ImageStoragePath   string `mapstructure:"IMAGE_STORAGE_PATH"`
	ImagePublicBaseURL string `mapstructure:"IMAGE_PUBLIC_BASE_URL"`
	MaxProofImageBytes int64  `mapstructure:"MAX_PROOF_IMAGE_BYTES"`

	// Items
	ItemRequireApproval bool          `mapstructure:"ITEM_REQUIRE_APPROVAL"`
	ItemSummaryCacheTTL time.Duration `mapstructure:"ITEM_SUMMARY_CACHE_TTL_MINUTES"`

	// Mail
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`

	// Background workers
	WorkerCount     int `mapstructure:"WORKER_COUNT"`
	WorkerQueueSize int `mapstructure:"WORKER_QUEUE_SIZE"`

	// Rate limiting for message endpoints
	MessageRatePerSecond float64 `mapstructure:"MESSAGE_RATE_PER_SECOND"`
	MessageRateBurst     int     `mapstructure:"MESSAGE_RATE_BURST"`

	// Cron Jobs
	ClaimReminderJobSchedule string        `mapstructure:"CLAIM_REMINDER_JOB_SCHEDULE"`
	ClaimReminderAfter       time.Duration `mapstructure:"CLAIM_REMINDER_AFTER_HOURS"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()

	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "campus_lostfound_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)
	v.SetDefault("DB_SQLITE_PATH", "campus_lostfound.db")
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("JWT_SECRET_KEY", "")
	v.SetDefault("JWT_ISSUER", "campus_lostfound_backend")
	v.SetDefault("ALLOWED_EMAIL_DOMAIN", "")

	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "")

	v.SetDefault("ELASTICSEARCH_URL", "")

	v.SetDefault("IMAGE_STORAGE_PATH", "./images")
	v.SetDefault("IMAGE_PUBLIC_BASE_URL", "/images")
	v.SetDefault("MAX_PROOF_IMAGE_BYTES", 5<<20)

	v.SetDefault("ITEM_REQUIRE_APPROVAL", false)
	v.SetDefault("ITEM_SUMMARY_CACHE_TTL_MINUTES", 10)

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "no-reply@lostfound.local")

	v.SetDefault("WORKER_COUNT", 4)
	v.SetDefault("WORKER_QUEUE_SIZE", 100)

	v.SetDefault("MESSAGE_RATE_PER_SECOND", 2)
	v.SetDefault("MESSAGE_RATE_BURST", 10)

	v.SetDefault("CLAIM_REMINDER_JOB_SCHEDULE", "@hourly")
	v.SetDefault("CLAIM_REMINDER_AFTER_HOURS", 48)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.ItemSummaryCacheTTL = time.Duration(v.GetInt("ITEM_SUMMARY_CACHE_TTL_MINUTES")) * time.Minute
	cfg.ClaimReminderAfter = time.Duration(v.GetInt("CLAIM_REMINDER_AFTER_HOURS")) * time.Hour

	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.AllowedEmailDomain = strings.ToLower(strings.TrimSpace(cfg.AllowedEmailDomain))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWTSecretKey) == "" && strings.TrimSpace(c.FirebaseServiceAccountKeyPath) == "" {
		return fmt.Errorf("FATAL: neither JWT_SECRET_KEY nor FIREBASE_SERVICE_ACCOUNT_KEY_PATH is set; no way to authenticate requests")
	}
	if c.FirebaseServiceAccountKeyPath != "" {
		if _, err := os.Stat(c.FirebaseServiceAccountKeyPath); os.IsNotExist(err) {
			return fmt.Errorf("FATAL: Firebase service account key file specified in FIREBASE_SERVICE_ACCOUNT_KEY_PATH (%s) not found", c.FirebaseServiceAccountKeyPath)
		}
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("FATAL: unsupported DB_DRIVER %q (expected postgres or sqlite)", c.DBDriver)
	}
	return nil
}

// PostgresDSN builds the GORM DSN from the individual DB_* parameters.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode, c.DBTimezone)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
