package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr        string
	DatabaseURL string
	Environment string

	EmailFrom    string
	EmailEnabled bool
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPUseTLS   bool

	RunMigrations bool
	MigrationsDir string

	PayslipDir           string
	PayslipEncryptionKey string

	RunWorkers      int
	JobQueueSize    int
	JobMaxAttempts  int
	JobRetryBackoff time.Duration

	MetricsEnabled bool
}

func Load() Config {
	return Config{
		Addr:                 getEnv("APP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		Environment:          getEnv("APP_ENV", "development"),
		EmailFrom:            getEnv("EMAIL_FROM", "payroll@example.com"),
		EmailEnabled:         getEnvBool("EMAIL_ENABLED", false),
		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             getEnvInt("SMTP_PORT", 587),
		SMTPUser:             getEnv("SMTP_USER", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:           getEnvBool("SMTP_USE_TLS", true),
		RunMigrations:        getEnvBool("RUN_MIGRATIONS", true),
		MigrationsDir:        getEnv("MIGRATIONS_DIR", "migrations"),
		PayslipDir:           getEnv("PAYSLIP_DIR", "storage/payslips"),
		PayslipEncryptionKey: getEnv("PAYSLIP_ENCRYPTION_KEY", ""),
		RunWorkers:           getEnvInt("PAYROLL_RUN_WORKERS", 4),
		JobQueueSize:         getEnvInt("JOB_QUEUE_SIZE", 128),
		JobMaxAttempts:       getEnvInt("JOB_MAX_ATTEMPTS", 5),
		JobRetryBackoff:      getEnvDuration("JOB_RETRY_BACKOFF", 2*time.Second),
		MetricsEnabled:       getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	if c.RunWorkers <= 0 {
		return fmt.Errorf("PAYROLL_RUN_WORKERS must be positive")
	}
	if c.JobMaxAttempts <= 0 {
		return fmt.Errorf("JOB_MAX_ATTEMPTS must be positive")
	}
	if c.Environment == "production" && c.PayslipEncryptionKey == "" {
		return fmt.Errorf("PAYSLIP_ENCRYPTION_KEY must be set in production")
	}
	return nil
}
