package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Env struct {
	AppEnv  string
	Port    string
	BaseURL string
	// SecretKey signs the pending-MFA cookie.
	SecretKey string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	RedisAddr  string
	RedisPass  string
	RedisDB    int
	SessionTTL time.Duration

	MailProvider string
	MailFrom     string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	ResendAPIKey string

	MaxPasswordAttempts      int
	PasswordLockout          time.Duration
	MaxMFAAttempts           int
	MFALockout               time.Duration
	ChallengeTTL             time.Duration
	ActivationTTL            time.Duration
	ActivationResendInterval time.Duration
	ResetTTL                 time.Duration
	ResetInterval            time.Duration
	ResetDailyLimit          int

	RestrictDomains bool

	SeedAdminEmail    string
	SeedAdminNick     string
	SeedAdminPassword string
}

// LoadEnv reads .env when present and then the process environment.
func LoadEnv() (*Env, error) {
	_ = godotenv.Load()

	env := &Env{
		AppEnv:    getEnv("APP_ENV", "development"),
		Port:      getEnv("APP_PORT", "3000"),
		BaseURL:   strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:3000"), "/"),
		SecretKey: getEnv("SECRET_KEY", ""),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "qa_tracker"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "qa_tracker.db"),

		RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:    getEnvAsInt("REDIS_DB", 0),
		SessionTTL: getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		MailProvider: strings.ToLower(getEnv("MAIL_PROVIDER", "log")),
		MailFrom:     getEnv("MAIL_FROM", "no-reply@qa-tracker.local"),
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		ResendAPIKey: getEnv("RESEND_API_KEY", ""),

		MaxPasswordAttempts:      getEnvAsInt("AUTH_MAX_PASSWORD_ATTEMPTS", 5),
		PasswordLockout:          getEnvAsDuration("AUTH_PASSWORD_LOCKOUT", 30*time.Minute),
		MaxMFAAttempts:           getEnvAsInt("AUTH_MAX_MFA_ATTEMPTS", 5),
		MFALockout:               getEnvAsDuration("AUTH_MFA_LOCKOUT", 10*time.Minute),
		ChallengeTTL:             getEnvAsDuration("AUTH_MFA_CODE_TTL", 60*time.Minute),
		ActivationTTL:            getEnvAsDuration("AUTH_ACTIVATION_TTL", 12*time.Hour),
		ActivationResendInterval: getEnvAsDuration("AUTH_ACTIVATION_RESEND_INTERVAL", 24*time.Hour),
		ResetTTL:                 getEnvAsDuration("AUTH_RESET_TTL", 12*time.Hour),
		ResetInterval:            getEnvAsDuration("AUTH_RESET_INTERVAL", 5*time.Hour),
		ResetDailyLimit:          getEnvAsInt("AUTH_RESET_DAILY_LIMIT", 3),

		RestrictDomains: getEnvAsBool("REGISTRATION_RESTRICT_DOMAINS", false),

		SeedAdminEmail:    getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminNick:     getEnv("SEED_ADMIN_NICK", "admin"),
		SeedAdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
	}

	if err := env.validate(); err != nil {
		return nil, err
	}
	return env, nil
}

func (e *Env) IsProduction() bool {
	return e.AppEnv == "production"
}

func (e *Env) validate() error {
	switch e.DBDriver {
	case "postgres", "sqlite":
	default:
		return errors.New("DB_DRIVER must be postgres or sqlite")
	}
	switch e.MailProvider {
	case "smtp", "resend", "log":
	default:
		return errors.New("MAIL_PROVIDER must be smtp, resend or log")
	}
	if e.MailProvider == "resend" && e.ResendAPIKey == "" {
		return errors.New("RESEND_API_KEY is required when MAIL_PROVIDER=resend")
	}
	if e.SecretKey == "" {
		if e.IsProduction() {
			return errors.New("SECRET_KEY is required in production")
		}
		e.SecretKey = "dev-insecure-secret"
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return n
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return b
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return d
	}
	return fallback
}
