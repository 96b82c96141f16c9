package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Components receive the values they need through constructors; nothing reads
// the environment after Load returns.
type Config struct {
	AppPort string
	AppEnv  string

	// StoreDriver selects the secret/user storage backend: "dynamo" or "memory".
	StoreDriver string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	JWTSecret      string
	AccessTokenTTL time.Duration

	OTPTTL           time.Duration
	OTPMaxAttempts   int
	OTPSweepInterval time.Duration

	RefreshTokenExpiryDays int
	RefreshSweepInterval   time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users         string
	OTPSecrets    string
	RefreshTokens string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		StoreDriver: getEnv("STORE_DRIVER", "memory"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:         getEnv("DYNAMO_TABLE_USERS", "users"),
			OTPSecrets:    getEnv("DYNAMO_TABLE_OTP_SECRETS", "otp_secrets"),
			RefreshTokens: getEnv("DYNAMO_TABLE_REFRESH_TOKENS", "refresh_tokens"),
		},

		JWTSecret:      getEnv("JWT_SECRET", ""),
		AccessTokenTTL: getEnvDuration("ACCESS_TOKEN_TTL", time.Hour),

		OTPTTL:           getEnvDuration("OTP_TTL", 10*time.Minute),
		OTPMaxAttempts:   getEnvInt("OTP_MAX_ATTEMPTS", 5),
		OTPSweepInterval: getEnvDuration("OTP_SWEEP_INTERVAL", time.Minute),

		RefreshTokenExpiryDays: getEnvInt("REFRESH_TOKEN_EXPIRY_DAYS", 30),
		RefreshSweepInterval:   getEnvDuration("REFRESH_SWEEP_INTERVAL", time.Hour),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@notespace.app"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// IsProduction reports whether the service runs with production hardening
// (magic-link developer channel disabled).
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// RefreshTokenTTL returns the refresh token lifetime as a duration.
func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpiryDays) * 24 * time.Hour
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
