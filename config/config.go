package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	// MinSessionSecretLength is the minimum required length for session secret in production
	MinSessionSecretLength = 32
)

type Config struct {
	ServerPort  string
	Environment string

	// Database: a local SQLite file, or a hosted libSQL (Turso) database when TursoDatabaseURL is set
	DBPath           string
	TursoDatabaseURL string
	TursoAuthToken   string

	// Object storage (Cloudflare R2), falls back to UploadDir on the local filesystem
	UploadDir         string
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	// Email (Resend)
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string
	EmailTestMode bool // When true, emails are logged instead of sent

	// Other
	AllowedOrigins []string
	AppURL         string
	SessionSecret  string
	FAQRulesPath   string // Optional YAML override for the chat FAQ rule table
	ChatRateLimit  int    // Chat webhook requests per minute per IP
}

// LoadEnvFile loads a .env file if present. It reports whether one was found.
func LoadEnvFile() bool {
	return godotenv.Load() == nil
}

func Load(logger *zap.Logger) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	environment := getEnv(logger, "ENVIRONMENT", "development")
	sessionSecret := os.Getenv("SESSION_SECRET")

	if err := ValidateSessionSecret(logger, sessionSecret, environment); err != nil {
		return nil, err
	}

	// In development, generate a secure secret if none provided
	if sessionSecret == "" && environment != "production" {
		sessionSecret = GenerateSecureSecret()
		logger.Info("generated temporary session secret for development; set SESSION_SECRET for persistence")
	}

	return &Config{
		ServerPort:        getEnv(logger, "SERVER_PORT", "8080"),
		Environment:       environment,
		DBPath:            getEnv(logger, "DB_PATH", "db/console.db"),
		TursoDatabaseURL:  os.Getenv("TURSO_DATABASE_URL"),
		TursoAuthToken:    os.Getenv("TURSO_AUTH_TOKEN"),
		UploadDir:         getEnv(logger, "UPLOAD_DIR", "static/uploads"),
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),
		ResendAPIKey:      os.Getenv("RESEND_API_KEY"),
		EmailFrom:         getEnv(logger, "EMAIL_FROM", "noreply@marketplace.local"),
		EmailFromName:     getEnv(logger, "EMAIL_FROM_NAME", "Marketplace Console"),
		EmailTestMode:     getEnvBool("EMAIL_TEST_MODE", true), // Default true for safety
		AllowedOrigins:    strings.Split(getEnv(logger, "ALLOWED_ORIGINS", "*"), ","),
		AppURL:            getEnv(logger, "APP_URL", "http://localhost:8080"),
		SessionSecret:     sessionSecret,
		FAQRulesPath:      os.Getenv("FAQ_RULES_PATH"),
		ChatRateLimit:     getEnvInt("CHAT_RATE_LIMIT", 30),
	}, nil
}

// UsesTurso reports whether the hosted libSQL database is configured.
func (c *Config) UsesTurso() bool {
	return c.TursoDatabaseURL != ""
}

// UsesR2 reports whether all R2 credentials are present.
func (c *Config) UsesR2() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != ""
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(logger *zap.Logger, key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		logger.Debug("using default config value", zap.String("key", key), zap.String("value", defaultValue))
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept common boolean representations
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

// ValidateSessionSecret validates the session secret meets security requirements.
// In production it must be at least 32 bytes and not a known insecure default.
func ValidateSessionSecret(logger *zap.Logger, secret string, environment string) error {
	insecureDefaults := []string{
		"dev-secret-change-in-production",
		"change-me",
		"secret",
		"development",
		"test",
		"",
	}

	for _, insecure := range insecureDefaults {
		if strings.EqualFold(secret, insecure) {
			if environment == "production" {
				return fmt.Errorf("SESSION_SECRET is set to an insecure default value; generate one with: openssl rand -base64 32")
			}
			logger.Warn("SESSION_SECRET is set to an insecure default value; acceptable only in development")
			return nil
		}
	}

	if environment == "production" && len(secret) < MinSessionSecretLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters in production (current: %d)", MinSessionSecretLength, len(secret))
	}

	return nil
}

// GenerateSecureSecret generates a cryptographically secure random secret
func GenerateSecureSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(bytes)
}
