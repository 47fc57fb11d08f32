package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	LogMode         string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	SessionDuration time.Duration
	RoundSessionTTL time.Duration
	ContentPath     string
	RedisURL        string

	JWTSecret  string
	CSRFSecret string

	// RoleMap is a comma separated list of email=role pairs
	RoleMap     string
	CoachEmails []string

	CORSOrigins []string

	GoogleClientID       string
	GoogleClientSecret   string
	OAuthRedirectBaseURL string

	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string

	// AuthRateLimit is the number of sign-in attempts allowed per client per minute
	AuthRateLimit int
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		LogMode:         getEnv("LOG_MODE", "dev"),
		DatabaseType:    getEnv("DB_TYPE", "sqlite"),
		DatabasePath:    getEnv("DB_PATH", "./englishcamp.db"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SessionDuration: getDuration("SESSION_DURATION", 7*24*time.Hour),
		RoundSessionTTL: getDuration("ROUND_SESSION_TTL", 2*time.Hour),
		ContentPath:     getEnv("CONTENT_PATH", ""),
		RedisURL:        getEnv("REDIS_URL", ""),

		JWTSecret:  getEnv("JWT_SECRET", "change-me-in-production"),
		CSRFSecret: getEnv("CSRF_SECRET", "change-me-in-production"),

		RoleMap:     getEnv("ROLE_MAP", ""),
		CoachEmails: getList("COACH_EMAILS"),

		CORSOrigins: getList("CORS_ORIGINS"),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", ""),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "English Camp"),
		AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:8080"),

		AuthRateLimit: getInt("AUTH_RATE_LIMIT", 10),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

// getList splits a comma separated variable, dropping empty entries
func getList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
