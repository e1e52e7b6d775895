package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minJWTSecretLength = 32

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string
	LogLevel       string

	DatabaseURL string
	RedisURL    string

	JWTSecret     string
	JWTExpiration time.Duration
	JWTClaims     string
	BcryptCost    int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	MeiliSearchHost string
	MeiliMasterKey  string

	RateLimitPasswordReset time.Duration

	AdminSeedPassword string
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:       os.Getenv("LOG_LEVEL"),

		DatabaseURL: getEnv("DATABASE_URL", buildDSN()),
		RedisURL:    os.Getenv("REDIS_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTClaims: strings.ToLower(getEnv("JWT_CLAIMS", "minimal")),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnv("MAIL_FROM", os.Getenv("SMTP_USERNAME")),

		MeiliSearchHost: normalizeMeiliHost(os.Getenv("MEILISEARCH_HOST")),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		AdminSeedPassword: os.Getenv("ADMIN_SEED_PASSWORD"),
	}

	if len(cfg.JWTSecret) < minJWTSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be set and at least %d bytes long", minJWTSecretLength)
	}

	expirationMs, err := getInt("JWT_EXPIRATION_MS", 86400000)
	if err != nil {
		return nil, err
	}
	if expirationMs <= 0 {
		return nil, errors.New("JWT_EXPIRATION_MS must be positive")
	}
	cfg.JWTExpiration = time.Duration(expirationMs) * time.Millisecond

	if cfg.JWTClaims != "minimal" && cfg.JWTClaims != "full" {
		return nil, fmt.Errorf("invalid JWT_CLAIMS %q: expected minimal or full", cfg.JWTClaims)
	}

	if cfg.BcryptCost, err = getInt("BCRYPT_COST", 10); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}

	cfg.RateLimitPasswordReset, err = time.ParseDuration(getEnv("RATE_LIMIT_PASSWORD_RESET", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PASSWORD_RESET: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func buildDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		valueOrDefault("DB_HOST", "localhost"),
		valueOrDefault("DB_USER", "postgres"),
		os.Getenv("DB_PASS"),
		valueOrDefault("DB_NAME", "jobapp"),
		valueOrDefault("DB_PORT", "5432"),
	)
}

func normalizeMeiliHost(host string) string {
	if host == "" || strings.HasPrefix(host, "http") {
		return host
	}
	return "http://" + host + ":7700"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func valueOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
