package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            int
	DatabaseURL     string
	NatsURL         string
	NatsToken       string
	LogLevel        string
	AnthropicAPIKey string
	AnthropicModel  string
	LLMTimeout      time.Duration
	JWTSecret       string
	TokenTTL        time.Duration
}

func Load() Config {
	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	return Config{
		Port:            envInt("SOMNIARY_PORT", 8420),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		NatsURL:         envStr("NATS_URL", "nats://localhost:4222"),
		NatsToken:       envStr("NATS_TOKEN", ""),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("SOMNIARY_MODEL", "claude-sonnet-4-20250514"),
		LLMTimeout:      envDuration("LLM_TIMEOUT", 90*time.Second),
		JWTSecret:       envStr("JWT_SECRET", ""),
		TokenTTL:        envDuration("TOKEN_TTL", 24*time.Hour),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
