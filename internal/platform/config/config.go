// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server wires at startup. Empty PostgresURL,
// RedisURL, or KafkaBrokers fall back to in-memory implementations.
type Config struct {
	Addr          string
	PostgresURL   string
	RedisURL      string
	KafkaBrokers  []string
	AuditTopic    string
	JWTSigningKey string
	TokenTTL      time.Duration

	// MatchThreshold is the maximum accepted descriptor distance. Lower is
	// stricter; deployments in higher-security contexts should lower it.
	MatchThreshold float64

	ExtractorURL     string
	ExtractorTimeout time.Duration
}

// FromEnv reads configuration with development defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:             envOr("TRUSTFACE_ADDR", ":8080"),
		PostgresURL:      os.Getenv("TRUSTFACE_POSTGRES_URL"),
		RedisURL:         os.Getenv("TRUSTFACE_REDIS_URL"),
		AuditTopic:       envOr("TRUSTFACE_AUDIT_TOPIC", "trustface.audit"),
		JWTSigningKey:    envOr("TRUSTFACE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:         envDuration("TRUSTFACE_TOKEN_TTL", 30*time.Minute),
		MatchThreshold:   envFloat("TRUSTFACE_MATCH_THRESHOLD", 0.6),
		ExtractorURL:     envOr("TRUSTFACE_EXTRACTOR_URL", "http://localhost:9090"),
		ExtractorTimeout: envDuration("TRUSTFACE_EXTRACTOR_TIMEOUT", 10*time.Second),
	}
	if brokers := os.Getenv("TRUSTFACE_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
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

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
