package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config carries the server and worker settings, loaded from the
// environment.
type Config struct {
	DBURL                string
	RedisURL             string
	APIPort              string
	Webroot              string
	JWTSecret            string
	GithubFallbackTokens []string
	RequirePluginTokens  bool
	WorkerConcurrency    int
}

// Load reads the configuration from environment variables and fails
// hard when a required value is missing.
func Load() Config {
	cfg := Config{
		DBURL:                os.Getenv("DATABASE_URL"),
		RedisURL:             getEnv("REDIS_URL", "redis://localhost:6379/0"),
		APIPort:              getEnv("PORT", "8080"),
		Webroot:              getEnv("COMPOSER_WEBROOT", "./webroot"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		GithubFallbackTokens: splitTokens(os.Getenv("GITHUB_FALLBACK_TOKENS")),
		RequirePluginTokens:  getEnvBool("REQUIRE_PLUGIN_VCS_TOKENS", true),
		WorkerConcurrency:    getEnvInt("WORKER_CONCURRENCY", 4),
	}

	if cfg.DBURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return defaultValue
	}
	return parsed
}

func splitTokens(raw string) []string {
	if raw == "" {
		return nil
	}
	var tokens []string
	for _, tok := range strings.Split(raw, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
