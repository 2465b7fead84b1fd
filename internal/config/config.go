// Package config loads the service's environment-driven configuration,
// grounded on internal/config/loader.go's env-first, firstNonEmpty idiom:
// read once at startup, apply defaults, fail fast on missing requireds.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config bundles every environment-derived setting the service needs.
type Config struct {
	DatabaseURL       string
	DBPoolMaxConns    int
	HTTPAddr          string
	LogLevel          string
	LogPath           string
	CORSOrigins       []string

	KeycloakURL          string
	KeycloakRealm        string
	KeycloakClientID     string
	KeycloakClientSecret string

	EmbeddingAPIURL           string
	EmbeddingAPIKey           string
	EmbeddingModel            string
	EmbeddingTimeoutSeconds   int

	RedisURL string
}

// Load reads configuration from the environment (optionally a local .env
// file, whose values override already-set process environment variables),
// applies defaults, and validates the settings a runnable service requires.
func Load() (Config, error) {
	// Overload so a local .env can override values already present in the
	// process environment, matching the teacher's deterministic-dev-config
	// idiom.
	_ = godotenv.Overload()

	cfg := Config{
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		HTTPAddr:                firstNonEmpty(strings.TrimSpace(os.Getenv("HTTP_ADDR")), ":8080"),
		LogLevel:                firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_LEVEL")), "info"),
		LogPath:                 strings.TrimSpace(os.Getenv("LOG_PATH")),
		KeycloakURL:             strings.TrimSpace(os.Getenv("KEYCLOAK_URL")),
		KeycloakRealm:           strings.TrimSpace(os.Getenv("KEYCLOAK_REALM")),
		KeycloakClientID:        strings.TrimSpace(os.Getenv("KEYCLOAK_CLIENT_ID")),
		KeycloakClientSecret:    strings.TrimSpace(os.Getenv("KEYCLOAK_CLIENT_SECRET")),
		EmbeddingAPIURL:         strings.TrimSpace(os.Getenv("EMBEDDING_API_URL")),
		EmbeddingAPIKey:         strings.TrimSpace(os.Getenv("EMBEDDING_API_KEY")),
		EmbeddingModel:          strings.TrimSpace(os.Getenv("EMBEDDING_MODEL")),
		RedisURL:                strings.TrimSpace(os.Getenv("REDIS_URL")),
		DBPoolMaxConns:          10,
		EmbeddingTimeoutSeconds: 30,
	}

	if v := strings.TrimSpace(os.Getenv("DB_POOL_MAX_CONNS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DBPoolMaxConns = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("EMBEDDING_TIMEOUT_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EmbeddingTimeoutSeconds = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); v != "" {
		for _, origin := range strings.Split(v, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.EmbeddingAPIURL == "" {
		return Config{}, errors.New("EMBEDDING_API_URL is required")
	}
	if cfg.EmbeddingModel == "" {
		return Config{}, errors.New("EMBEDDING_MODEL is required")
	}

	return cfg, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
