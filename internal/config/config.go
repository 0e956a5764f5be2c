package config

import (
	"os"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	AuthJWKSURL string // JWKS endpoint of the magic-link auth provider
	CORSOrigins string
	RunMigrate  bool // apply embedded migrations on startup
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "dev"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		AuthJWKSURL: getEnv("AUTH_JWKS_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		RunMigrate:  getEnv("RUN_MIGRATIONS", "true") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
