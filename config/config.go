package config

import (
	"log"
	"os"
)

type Config struct {
	Port       string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	MongoURI   string
	JWTSecret  string

	// SessionName labels the hosted session.
	SessionName string
	// AllowSolo permits gameplay with a single participant.
	AllowSolo bool
	// CatalogPath optionally overrides the built-in enemy catalog.
	CatalogPath string
}

func LoadConfig() *Config {
	return &Config{
		Port:        getEnv("PORT", "8000"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "user"),
		DBPassword:  getEnv("DB_PASSWORD", "password"),
		DBName:      getEnv("DB_NAME", "skyfall"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		SessionName: getEnv("SESSION_NAME", "skyfall"),
		AllowSolo:   getEnv("ALLOW_SOLO", "false") == "true",
		CatalogPath: getEnv("CATALOG_PATH", ""),
	}
}

// getEnv reads an environment variable, falling back to a default.
func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = defaultValue
		log.Printf("Environment variable %s not set, using default value: %s", key, defaultValue)
	}
	return value
}
