package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config carries the engine settings. Everything has a working default; a
// .env file or environment variables override.
type Config struct {
	DataDir  string // flat-file data directory
	LogFile  string // rotating application log
	LogLevel string // logrus level name

	// Seed credential written to the admin file when it is empty on first
	// run.
	AdminUser     string
	AdminPassword string
}

// Load reads .env (if present) and the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, relying on env vars")
	}

	return Config{
		DataDir:       getEnv("RAIL_DATA_DIR", "data"),
		LogFile:       getEnv("RAIL_LOG_FILE", "./logs/railway.log"),
		LogLevel:      getEnv("RAIL_LOG_LEVEL", "info"),
		AdminUser:     getEnv("RAIL_ADMIN_USER", "admin"),
		AdminPassword: getEnv("RAIL_ADMIN_PASS", "admin123"),
	}
}

// getEnv reads an environment variable or returns the provided default.
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}
