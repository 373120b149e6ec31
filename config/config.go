// Package config loads application configuration from the environment.
// A .env file in the working directory is honored when present.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	Port          int
	DBPath        string
	ScanQueueSize int
	BarcodeDir    string // empty disables barcode image rendering
	LogLevel      string
	Development   bool
}

// Load reads configuration from environment variables with reasonable
// defaults. Missing .env files are not an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:          envInt("PORT", 8080),
		DBPath:        envStr("DB_PATH", "inventory.db"),
		ScanQueueSize: envInt("SCAN_QUEUE_SIZE", 64),
		BarcodeDir:    envStr("BARCODE_DIR", ""),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		Development:   envBool("DEV_MODE", false),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
