package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIBaseURL     = "http://localhost:5000/api"
	DefaultRequestTimeout = 30 * time.Second
)

// LoadEnv reads .env from the working directory when present.
func LoadEnv() {
	_ = godotenv.Load()
}

// APIBaseURL is the single base-URL setting for the remote API.
func APIBaseURL() string {
	return strings.TrimRight(getEnvOrDefault("BOOKHUB_API_URL", DefaultAPIBaseURL), "/")
}

// RequestTimeout reads BOOKHUB_API_TIMEOUT in seconds.
func RequestTimeout() time.Duration {
	secs := GetEnvInt("BOOKHUB_API_TIMEOUT", int(DefaultRequestTimeout/time.Second))
	if secs <= 0 {
		return DefaultRequestTimeout
	}
	return time.Duration(secs) * time.Second
}

type DevServerConfig struct {
	Port        string
	DBPath      string
	JWTSecret   string
	FrontendURL string
	TokenTTL    time.Duration
	Seed        bool
}

func LoadDevServerConfig() DevServerConfig {
	return DevServerConfig{
		Port:        getEnvOrDefault("API_PORT", "5000"),
		DBPath:      getEnvOrDefault("DB_PATH", "./data/bookhub.db"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
		TokenTTL:    time.Duration(GetEnvInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		Seed:        os.Getenv("SEED_DATA") != "false",
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func GetEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
