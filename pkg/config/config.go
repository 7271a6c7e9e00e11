package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	Environment     string
	ServiceName     string
	StoreBackend    string
	DevSeedFile     string
	FirebaseProject string

	FirebaseServiceAccountJSON string
	FirebaseServiceAccountPath string

	RedisAddr string

	FollowUpReplayInterval time.Duration
	FollowUpMaxAttempts    int

	OtelEnabled      bool
	OtelOTLPEndpoint string
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		ServiceName:     getEnv("SERVICE_NAME", "tradehub"),
		StoreBackend:    getEnv("STORE_BACKEND", "firestore"),
		DevSeedFile:     getEnv("DEV_SEED_FILE", ""),
		FirebaseProject: getEnv("FIREBASE_PROJECT_ID", ""),

		FirebaseServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		FirebaseServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		FollowUpReplayInterval: getEnvAsDuration("FOLLOWUP_REPLAY_INTERVAL", time.Minute),
		FollowUpMaxAttempts:    int(getEnvAsInt64("FOLLOWUP_MAX_ATTEMPTS", 10)),

		OtelEnabled:      getEnvAsBool("OTEL_ENABLED", false),
		OtelOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
