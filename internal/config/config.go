// Package config loads application configuration from the environment.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Port        string
	Mongo       MongoConfig
	JWT         JWTConfig
	Kafka       KafkaConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
}

type MongoConfig struct {
	URI      string
	Database string
}

type JWTConfig struct {
	Secret    string
	ExpiresIn time.Duration
}

type KafkaConfig struct {
	// Brokers empty means notifications fall back to the log sink.
	Brokers []string
	Topic   string
}

type RateLimitConfig struct {
	// RPM is allowed mutation requests per minute per identity.
	RPM   int
	Burst int
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads .env (if present) and the environment. MONGODB_URI and
// JWT_SECRET are required; everything else has a default.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	expiresIn := 24 * time.Hour
	if v := os.Getenv("JWT_EXPIRES_IN"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			expiresIn = d
		}
	}

	rpm := 60
	if v := os.Getenv("RATE_LIMIT_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			rpm = n
		}
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return &Config{
		Environment: getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		Mongo: MongoConfig{
			URI:      os.Getenv("MONGODB_URI"),
			Database: getEnv("MONGODB_DATABASE", "dispensa"),
		},
		JWT: JWTConfig{
			Secret:    os.Getenv("JWT_SECRET"),
			ExpiresIn: expiresIn,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   getEnv("KAFKA_NOTIFICATIONS_TOPIC", "notifications"),
		},
		RateLimit: RateLimitConfig{
			RPM:   rpm,
			Burst: 5,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				getEnv("FRONTEND_URL", "http://localhost:3000"),
			},
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
