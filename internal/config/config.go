package config

import (
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port string

	// Cart service base URL and per-call timeout.
	CartServiceURL string
	CartTimeout    time.Duration

	// Optional: leave empty to disable event publishing.
	RabbitURL string
}

func Load() Config {
	return Config{
		Port:           getenv("PORT", "3004"),
		CartServiceURL: getenv("CART_SERVICE_URL", "http://cart-service:3003"),
		CartTimeout:    parseDuration(getenv("CART_TIMEOUT", "5s"), 5*time.Second),
		RabbitURL:      os.Getenv("RABBITMQ_URL"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
