package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr      string
	PostgresURL   string
	RedisAddr     string
	KafkaBrokers  []string
	KafkaTopic    string
	WorkerGroup   string
	JWTSecret     string
	JWTIssuer     string
	JWTAudience   string
	JWTTTL        time.Duration
	AdminUsername string
	AdminPassword string
	OrderCacheTTL time.Duration
	ServiceName   string
	Version       string
	OTLPEndpoint  string
}

// Load reads the process environment. POSTGRES_URL and JWT_SECRET have no
// defaults; callers that don't need them use LoadWorker.
func Load() (Config, error) {
	cfg, err := load()
	if err != nil {
		return Config{}, err
	}
	if cfg.PostgresURL == "" {
		return Config{}, errors.New("POSTGRES_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if (cfg.AdminUsername == "") != (cfg.AdminPassword == "") {
		return Config{}, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	return cfg, nil
}

// LoadWorker is Load without the API-only requirements.
func LoadWorker() (Config, error) {
	cfg, err := load()
	if err != nil {
		return Config{}, err
	}
	if cfg.PostgresURL == "" {
		return Config{}, errors.New("POSTGRES_URL is required")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return Config{}, errors.New("KAFKA_BROKERS is required")
	}
	return cfg, nil
}

func load() (Config, error) {
	jwtTTL, err := duration("JWT_TTL", "12h")
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := duration("ORDER_CACHE_TTL", "5m")
	if err != nil {
		return Config{}, err
	}
	return Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		PostgresURL:   os.Getenv("POSTGRES_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		KafkaBrokers:  splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:    getenv("KAFKA_TOPIC", "order.lifecycle"),
		WorkerGroup:   getenv("WORKER_GROUP", "order-history"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTIssuer:     getenv("JWT_ISSUER", "cayocagi"),
		JWTAudience:   getenv("JWT_AUDIENCE", "cayocagi-app"),
		JWTTTL:        jwtTTL,
		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		OrderCacheTTL: cacheTTL,
		ServiceName:   getenv("SERVICE_NAME", "cayocagi-api"),
		Version:       getenv("SERVICE_VERSION", "1.0.0"),
		OTLPEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}

func duration(k, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenv(k, def))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", k)
	}
	return d, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
