package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file from the current working directory and sets
// environment variables. If .env does not exist, Load returns an error but
// callers can ignore it and use system env or defaults. Pass one or more paths
// to load from specific files; with no paths, ".env" is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// Store backends accepted in PLAN_STORE.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Server is the configuration of the plan service.
type Server struct {
	Port           string
	LogLevel       string
	LogFormat      string
	PlanStore      string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisPrefix    string
	RedisPlanTTL   time.Duration
	MaxPlanBytes   int64
	SheetParticles int
	MetricsEnabled bool
}

// ServerFromEnv reads the service configuration from the environment.
func ServerFromEnv() (Server, error) {
	cfg := Server{
		Port:           GetEnv("PORT", "8080"),
		LogLevel:       GetEnv("LOG_LEVEL", "info"),
		LogFormat:      GetEnv("LOG_FORMAT", "json"),
		PlanStore:      GetEnv("PLAN_STORE", StoreMemory),
		RedisAddr:      GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  GetEnv("REDIS_PASSWORD", ""),
		RedisDB:        GetEnvInt("REDIS_DB", 0),
		RedisPrefix:    GetEnv("REDIS_PREFIX", "rtplan:"),
		RedisPlanTTL:   time.Duration(GetEnvInt("REDIS_PLAN_TTL_SECONDS", 0)) * time.Second,
		MaxPlanBytes:   int64(GetEnvInt("MAX_PLAN_BYTES", 32<<20)),
		SheetParticles: GetEnvInt("SHEET_PARTICLES", 1000),
		MetricsEnabled: GetEnvBool("METRICS_ENABLED", true),
	}
	if err := cfg.validate(); err != nil {
		return Server{}, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c Server) validate() error {
	if n, err := strconv.Atoi(c.Port); err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %q", c.Port)
	}
	if c.PlanStore != StoreMemory && c.PlanStore != StoreRedis {
		return fmt.Errorf("PLAN_STORE must be %q or %q, got %q", StoreMemory, StoreRedis, c.PlanStore)
	}
	if c.PlanStore == StoreRedis && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR must not be empty when PLAN_STORE is %q", StoreRedis)
	}
	if c.RedisPlanTTL < 0 {
		return fmt.Errorf("REDIS_PLAN_TTL_SECONDS must not be negative, got %s", c.RedisPlanTTL)
	}
	if c.MaxPlanBytes <= 0 {
		return fmt.Errorf("MAX_PLAN_BYTES must be positive, got %d", c.MaxPlanBytes)
	}
	return nil
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvBool returns the boolean value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid boolean.
func GetEnvBool(key string, fallback bool) bool {
	if s := os.Getenv(key); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return fallback
}
