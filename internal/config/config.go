package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	Port          int
	Env           string
	LogLevel      string
	StoreDriver   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	RedisURL      string
	CacheTTL      time.Duration
	Location      *time.Location
}

func (c Config) Production() bool {
	return c.Env == "production"
}

func Load() (Config, error) {
	return LoadFrom(filepath.Join(".", ".env"))
}

// LoadFrom reads configuration from the environment, falling back to the
// dotenv file at envPath. A missing file is not an error.
func LoadFrom(envPath string) (Config, error) {
	values := map[string]string{}
	if _, err := os.Stat(envPath); err == nil {
		fileValues, err := godotenv.Read(envPath)
		if err != nil {
			return Config{}, fmt.Errorf("read %s: %w", envPath, err)
		}
		values = fileValues
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("stat %s: %w", envPath, err)
	}
	lookup := func(key string) string {
		return firstNonEmpty(os.Getenv(key), values[key])
	}

	cfg := Config{
		Port:          8080,
		Env:           "development",
		LogLevel:      "info",
		StoreDriver:   DriverPostgres,
		MongoDatabase: "bizledger",
		CacheTTL:      5 * time.Minute,
		Location:      time.UTC,
	}

	if portRaw := lookup("PORT"); portRaw != "" {
		port, err := strconv.Atoi(portRaw)
		if err != nil || port <= 0 {
			return Config{}, fmt.Errorf("invalid PORT: %q", portRaw)
		}
		cfg.Port = port
	}

	if env := lookup("APP_ENV"); env != "" {
		env = strings.ToLower(env)
		if env != "development" && env != "production" {
			return Config{}, fmt.Errorf("invalid APP_ENV: %q", env)
		}
		cfg.Env = env
	}
	if level := lookup("LOG_LEVEL"); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}

	if driver := lookup("STORE_DRIVER"); driver != "" {
		cfg.StoreDriver = strings.ToLower(driver)
	}
	cfg.DatabaseURL = lookup("DATABASE_URL")
	cfg.MongoURI = lookup("MONGODB_URI")
	if db := lookup("MONGODB_DATABASE"); db != "" {
		cfg.MongoDatabase = db
	}
	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required (environment variable or .env)")
		}
	case DriverMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGODB_URI is required (environment variable or .env)")
		}
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("invalid STORE_DRIVER: %q", cfg.StoreDriver)
	}

	cfg.RedisURL = lookup("REDIS_URL")
	if ttlRaw := lookup("CACHE_TTL"); ttlRaw != "" {
		ttl, err := time.ParseDuration(ttlRaw)
		if err != nil || ttl <= 0 {
			return Config{}, fmt.Errorf("invalid CACHE_TTL: %q", ttlRaw)
		}
		cfg.CacheTTL = ttl
	}

	if tz := lookup("APP_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return Config{}, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
		}
		cfg.Location = loc
	}

	return cfg, nil
}

func firstNonEmpty(candidates ...string) string {
	for _, candidate := range candidates {
		if value := strings.TrimSpace(candidate); value != "" {
			return value
		}
	}
	return ""
}
