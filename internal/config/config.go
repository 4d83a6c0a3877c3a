// Package config parses server settings from flags, the environment and an
// optional .env file. Flags win over the environment, which wins over defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Lock backends.
const (
	LockLocal = "local"
	LockRedis = "redis"
)

type Config struct {
	Port        int
	DBPath      string
	JWTSecret   string
	TokenTTL    time.Duration
	LockBackend string
	LockTimeout time.Duration
	RedisAddr   string
	LogLevel    slog.Level
}

// Load validates flags and fills unset values from the environment.
func Load(args []string) (Config, error) {
	var cfg Config
	var envFile, logLevel string

	flags := flag.NewFlagSet("splitbill", flag.ContinueOnError)

	flags.StringVar(&envFile, "env-file", ".env", "Optional dotenv file")
	flags.IntVar(&cfg.Port, "p", 0, "Server port")
	flags.StringVar(&cfg.DBPath, "db", "", "SQLite database path")
	flags.StringVar(&cfg.LockBackend, "lock", "", "Bill lock backend (local or redis)")
	flags.DurationVar(&cfg.LockTimeout, "lock-timeout", 0, "Maximum wait for a bill lock")
	flags.StringVar(&cfg.RedisAddr, "redis", "", "Redis address for the redis lock backend")
	flags.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	// Secrets (prefer env variables, but allow CLI for dev)
	flags.StringVar(&cfg.JWTSecret, "jwt-secret", "", "HS256 signing secret (prefer env)")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	if cfg.Port == 0 {
		port, err := intEnv("PORT", 8080)
		if err != nil {
			return Config{}, err
		}
		cfg.Port = port
	}
	if cfg.DBPath == "" {
		cfg.DBPath = stringEnv("DB_PATH", "./data/splitbill.db")
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}

	ttl, err := durationEnv("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.TokenTTL = ttl

	if cfg.LockBackend == "" {
		cfg.LockBackend = stringEnv("LOCK_BACKEND", LockLocal)
	}
	switch cfg.LockBackend {
	case LockLocal:
	case LockRedis:
		if cfg.RedisAddr == "" {
			cfg.RedisAddr = os.Getenv("REDIS_ADDR")
		}
		if cfg.RedisAddr == "" {
			return Config{}, errors.New("REDIS_ADDR required for the redis lock backend")
		}
	default:
		return Config{}, fmt.Errorf("unknown lock backend %q", cfg.LockBackend)
	}

	if cfg.LockTimeout == 0 {
		timeout, err := durationEnv("LOCK_TIMEOUT", 5*time.Second)
		if err != nil {
			return Config{}, err
		}
		cfg.LockTimeout = timeout
	}
	if cfg.LockTimeout <= 0 {
		return Config{}, errors.New("lock timeout must be positive")
	}

	if logLevel == "" {
		logLevel = os.Getenv("LOG_LEVEL")
	}
	level, err := parseLevel(logLevel)
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	return cfg, nil
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func stringEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable: %w", key, err)
	}
	return d, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", s)
	}
}
