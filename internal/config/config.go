package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/park285/numguess/internal/stats"
)

const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

var (
	ErrUnknownBackend  = errors.New("unknown STORE_BACKEND")
	ErrMissingRedisURL = errors.New("REDIS_URL is required for the redis backend")
	ErrMissingDatabase = errors.New("DATABASE_URL is required for the postgres backend")
)

type AppConfig struct {
	StoreBackend string
	DataDir      string
	RedisURL     string
	DatabaseURL  string
	// RedisTTLSec of 0 keeps profiles forever.
	RedisTTLSec int

	ProfileID         string
	DefaultDifficulty string
	DefaultMode       string
	HistoryLimit      int

	PresetsFile string
	MessagesDir string
	MetricsAddr string

	IrisBaseURL string
	IrisWSURL   string
	BotPrefix   string
	EgressMode  string

	XUserID    string
	XUserEmail string
	XSessionID string

	AllowedRooms []string
}

// LoadDotEnv reads .env files into the environment without overriding
// variables that are already set. Missing files are ignored; a file that
// exists but cannot be read or parsed is an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the environment. Malformed numbers fall back to defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		StoreBackend:      BackendFile,
		DataDir:           "data",
		ProfileID:         "local",
		DefaultDifficulty: "medium",
		DefaultMode:       "classic",
		HistoryLimit:      20,
		EgressMode:        "http",
	}

	if v := env("STORE_BACKEND"); v != "" {
		cfg.StoreBackend = strings.ToLower(v)
	}
	if v := env("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	cfg.RedisURL = env("REDIS_URL")
	cfg.DatabaseURL = env("DATABASE_URL")
	if v := env("REDIS_TTL_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RedisTTLSec = n
		}
	}

	if v := env("PROFILE_ID"); v != "" {
		cfg.ProfileID = v
	}
	if v := env("DEFAULT_DIFFICULTY"); v != "" {
		cfg.DefaultDifficulty = strings.ToLower(v)
	}
	if v := env("DEFAULT_MODE"); v != "" {
		cfg.DefaultMode = strings.ToLower(v)
	}
	if v := env("HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryLimit = min(n, stats.MaxHistoryLimit)
		}
	}

	cfg.PresetsFile = env("PRESETS_FILE")
	cfg.MessagesDir = env("MESSAGES_DIR")
	cfg.MetricsAddr = env("METRICS_ADDR")

	cfg.IrisBaseURL = env("IRIS_BASE_URL")
	cfg.IrisWSURL = env("IRIS_WS_URL")
	cfg.BotPrefix = env("BOT_PREFIX")
	if v := env("EGRESS_MODE"); v != "" {
		cfg.EgressMode = strings.ToLower(v)
	}

	cfg.XUserID = env("X_USER_ID")
	cfg.XUserEmail = env("X_USER_EMAIL")
	cfg.XSessionID = env("X_SESSION_ID")

	if v := env("ALLOWED_ROOMS"); v != "" {
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				cfg.AllowedRooms = append(cfg.AllowedRooms, s)
			}
		}
	}

	if err := cfg.validateStore(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validateStore() error {
	switch c.StoreBackend {
	case BackendFile, BackendMemory:
		return nil
	case BackendRedis:
		if c.RedisURL == "" {
			return ErrMissingRedisURL
		}
		return nil
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDatabase
		}
		return nil
	default:
		return ErrUnknownBackend
	}
}

// ValidateBot checks the keys only the chat bot needs.
func (c *AppConfig) ValidateBot() error {
	if c.IrisBaseURL == "" {
		return errors.New("IRIS_BASE_URL is required")
	}
	if c.IrisWSURL == "" {
		return errors.New("IRIS_WS_URL is required")
	}
	if c.BotPrefix == "" {
		return errors.New("BOT_PREFIX is required")
	}
	switch c.EgressMode {
	case "http", "ws", "auto":
	default:
		return errors.New("EGRESS_MODE must be http, ws or auto")
	}
	return nil
}

// RoomAllowed reports whether the bot should answer in room. An empty
// allow list admits every room.
func (c *AppConfig) RoomAllowed(room string) bool {
	if len(c.AllowedRooms) == 0 {
		return true
	}
	for _, r := range c.AllowedRooms {
		if r == room {
			return true
		}
	}
	return false
}

// Headers returns the X-User-* headers for the Iris bridge.
func (c *AppConfig) Headers() map[string]string {
	m := map[string]string{}
	if c.XUserID != "" {
		m["X-User-Id"] = c.XUserID
	}
	if c.XUserEmail != "" {
		m["X-User-Email"] = c.XUserEmail
	}
	if c.XSessionID != "" {
		m["X-Session-Id"] = c.XSessionID
	}
	return m
}

func env(k string) string {
	return strings.TrimSpace(os.Getenv(k))
}
