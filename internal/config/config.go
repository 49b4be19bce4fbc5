package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultContainerID = "GTM-TVNB99"
	defaultAppPort     = "8080"
	defaultTimeout     = 2000 * time.Millisecond
	defaultQueueSize   = 256
	defaultSessionTTL  = 30 * time.Minute
)

var ErrMissingSecret = errors.New("SECRET_KEY is not set")

type Config struct {
	AppEnv        string
	AppPort       string
	AllowedOrigin string

	ContainerID          string
	ContainerURL         string
	ContainerDefaultPath string
	ContainerTimeout     time.Duration
	CacheDir             string
	AssetsDir            string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	AnalyticsDryRun    bool
	AnalyticsQueueSize int

	SecretKey  string
	SessionTTL time.Duration
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		AppEnv:  os.Getenv("APP_ENV"),
		AppPort: getEnv("APP_PORT", defaultAppPort),

		AllowedOrigin: os.Getenv("CORS_ALLOWED_ORIGIN"),

		ContainerID:          getEnv("CONTAINER_ID", defaultContainerID),
		ContainerURL:         os.Getenv("CONTAINER_URL"),
		ContainerDefaultPath: getEnv("CONTAINER_DEFAULT_PATH", "assets/tagmanager/default.json"),
		ContainerTimeout:     getMillis("CONTAINER_TIMEOUT_MS", defaultTimeout),
		CacheDir:             os.Getenv("CACHE_DIR"),
		AssetsDir:            getEnv("ASSETS_DIR", "assets/images"),

		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),

		AnalyticsDryRun:    getBool("ANALYTICS_DRY_RUN", false),
		AnalyticsQueueSize: getInt("ANALYTICS_QUEUE_SIZE", defaultQueueSize),

		SecretKey:  os.Getenv("SECRET_KEY"),
		SessionTTL: time.Duration(getInt("SESSION_TTL_MINUTES", int(defaultSessionTTL/time.Minute))) * time.Minute,
	}
}

// Validate reports configuration that the server cannot start without.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return ErrMissingSecret
	}
	return nil
}

// AnalyticsStoreEnabled is true when hits should be persisted to Postgres.
func (c *Config) AnalyticsStoreEnabled() bool {
	return c.DBHost != "" && !c.AnalyticsDryRun
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getMillis(key string, def time.Duration) time.Duration {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return time.Duration(v) * time.Millisecond
}

func getBool(key string, def bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return def
}
