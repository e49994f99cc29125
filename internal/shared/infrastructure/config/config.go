package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
	"github.com/udyami/marketplace/internal/shared/infrastructure/database"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig            `mapstructure:"server"`
	Database      database.PostgresConfig `mapstructure:"database"`
	Redis         database.RedisConfig    `mapstructure:"redis"`
	LocalStore    LocalStoreConfig        `mapstructure:"local_store"`
	Remote        RemoteConfig            `mapstructure:"remote"`
	Notifications NotificationsConfig     `mapstructure:"notifications"`
	Backend       BackendConfig           `mapstructure:"backend"`
	FileStorage   FileStorageConfig       `mapstructure:"file_storage"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string `mapstructure:"port"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

// LocalStoreConfig selects the device-local storage backing the local store.
// Driver is one of sqlite, redis or memory.
type LocalStoreConfig struct {
	Driver      string `mapstructure:"driver"`
	Path        string `mapstructure:"path"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

// RemoteConfig holds the marketplace backend API client settings
type RemoteConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	ForceLocal bool          `mapstructure:"force_local"`
}

// NotificationsConfig holds notification engine timing and seeding
type NotificationsConfig struct {
	MatchDelay    time.Duration `mapstructure:"match_delay"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	ReminderAfter time.Duration `mapstructure:"reminder_after"`
	// ReminderMode is "window" or "catch-up".
	ReminderMode string `mapstructure:"reminder_mode"`
	SeedDemoJobs bool   `mapstructure:"seed_demo_jobs"`
	// Roster is "static" or "store".
	Roster string `mapstructure:"roster"`
}

// BackendConfig holds settings for the marketplace backend API (cmd/backend)
type BackendConfig struct {
	Port           string `mapstructure:"port"`
	Storage        string `mapstructure:"storage"`
	SQLitePath     string `mapstructure:"sqlite_path"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

// FileStorageConfig holds snapshot storage configuration
type FileStorageConfig struct {
	UseS3            bool   `mapstructure:"use_s3"`
	S3Region         string `mapstructure:"s3_region"`
	S3Endpoint       string `mapstructure:"s3_endpoint"`
	S3PublicEndpoint string `mapstructure:"s3_public_endpoint"`
	S3AccessKey      string `mapstructure:"s3_access_key"`
	S3SecretKey      string `mapstructure:"s3_secret_key"`
	S3BucketName     string `mapstructure:"s3_bucket"`
	S3UseSSL         bool   `mapstructure:"s3_use_ssl"`
	LocalPath        string `mapstructure:"local_path"`
}

// Load reads configuration from environment variables
func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:8081"),
		},
		Database: database.PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "udyami"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: database.RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		LocalStore: LocalStoreConfig{
			Driver:      getEnv("LOCAL_STORE_DRIVER", "sqlite"),
			Path:        getEnv("LOCAL_STORE_PATH", "./udyami.db"),
			RedisPrefix: getEnv("LOCAL_STORE_REDIS_PREFIX", "udyami:"),
		},
		Remote: RemoteConfig{
			BaseURL:    getEnv("REMOTE_API_URL", "http://localhost:3001/api"),
			Timeout:    parseDuration(getEnv("REMOTE_API_TIMEOUT", "10s"), 10*time.Second),
			ForceLocal: parseBool(getEnv("REMOTE_FORCE_LOCAL", "false"), false),
		},
		Notifications: NotificationsConfig{
			MatchDelay:    parseDuration(getEnv("NOTIFICATIONS_MATCH_DELAY", "2s"), 2*time.Second),
			PollInterval:  parseDuration(getEnv("NOTIFICATIONS_POLL_INTERVAL", "60s"), time.Minute),
			ReminderAfter: parseDuration(getEnv("NOTIFICATIONS_REMINDER_AFTER", "24h"), 24*time.Hour),
			ReminderMode:  getEnv("NOTIFICATIONS_REMINDER_MODE", "catch-up"),
			SeedDemoJobs:  parseBool(getEnv("NOTIFICATIONS_SEED_DEMO_JOBS", "false"), false),
			Roster:        getEnv("NOTIFICATIONS_ROSTER", "static"),
		},
		Backend: BackendConfig{
			Port:           getEnv("BACKEND_PORT", "3001"),
			Storage:        getEnv("BACKEND_STORAGE", "postgres"),
			SQLitePath:     getEnv("BACKEND_SQLITE_PATH", "./backend.db"),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),
		},
		FileStorage: FileStorageConfig{
			UseS3:            parseBool(getEnv("USE_S3", "false"), false),
			S3Region:         getEnv("S3_REGION", "us-east-1"),
			S3Endpoint:       getEnv("S3_ENDPOINT", ""),
			S3PublicEndpoint: getEnv("S3_PUBLIC_ENDPOINT", getEnv("S3_ENDPOINT", "")),
			S3AccessKey:      getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey:      getEnv("S3_SECRET_KEY", ""),
			S3BucketName:     getEnv("S3_BUCKET", ""),
			S3UseSSL:         parseBool(getEnv("S3_USE_SSL", "true"), true),
			LocalPath:        getEnv("LOCAL_STORAGE_PATH", "./snapshots"),
		},
	}
}

// LoadFile starts from Load and overlays values from an optional YAML file.
// A missing file is not an error.
func LoadFile(path string) (Config, error) {
	cfg := Load()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &pathErr) || errors.As(err, &notFound) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config %s: %w", path, err)
	}
	return cfg, nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration string or returns a default value
func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}

func parseBool(value string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return defaultValue
}

func parseInt(value string, defaultValue int) int {
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return defaultValue
}
