package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Session store backends.
const (
	SessionStoreFile  = "file"
	SessionStoreRedis = "redis"
)

type Config struct {
	Env string

	API     APIConfig
	Session SessionConfig
	Redis   RedisConfig
	Log     LogConfig
	Exports ExportsConfig
	Metrics MetricsConfig
}

// APIConfig describes the remote LMS API the console talks to.
type APIConfig struct {
	BaseURL string
	// Timeout of zero means no client-side timeout at all; a hung request
	// simply keeps its loading flag set.
	Timeout time.Duration
}

// SessionConfig selects where the bearer token and display email live.
type SessionConfig struct {
	Store string
	File  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

// ExportsConfig controls where report exports are written.
type ExportsConfig struct {
	Dir string
}

// MetricsConfig gates the optional local prometheus listener. Zero port
// disables it.
type MetricsConfig struct {
	Port int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.API = APIConfig{
		BaseURL: strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("HTTP_TIMEOUT"), 0),
	}

	cfg.Session = SessionConfig{
		Store: v.GetString("SESSION_STORE"),
		File:  v.GetString("SESSION_FILE"),
	}
	if cfg.Session.File == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.Session.File = filepath.Join(home, ".admin-console", "session.json")
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Exports = ExportsConfig{
		Dir: v.GetString("EXPORTS_DIR"),
	}

	cfg.Metrics = MetricsConfig{
		Port: v.GetInt("METRICS_PORT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("API_BASE_URL", "http://localhost:8000")
	v.SetDefault("HTTP_TIMEOUT", "0")

	v.SetDefault("SESSION_STORE", SessionStoreFile)
	v.SetDefault("SESSION_FILE", "")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("EXPORTS_DIR", "./exports")
	v.SetDefault("METRICS_PORT", 0)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" || raw == "0" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
