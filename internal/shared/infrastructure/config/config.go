package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/saransh1220/notification-sync/internal/shared/infrastructure/database"
	"github.com/spf13/viper"
)

// Config holds all configuration for the server and the client tooling
type Config struct {
	Server   ServerConfig
	Database database.PostgresConfig
	Redis    database.RedisConfig
	Push     PushConfig
	Client   ClientConfig
	Log      LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins string
}

// PushConfig holds keepalive settings for the client push stream
type PushConfig struct {
	PingPeriod time.Duration
	PongWait   time.Duration
}

// ClientConfig holds settings for a view sync client
type ClientConfig struct {
	APIBaseURL                string
	PushURL                   string
	PageSize                  int
	ReconnectDelay            time.Duration
	ReconnectMaxDelay         time.Duration
	ReconnectFailureThreshold int
	RequestTimeout            time.Duration
}

// LogConfig holds logger configuration
type LogConfig struct {
	AppEnv string
	Level  string
}

var defaults = map[string]interface{}{
	"PORT":            "8080",
	"ALLOWED_ORIGINS": "http://localhost:4200",

	"DB_HOST":     "localhost",
	"DB_PORT":     "5432",
	"DB_USER":     "postgres",
	"DB_PASSWORD": "",
	"DB_NAME":     "notifications",
	"DB_SSLMODE":  "disable",

	"REDIS_HOST":     "localhost",
	"REDIS_PORT":     "6379",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"PUSH_PING_PERIOD": "54s",
	"PUSH_PONG_WAIT":   "60s",

	"API_BASE_URL":                "http://localhost:8080",
	"PUSH_URL":                    "ws://localhost:8080/ws",
	"PAGE_SIZE":                   10,
	"RECONNECT_DELAY":             "5s",
	"RECONNECT_MAX_DELAY":         "60s",
	"RECONNECT_FAILURE_THRESHOLD": 5,
	"REQUEST_TIMEOUT":             "10s",

	"APP_ENV":   "development",
	"LOG_LEVEL": "",
}

// Load reads configuration from environment variables, falling back to an
// optional config.yaml in the working directory or ./config.
func Load() (Config, error) {
	return load(".", "./config")
}

func load(paths ...string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	return Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			AllowedOrigins: v.GetString("ALLOWED_ORIGINS"),
		},
		Database: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: database.RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Push: PushConfig{
			PingPeriod: duration(v, "PUSH_PING_PERIOD"),
			PongWait:   duration(v, "PUSH_PONG_WAIT"),
		},
		Client: ClientConfig{
			APIBaseURL:                v.GetString("API_BASE_URL"),
			PushURL:                   v.GetString("PUSH_URL"),
			PageSize:                  positive(v, "PAGE_SIZE"),
			ReconnectDelay:            duration(v, "RECONNECT_DELAY"),
			ReconnectMaxDelay:         duration(v, "RECONNECT_MAX_DELAY"),
			ReconnectFailureThreshold: positive(v, "RECONNECT_FAILURE_THRESHOLD"),
			RequestTimeout:            duration(v, "REQUEST_TIMEOUT"),
		},
		Log: LogConfig{
			AppEnv: v.GetString("APP_ENV"),
			Level:  v.GetString("LOG_LEVEL"),
		},
	}, nil
}

// duration parses key or returns its default when the value is unparseable
// or not positive.
func duration(v *viper.Viper, key string) time.Duration {
	if d, err := time.ParseDuration(v.GetString(key)); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(defaults[key].(string))
	return d
}

func positive(v *viper.Viper, key string) int {
	if n := v.GetInt(key); n > 0 {
		return n
	}
	return defaults[key].(int)
}
