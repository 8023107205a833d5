package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

const (
	defaultAddr           = ":8080"
	defaultWSPath         = "/ws"
	defaultHistoryLimit   = 50
	defaultMaxMessageSize = 4096
	defaultSendBuffer     = 256
	defaultShutdown       = 10 * time.Second
)

// Config holds everything the relay process reads from its environment.
type Config struct {
	Addr               string        `env:"RELAY_ADDR,default=:8080"`
	WSPath             string        `env:"RELAY_WS_PATH,default=/ws"`
	LogLevel           string        `env:"LOG_LEVEL,default=INFO"`
	HistoryLimit       int           `env:"CHAT_HISTORY_LIMIT,default=50"`
	MaxMessageSize     int64         `env:"MAX_MESSAGE_SIZE,default=4096"`
	SendBufferSize     int           `env:"SEND_BUFFER_SIZE,default=256"`
	AllowedOrigins     string        `env:"ALLOWED_ORIGINS,default=*"`
	RedisAddr          string        `env:"REDIS_ADDR"`
	RedisChannelPrefix string        `env:"REDIS_CHANNEL_PREFIX,default=chat"`
	NotesDSN           string        `env:"NOTES_DB_DSN"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// Load reads an optional .env file, decodes the environment and sanitizes the result.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	return Sanitize(cfg), nil
}

// Sanitize replaces unusable values with defaults.
func Sanitize(cfg Config) Config {
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	cfg.WSPath = normalizePath(cfg.WSPath)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "INFO"
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = defaultSendBuffer
	}
	if cfg.RedisChannelPrefix == "" {
		cfg.RedisChannelPrefix = "chat"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdown
	}
	return cfg
}

// Origins splits ALLOWED_ORIGINS into trimmed, non-empty entries.
func (c Config) Origins() []string {
	var origins []string
	for _, part := range strings.Split(c.AllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return defaultWSPath
	}
	if path[0] != '/' {
		return "/" + path
	}
	return path
}
