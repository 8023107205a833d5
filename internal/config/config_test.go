package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	for _, key := range []string{
		"RELAY_ADDR", "RELAY_WS_PATH", "LOG_LEVEL", "CHAT_HISTORY_LIMIT", "MAX_MESSAGE_SIZE",
		"SEND_BUFFER_SIZE", "ALLOWED_ORIGINS", "REDIS_ADDR", "REDIS_CHANNEL_PREFIX",
		"NOTES_DB_DSN", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(key, "")
		req.NoError(os.Unsetenv(key))
	}

	cfg, err := Load()
	req.NoError(err)
	req.Equal(":8080", cfg.Addr)
	req.Equal("/ws", cfg.WSPath)
	req.Equal(50, cfg.HistoryLimit)
	req.Equal(int64(4096), cfg.MaxMessageSize)
	req.Equal(256, cfg.SendBufferSize)
	req.Equal([]string{"*"}, cfg.Origins())
	req.Equal("chat", cfg.RedisChannelPrefix)
	req.Empty(cfg.RedisAddr)
	req.Empty(cfg.NotesDSN)
	req.Equal(10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_FromEnvironment(t *testing.T) {
	req := require.New(t)
	t.Setenv("RELAY_ADDR", ":9090")
	t.Setenv("RELAY_WS_PATH", "socket")
	t.Setenv("CHAT_HISTORY_LIMIT", "20")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:5173, https://dash.example.com ,")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	req.NoError(err)
	req.Equal(":9090", cfg.Addr)
	req.Equal("/socket", cfg.WSPath)
	req.Equal(20, cfg.HistoryLimit)
	req.Equal([]string{"http://localhost:5173", "https://dash.example.com"}, cfg.Origins())
	req.Equal("redis:6379", cfg.RedisAddr)
	req.Equal(3*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_InvalidNumber(t *testing.T) {
	t.Setenv("CHAT_HISTORY_LIMIT", "many")

	_, err := Load()
	require.Error(t, err)
}

func TestSanitize_FallsBackOnNonPositive(t *testing.T) {
	req := require.New(t)
	cfg := Sanitize(Config{HistoryLimit: -1, MaxMessageSize: 0, SendBufferSize: -5})

	req.Equal(defaultHistoryLimit, cfg.HistoryLimit)
	req.Equal(int64(defaultMaxMessageSize), cfg.MaxMessageSize)
	req.Equal(defaultSendBuffer, cfg.SendBufferSize)
	req.Equal(defaultAddr, cfg.Addr)
	req.Equal(defaultWSPath, cfg.WSPath)
}
