package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatYAML = `
port: "8082"
pg:
  host: ${TEST_PG_HOST}
  port: 5432
  user: chat
  password: secret
  database: estate
  retry_interval: 2
  retry_count: 5
mongo:
  host: localhost
  port: 27017
  database: chat_audit
redis:
  redis_db: 1
  notify_channel: "chat:user:"
store:
  retry_count: 4
  retry_interval: 50ms
websocket:
  ping_interval: 15s
  write_wait: 5s
  send_buffer: 32
`

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat_service.yaml"), []byte(chatYAML), 0644))
	t.Setenv("TEST_PG_HOST", "pg.internal")

	cfg, err := ReadConfig[Chat]("chat_service", dir)
	require.NoError(t, err)

	assert.Equal(t, "8082", cfg.Port)
	assert.Equal(t, "pg.internal", cfg.PostgreSQL.Host)
	assert.Equal(t, 5, cfg.PostgreSQL.RetryCount)
	assert.Equal(t, "chat_audit", cfg.MongoSQL.Database)
	assert.Equal(t, 1, cfg.Redis.RedisDB)
	assert.Equal(t, "chat:user:", cfg.Redis.NotifyChannel)
	assert.Equal(t, 4, cfg.Store.RetryCount)
	assert.Equal(t, 50*time.Millisecond, cfg.Store.RetryInterval)
	assert.Equal(t, 15*time.Second, cfg.WebSocket.PingInterval)
	assert.Equal(t, 32, cfg.WebSocket.SendBuffer)
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := ReadConfig[Chat]("nope", t.TempDir())
	assert.Error(t, err)
}

func TestWebSocketDefaults(t *testing.T) {
	w := WebSocketConfig{PingInterval: 10 * time.Second}.WithDefaults()

	assert.Equal(t, 10*time.Second, w.PingInterval)
	assert.Equal(t, 20*time.Second, w.PongWait)
	assert.Equal(t, 10*time.Second, w.WriteWait)
	assert.Equal(t, 256, w.SendBuffer)
	assert.Equal(t, int64(64*1024), w.MaxMessageSize)

	s := StoreConfig{}.WithDefaults()
	assert.Equal(t, 3, s.RetryCount)
	assert.Equal(t, 100*time.Millisecond, s.RetryInterval)
}

func TestGetRedisSetting(t *testing.T) {
	t.Setenv("REDIS_SENTINEL1_IP", "10.0.0.1")
	t.Setenv("REDIS_SENTINEL1_PORT", "26379")
	t.Setenv("REDIS_MASTER_NAME", "chatmaster")

	master, addrs := GetRedisSetting()
	assert.Equal(t, "chatmaster", master)
	assert.Contains(t, addrs, "10.0.0.1:26379")
}
