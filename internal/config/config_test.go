package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 8080
  max_connections: 5000

redis:
  addr: "redis:6379"
  password: "secret"
  db: 1

postgres:
  dsn: "postgres://uno@db/uno"

auth:
  jwt_secret: "s3cret"
  token_ttl: 12

game:
  turn_timeout: 20
  room_timeout: 15
  room_cleanup_delay: 60

settlement:
  deadline: 45
  platform_fee_bps: 0

ledger:
  mode: http
  url: "http://ledger:9000"
  request_timeout: 5

security:
  allowed_origins:
    - "http://localhost:3000"
  rate_limit:
    max_per_second: 20
    max_per_minute: 120
    ban_duration: 120
  message_limit:
    max_per_second: 50

metrics:
  enabled: true

log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, 5000, cfg.Server.MaxConnections)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, "postgres://uno@db/uno", cfg.Postgres.DSN)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTLDuration())
	assert.Equal(t, 20*time.Second, cfg.Game.TurnTimeoutDuration())
	assert.Equal(t, 15*time.Minute, cfg.Game.RoomTimeoutDuration())
	assert.Equal(t, time.Minute, cfg.Game.RoomCleanupDelayDuration())
	assert.Equal(t, 45*time.Second, cfg.Settlement.DeadlineDuration())
	assert.Equal(t, int64(0), cfg.Settlement.FeeBps(), "explicit zero fee is kept")
	assert.Equal(t, LedgerModeHTTP, cfg.Ledger.Mode)
	assert.Equal(t, 5*time.Second, cfg.Ledger.RequestTimeoutDuration())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, 2*time.Minute, cfg.Security.RateLimit.BanDurationTime())
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Game.TurnTimeoutDuration())
	assert.Equal(t, 30*time.Second, cfg.Settlement.DeadlineDuration())
	assert.Equal(t, int64(500), cfg.Settlement.FeeBps())
	assert.Equal(t, LedgerModeMemory, cfg.Ledger.Mode)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "server: [unclosed"},
		{"fee out of range", "settlement:\n  platform_fee_bps: 20000\n"},
		{"http ledger without url", "ledger:\n  mode: http\n"},
		{"unknown ledger mode", "ledger:\n  mode: carrier-pigeon\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"bad log format", "log:\n  format: xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1780, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Game.RoomTimeout)
	assert.Equal(t, 300, cfg.Game.RoomCleanupDelay)
}

// 环境变量相关的测试不能并行
func TestApplyEnv(t *testing.T) {
	t.Setenv("UNO_REDIS_ADDR", "cache:6380")
	t.Setenv("UNO_PORT", "1999")
	t.Setenv("UNO_JWT_SECRET", "from-env")
	t.Setenv("UNO_LEDGER_URL", "http://ledger")
	t.Setenv("UNO_PLATFORM_FEE_BPS", "250")

	cfg, err := Load(writeConfig(t, "redis:\n  addr: file:6379\n"))
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, 1999, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "http://ledger", cfg.Ledger.URL)
	assert.Equal(t, int64(250), cfg.Settlement.FeeBps())
}

func TestApplyEnv_InvalidNumber(t *testing.T) {
	t.Setenv("UNO_TURN_TIMEOUT", "soon")

	cfg := Default()
	assert.Error(t, cfg.ApplyEnv())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("UNO_TEST_DOTENV_VALUE=hello\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("UNO_TEST_DOTENV_VALUE") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), envFile))
	assert.Equal(t, "hello", os.Getenv("UNO_TEST_DOTENV_VALUE"))
}
