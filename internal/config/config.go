package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 服务端配置
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Redis      RedisConfig      `yaml:"redis"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Auth       AuthConfig       `yaml:"auth"`
	Game       GameConfig       `yaml:"game"`
	Settlement SettlementConfig `yaml:"settlement"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Security   SecurityConfig   `yaml:"security"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig WebSocket/HTTP 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PostgresConfig 结算归档，DSN 为空时不启用
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// AuthConfig 玩家令牌
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	TokenTTL  int    `yaml:"token_ttl"` // 令牌有效期（小时）
}

// GameConfig 游戏配置
type GameConfig struct {
	TurnTimeout           int `yaml:"turn_timeout"`            // 出牌超时（秒）
	RoomTimeout           int `yaml:"room_timeout"`            // 房间等待超时（分钟）
	RoomCleanupDelay      int `yaml:"room_cleanup_delay"`      // 领奖后房间保留时间（秒）
	ShutdownTimeout       int `yaml:"shutdown_timeout"`        // 优雅关闭最长等待（分钟）
	ShutdownCheckInterval int `yaml:"shutdown_check_interval"` // 检查对局是否结束的间隔（秒）
}

// SettlementConfig 结算配置
type SettlementConfig struct {
	Deadline       int    `yaml:"deadline"`         // 账本确认期限（秒）
	PlatformFeeBps *int64 `yaml:"platform_fee_bps"` // 平台抽成（万分比），未配置时 500
}

// LedgerConfig 账本服务
type LedgerConfig struct {
	Mode           string `yaml:"mode"` // memory 或 http
	URL            string `yaml:"url"`
	RequestTimeout int    `yaml:"request_timeout"` // 单次调用超时（秒）
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins"`
	IPWhitelist    []string           `yaml:"ip_whitelist"` // 非空时只放行名单内的 IP
	IPBlacklist    []string           `yaml:"ip_blacklist"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
}

// RateLimitConfig 连接速率限制
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanDuration  int `yaml:"ban_duration"` // 封禁时长（秒）
}

// MessageLimitConfig 单连接消息速率限制
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
}

// MetricsConfig Prometheus 指标
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LogConfig 日志
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text 或 json
}

const (
	LedgerModeMemory = "memory"
	LedgerModeHTTP   = "http"
)

// TurnTimeoutDuration 返回出牌超时时长
func (c *GameConfig) TurnTimeoutDuration() time.Duration {
	return time.Duration(c.TurnTimeout) * time.Second
}

// RoomTimeoutDuration 返回房间等待超时时长
func (c *GameConfig) RoomTimeoutDuration() time.Duration {
	return time.Duration(c.RoomTimeout) * time.Minute
}

// RoomCleanupDelayDuration 返回领奖后房间保留时长
func (c *GameConfig) RoomCleanupDelayDuration() time.Duration {
	return time.Duration(c.RoomCleanupDelay) * time.Second
}

// ShutdownTimeoutDuration 返回优雅关闭最长等待时长
func (c *GameConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Minute
}

// ShutdownCheckIntervalDuration 返回关闭检查间隔
func (c *GameConfig) ShutdownCheckIntervalDuration() time.Duration {
	return time.Duration(c.ShutdownCheckInterval) * time.Second
}

// DeadlineDuration 返回账本确认期限
func (c *SettlementConfig) DeadlineDuration() time.Duration {
	return time.Duration(c.Deadline) * time.Second
}

// FeeBps 平台抽成
func (c *SettlementConfig) FeeBps() int64 {
	if c.PlatformFeeBps == nil {
		return 500
	}
	return *c.PlatformFeeBps
}

// RequestTimeoutDuration 返回账本调用超时
func (c *LedgerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// TokenTTLDuration 返回令牌有效期
func (c *AuthConfig) TokenTTLDuration() time.Duration {
	return time.Duration(c.TokenTTL) * time.Hour
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// LoadDotEnv 加载 .env 文件，文件不存在时忽略
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("加载 %s 失败: %w", p, err)
		}
	}
	return nil
}

// Load 加载配置文件，填充默认值并应用环境变量覆盖
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return &cfg, cfg.Validate()
}

// Default 返回默认配置
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// applyDefaults 设置默认值
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 1780
	}
	if c.Server.MaxConnections == 0 {
		c.Server.MaxConnections = 10000
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24
	}
	if c.Game.TurnTimeout == 0 {
		c.Game.TurnTimeout = 30
	}
	if c.Game.RoomTimeout == 0 {
		c.Game.RoomTimeout = 10
	}
	if c.Game.RoomCleanupDelay == 0 {
		c.Game.RoomCleanupDelay = 300
	}
	if c.Game.ShutdownTimeout == 0 {
		c.Game.ShutdownTimeout = 30
	}
	if c.Game.ShutdownCheckInterval == 0 {
		c.Game.ShutdownCheckInterval = 10
	}
	if c.Settlement.Deadline == 0 {
		c.Settlement.Deadline = 30
	}
	if c.Ledger.Mode == "" {
		c.Ledger.Mode = LedgerModeMemory
	}
	if c.Ledger.RequestTimeout == 0 {
		c.Ledger.RequestTimeout = 10
	}
	if c.Security.RateLimit.MaxPerSecond == 0 {
		c.Security.RateLimit.MaxPerSecond = 10
	}
	if c.Security.RateLimit.MaxPerMinute == 0 {
		c.Security.RateLimit.MaxPerMinute = 60
	}
	if c.Security.RateLimit.BanDuration == 0 {
		c.Security.RateLimit.BanDuration = 300
	}
	if c.Security.MessageLimit.MaxPerSecond == 0 {
		c.Security.MessageLimit.MaxPerSecond = 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// ApplyEnv 环境变量覆盖配置文件
func (c *Config) ApplyEnv() error {
	strs := map[string]*string{
		"UNO_HOST":           &c.Server.Host,
		"UNO_REDIS_ADDR":     &c.Redis.Addr,
		"UNO_REDIS_PASSWORD": &c.Redis.Password,
		"UNO_POSTGRES_DSN":   &c.Postgres.DSN,
		"UNO_JWT_SECRET":     &c.Auth.JWTSecret,
		"UNO_LEDGER_MODE":    &c.Ledger.Mode,
		"UNO_LEDGER_URL":     &c.Ledger.URL,
		"UNO_LOG_LEVEL":      &c.Log.Level,
		"UNO_LOG_FORMAT":     &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"UNO_PORT":                &c.Server.Port,
		"UNO_TURN_TIMEOUT":        &c.Game.TurnTimeout,
		"UNO_SETTLEMENT_DEADLINE": &c.Settlement.Deadline,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("环境变量 %s 不是整数: %q", key, v)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv("UNO_PLATFORM_FEE_BPS"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("环境变量 UNO_PLATFORM_FEE_BPS 不是整数: %q", v)
		}
		c.Settlement.PlatformFeeBps = &n
	}
	return nil
}

// Validate 检查配置是否合法
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port 不合法: %d", c.Server.Port)
	}
	if bps := c.Settlement.FeeBps(); bps < 0 || bps > 10000 {
		return fmt.Errorf("settlement.platform_fee_bps 必须在 0-10000 之间: %d", bps)
	}
	switch c.Ledger.Mode {
	case LedgerModeMemory:
	case LedgerModeHTTP:
		if c.Ledger.URL == "" {
			return errors.New("ledger.mode=http 时必须配置 ledger.url")
		}
	default:
		return fmt.Errorf("ledger.mode 不支持: %q", c.Ledger.Mode)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format 不支持: %q", c.Log.Format)
	}
	return nil
}

// Addr 监听地址
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
