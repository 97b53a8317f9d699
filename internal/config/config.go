package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// 默认值
const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 1780
	defaultMaxConnections = 10000
	defaultRedisAddr      = "localhost:6379"

	defaultMinutesPerPlayer = 10
	defaultIncrementSeconds = 0
	defaultRestartGapCapMs  = 2000
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig WebSocket 服务器配置
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

// GameConfig 对局配置
type GameConfig struct {
	MinutesPerPlayer int `yaml:"minutes_per_player"` // 每方总时长（分钟）
	IncrementSeconds int `yaml:"increment_seconds"`  // 每步加秒
	RestartGapCapMs  int `yaml:"restart_gap_cap_ms"` // 计时重启间隙补偿上限（毫秒）
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// TimePerPlayer 返回每方总时长
func (c *GameConfig) TimePerPlayer() time.Duration {
	return time.Duration(c.MinutesPerPlayer) * time.Minute
}

// Increment 返回每步加秒时长
func (c *GameConfig) Increment() time.Duration {
	return time.Duration(c.IncrementSeconds) * time.Second
}

// RestartGapCap 返回计时重启间隙补偿上限
func (c *GameConfig) RestartGapCap() time.Duration {
	return time.Duration(c.RestartGapCapMs) * time.Millisecond
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// 设置默认值
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = defaultMaxConnections
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = defaultRedisAddr
	}
	if cfg.Game.MinutesPerPlayer == 0 {
		cfg.Game.MinutesPerPlayer = defaultMinutesPerPlayer
	}
	if cfg.Game.RestartGapCapMs == 0 {
		cfg.Game.RestartGapCapMs = defaultRestartGapCapMs
	}
	if len(cfg.Security.AllowedOrigins) == 0 {
		cfg.Security.AllowedOrigins = []string{"*"}
	}

	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           defaultHost,
			Port:           defaultPort,
			MaxConnections: defaultMaxConnections,
		},
		Redis: RedisConfig{
			Addr: defaultRedisAddr,
		},
		Game: GameConfig{
			MinutesPerPlayer: defaultMinutesPerPlayer,
			IncrementSeconds: defaultIncrementSeconds,
			RestartGapCapMs:  defaultRestartGapCapMs,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}
