package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 可由环境变量直接覆盖的配置项。
const (
	EnvDiscordToken     = "DISCORD_TOKEN"
	EnvDiscordChannelID = "DISCORD_CHANNEL_ID"
	EnvYouTubeChannelID = "YT_CHANNEL_ID"
)

const (
	defaultFeedBase        = "https://www.youtube.com"
	defaultIntervalSeconds = 300
	defaultTimeoutSeconds  = 10
	defaultStateBackend    = "file"
	defaultStatePath       = "last_video.json"
	defaultServerHost      = "0.0.0.0"
	defaultServerPort      = 8080
	defaultServerMessage   = "YouTube Discord Bot is running!"
)

// Config 是 ytwatch 的顶层配置结构。
type Config struct {
	Discord DiscordConfig `yaml:"discord"`
	YouTube YouTubeConfig `yaml:"youtube"`
	Poll    PollConfig    `yaml:"poll"`
	State   StateConfig   `yaml:"state"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// DiscordConfig 机器人凭据与通知频道。
type DiscordConfig struct {
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
}

// YouTubeConfig 订阅源配置。
type YouTubeConfig struct {
	ChannelID string `yaml:"channel_id"`
	// FeedBase 订阅源地址前缀，测试或镜像时可替换。
	FeedBase string `yaml:"feed_base"`
}

// PollConfig 轮询配置。
type PollConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	// TimeoutSeconds 单次抓取超时，0 表示不设超时。
	TimeoutSeconds *int `yaml:"timeout_seconds"`
}

// StateConfig 已通知视频的持久化配置。
type StateConfig struct {
	Backend string `yaml:"backend"` // file, sqlite, postgres
	Path    string `yaml:"path"`    // file / sqlite 使用
	DSN     string `yaml:"dsn"`     // postgres 使用
}

// ServerConfig 保活 HTTP 服务配置。
type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Message string `yaml:"message"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

// Interval 返回轮询间隔。
func (p PollConfig) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds) * time.Second
}

// Timeout 返回抓取超时。
func (p PollConfig) Timeout() time.Duration {
	if p.TimeoutSeconds == nil {
		return defaultTimeoutSeconds * time.Second
	}
	return time.Duration(*p.TimeoutSeconds) * time.Second
}

// Addr 返回监听地址。
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load 加载配置：先读取当前目录的 .env，再读取可选的 YAML 文件（支持 ${VAR_NAME} 展开），
// 最后由环境变量覆盖必填项。path 为空时只使用默认值和环境变量。
// 返回前会校验配置，缺失或非法的必填项直接返回错误。
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 失败: %w", err)
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
		}

		expanded := os.Expand(string(data), func(key string) string {
			return os.Getenv(key)
		})

		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
		}
	}

	applyEnv(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv 用环境变量覆盖必填项。
func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(EnvDiscordToken); ok && v != "" {
		cfg.Discord.Token = v
	}
	if v, ok := os.LookupEnv(EnvDiscordChannelID); ok && v != "" {
		cfg.Discord.ChannelID = v
	}
	if v, ok := os.LookupEnv(EnvYouTubeChannelID); ok && v != "" {
		cfg.YouTube.ChannelID = v
	}
}

// setDefaults 为未设置的配置项填充默认值。
func setDefaults(cfg *Config) {
	if cfg.YouTube.FeedBase == "" {
		cfg.YouTube.FeedBase = defaultFeedBase
	}
	cfg.YouTube.FeedBase = strings.TrimRight(cfg.YouTube.FeedBase, "/")
	if cfg.Poll.IntervalSeconds == 0 {
		cfg.Poll.IntervalSeconds = defaultIntervalSeconds
	}
	if cfg.State.Backend == "" {
		cfg.State.Backend = defaultStateBackend
	}
	if cfg.State.Path == "" {
		switch cfg.State.Backend {
		case "sqlite":
			cfg.State.Path = "ytwatch.db"
		default:
			cfg.State.Path = defaultStatePath
		}
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultServerPort
	}
	if cfg.Server.Message == "" {
		cfg.Server.Message = defaultServerMessage
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	// 环境变量展开后两端常带空白
	cfg.Discord.Token = strings.TrimSpace(cfg.Discord.Token)
	cfg.Discord.ChannelID = strings.TrimSpace(cfg.Discord.ChannelID)
	cfg.YouTube.ChannelID = strings.TrimSpace(cfg.YouTube.ChannelID)
}

// Validate 校验必填项和取值范围。
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("缺少 %s", EnvDiscordToken)
	}
	if c.Discord.ChannelID == "" {
		return fmt.Errorf("缺少 %s", EnvDiscordChannelID)
	}
	if _, err := strconv.ParseUint(c.Discord.ChannelID, 10, 64); err != nil {
		return fmt.Errorf("%s 必须是整数: %q", EnvDiscordChannelID, c.Discord.ChannelID)
	}
	if c.YouTube.ChannelID == "" {
		return fmt.Errorf("缺少 %s", EnvYouTubeChannelID)
	}
	if c.Poll.IntervalSeconds < 0 {
		return fmt.Errorf("poll.interval_seconds 必须大于 0: %d", c.Poll.IntervalSeconds)
	}
	if c.Poll.TimeoutSeconds != nil && *c.Poll.TimeoutSeconds < 0 {
		return fmt.Errorf("poll.timeout_seconds 不能为负数: %d", *c.Poll.TimeoutSeconds)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port 超出范围: %d", c.Server.Port)
	}
	switch c.State.Backend {
	case "file", "sqlite":
	case "postgres":
		if c.State.DSN == "" {
			return fmt.Errorf("state.backend 为 postgres 时必须设置 state.dsn")
		}
	default:
		return fmt.Errorf("未知的 state.backend: %s", c.State.Backend)
	}
	return nil
}
