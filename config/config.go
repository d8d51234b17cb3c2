package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 凭证只从环境变量读取，不写入配置文件
const (
	EnvAPIKey    = "API_KEY"
	EnvSecretKey = "SECRET_KEY"
)

// Config 合约下单工具配置
type Config struct {
	Exchange struct {
		Testnet           bool    `yaml:"testnet"`             // 是否使用测试网（默认 true）
		BaseURL           string  `yaml:"base_url"`            // 自定义 REST 地址，优先于 testnet
		RecvWindowMs      int64   `yaml:"recv_window_ms"`      // 签名请求的 recvWindow（毫秒）
		RequestsPerSecond float64 `yaml:"requests_per_second"` // 每秒请求上限（默认5）
		Burst             int     `yaml:"burst"`               // 突发请求数（默认5）
	} `yaml:"exchange"`

	Trading struct {
		RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"` // 单次请求超时（秒，默认10）
		DefaultTimeInForce    string `yaml:"default_time_in_force"`   // 未输入时的有效方式（默认 GTC）
	} `yaml:"trading"`

	SymbolCatalog struct {
		TTLSeconds int    `yaml:"ttl_seconds"` // 交易对快照缓存时间，0 表示每次校验都重新拉取
		Cache      string `yaml:"cache"`       // memory 或 redis
		Redis      struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"symbol_catalog"`

	System struct {
		LogLevel      string `yaml:"log_level"`        // debug, info, warn, error
		LogLanguage   string `yaml:"log_language"`     // zh-CN 或 en-US
		Timezone      string `yaml:"timezone"`         // 日志时区，如 Asia/Shanghai
		LogFile       string `yaml:"log_file"`         // 为空则只输出到控制台
		LogMaxSizeMB  int    `yaml:"log_max_size_mb"`  // 默认100
		LogMaxBackups int    `yaml:"log_max_backups"`  // 默认5
		LogMaxAgeDays int    `yaml:"log_max_age_days"` // 默认7
		LogDB         string `yaml:"log_db"`           // SQLite 日志库路径，为空则不落库
	} `yaml:"system"`

	Metrics struct {
		Enabled    bool   `yaml:"enabled"`
		ListenAddr string `yaml:"listen_addr"` // 默认 127.0.0.1:9090
	} `yaml:"metrics"`
}

// Credentials API 凭证
type Credentials struct {
	APIKey    string
	SecretKey string
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Exchange.Testnet = true
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfig 加载配置文件，文件不存在时使用默认配置
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return LoadConfigFromBytes(data)
}

// LoadConfigFromBytes 从字节数组加载配置（用于测试）
func LoadConfigFromBytes(data []byte) (*Config, error) {
	cfg := &Config{}
	// 未出现在文件中的字段保持默认值
	cfg.Exchange.Testnet = true
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}
	return cfg, nil
}

// Validate 验证配置并填充默认值
func (c *Config) Validate() error {
	if c.Exchange.RecvWindowMs < 0 {
		return fmt.Errorf("recv_window_ms 不能为负数")
	}
	if c.Exchange.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second 不能为负数")
	}
	if c.Exchange.RequestsPerSecond == 0 {
		c.Exchange.RequestsPerSecond = 5
	}
	if c.Exchange.Burst <= 0 {
		c.Exchange.Burst = 5
	}

	if c.Trading.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("request_timeout_seconds 不能为负数")
	}
	if c.Trading.RequestTimeoutSeconds == 0 {
		c.Trading.RequestTimeoutSeconds = 10
	}
	tif := strings.ToUpper(strings.TrimSpace(c.Trading.DefaultTimeInForce))
	switch tif {
	case "":
		tif = "GTC"
	case "GTC", "IOC", "FOK":
	default:
		return fmt.Errorf("default_time_in_force 无效: %s（可选 GTC/IOC/FOK）", c.Trading.DefaultTimeInForce)
	}
	c.Trading.DefaultTimeInForce = tif

	if c.SymbolCatalog.TTLSeconds < 0 {
		return fmt.Errorf("symbol_catalog.ttl_seconds 不能为负数")
	}
	switch c.SymbolCatalog.Cache {
	case "":
		c.SymbolCatalog.Cache = "memory"
	case "memory":
	case "redis":
		if c.SymbolCatalog.Redis.Addr == "" {
			return fmt.Errorf("使用 redis 缓存时必须配置 symbol_catalog.redis.addr")
		}
	default:
		return fmt.Errorf("不支持的交易对缓存类型: %s", c.SymbolCatalog.Cache)
	}
	if c.SymbolCatalog.Redis.Prefix == "" {
		c.SymbolCatalog.Redis.Prefix = "futuresbot:"
	}

	if c.System.LogLevel == "" {
		c.System.LogLevel = "info"
	}
	switch c.System.LogLanguage {
	case "":
		c.System.LogLanguage = "zh-CN"
	case "zh-CN", "en-US":
	default:
		return fmt.Errorf("不支持的语言: %s（可选 zh-CN/en-US）", c.System.LogLanguage)
	}
	if c.System.Timezone != "" {
		if _, err := time.LoadLocation(c.System.Timezone); err != nil && c.System.Timezone != "UTC+8" {
			return fmt.Errorf("无效时区 %s: %w", c.System.Timezone, err)
		}
	}
	if c.System.LogMaxSizeMB <= 0 {
		c.System.LogMaxSizeMB = 100
	}
	if c.System.LogMaxBackups <= 0 {
		c.System.LogMaxBackups = 5
	}
	if c.System.LogMaxAgeDays <= 0 {
		c.System.LogMaxAgeDays = 7
	}

	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = "127.0.0.1:9090"
	}
	return nil
}

// RequestTimeout 单次请求超时
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Trading.RequestTimeoutSeconds) * time.Second
}

// CatalogTTL 交易对快照缓存时间
func (c *Config) CatalogTTL() time.Duration {
	return time.Duration(c.SymbolCatalog.TTLSeconds) * time.Second
}

// LoadCredentials 从环境变量读取凭证；envFiles 中存在的 .env 文件会先被加载，已有的环境变量不会被覆盖
func LoadCredentials(envFiles ...string) (Credentials, error) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Credentials{}, fmt.Errorf("加载 %s 失败: %w", f, err)
		}
	}

	creds := Credentials{
		APIKey:    strings.TrimSpace(os.Getenv(EnvAPIKey)),
		SecretKey: strings.TrimSpace(os.Getenv(EnvSecretKey)),
	}
	var missing []string
	if creds.APIKey == "" {
		missing = append(missing, EnvAPIKey)
	}
	if creds.SecretKey == "" {
		missing = append(missing, EnvSecretKey)
	}
	if len(missing) > 0 {
		return Credentials{}, fmt.Errorf("缺少环境变量: %s", strings.Join(missing, ", "))
	}
	return creds, nil
}
