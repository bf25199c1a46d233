package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Storage     StorageConfig     `yaml:"storage"`
	Log         LogConfig         `yaml:"log"`
	Prompt      PromptConfig      `yaml:"prompt"`
	Backup      BackupConfig      `yaml:"backup"`
	Evolution   EvolutionConfig   `yaml:"evolution"`
	Report      ReportConfig      `yaml:"report"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	Provider        string `yaml:"provider"` // openai 或 anthropic
	BaseURL         string `yaml:"base_url"`
	APIKey          string `yaml:"api_key"`
	Model           string `yaml:"model"`
	TranscribeModel string `yaml:"transcribe_model"`
	Timeout         int    `yaml:"timeout"` // 单次调用超时（秒），0 表示不限制
	MaxTokens       int    `yaml:"max_tokens"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	QPS     int `yaml:"qps"`
	RPM     int `yaml:"rpm"`
	Workers int `yaml:"workers"` // 批量分析的并发数
}

// StorageConfig 报告存储配置
type StorageConfig struct {
	Driver string       `yaml:"driver"` // memory, postgres, sqlite, redis
	DB     DBConfig     `yaml:"db"`
	SQLite SQLiteConfig `yaml:"sqlite"`
	Redis  RedisConfig  `yaml:"redis"`
}

// DBConfig 数据库相关配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN 生成 lib/pq 连接串
func (c DBConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, sslMode)
}

// SQLiteConfig SQLite 配置
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// PromptConfig 提示词配置
type PromptConfig struct {
	BusinessContextFile string `yaml:"business_context_file"` // 为空时使用内置业务背景
}

// BackupConfig 备份配置
type BackupConfig struct {
	Source string   `yaml:"source"`
	S3     S3Config `yaml:"s3"`
}

// S3Config 备份归档桶
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

// EvolutionConfig WhatsApp 网关配置
type EvolutionConfig struct {
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Instance string `yaml:"instance"`
	SelfName string `yaml:"self_name"` // 自己发出的消息显示的名字
}

// ReportConfig 统计配置
type ReportConfig struct {
	Timezone  string `yaml:"timezone"`
	TrendDays int    `yaml:"trend_days"`
}

// Location 解析统计时区，未配置时使用本地时区
func (c ReportConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// LoadConfig 从指定路径加载配置
//
// 加载前会尝试读取当前目录的 .env，配置文件中的 ${VAR} 会被环境变量替换。
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse 解析 YAML 配置内容
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyDefaults 填充未配置项的默认值
func (c *Config) ApplyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 4096
	}
	if c.Concurrency.QPS <= 0 {
		c.Concurrency.QPS = 1
	}
	if c.Concurrency.RPM <= 0 {
		c.Concurrency.RPM = 60
	}
	if c.Concurrency.Workers <= 0 {
		c.Concurrency.Workers = 2
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.DB.Port == 0 {
		c.Storage.DB.Port = 5432
	}
	if c.Storage.Redis.Prefix == "" {
		c.Storage.Redis.Prefix = "prospect_radar"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Backup.Source == "" {
		c.Backup.Source = "Castiel Bits Backup"
	}
	if c.Evolution.SelfName == "" {
		c.Evolution.SelfName = "Pedro (Eu)"
	}
	if c.Report.TrendDays <= 0 {
		c.Report.TrendDays = 30
	}
}

// Validate 校验必填项
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm api_key is missing")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm model is missing")
	}
	return c.ValidateStorage()
}

// ValidateStorage 只校验存储和统计相关配置，不需要模型的命令使用
func (c *Config) ValidateStorage() error {
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DB.Host == "" {
			return fmt.Errorf("storage db host is missing")
		}
	case "sqlite":
		if c.Storage.SQLite.Path == "" {
			return fmt.Errorf("storage sqlite path is missing")
		}
	case "redis":
		if c.Storage.Redis.Addr == "" {
			return fmt.Errorf("storage redis addr is missing")
		}
	default:
		return fmt.Errorf("unknown storage driver: %s", c.Storage.Driver)
	}
	if _, err := c.Report.Location(); err != nil {
		return fmt.Errorf("invalid report timezone: %w", err)
	}
	return nil
}
