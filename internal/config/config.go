package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// 支持的 LLM Provider
const (
	ProviderMock   = "mock"
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderArk    = "ark"
)

// LookupTimeout 单轮消息处理中订单、政策查询的超时
const LookupTimeout = 2 * time.Second

// Config 应用配置根结构
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Log     LogConfig     `mapstructure:"log"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Storage StorageConfig `mapstructure:"storage"`
	Support SupportConfig `mapstructure:"support"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port" validate:"gte=1,lte=65535"`
	Mode         string        `mapstructure:"mode" validate:"oneof=debug release test"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LLMConfig 大模型调用配置
// 启动时解析一次，之后作为不可变值传给 ai.Client
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // mock/openai/azure/ark，未知值在调用时走兜底回复
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	MaxTokens   int           `mapstructure:"max_tokens" validate:"gte=1"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Temperature float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=json console"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 坐席认证配置
// JWTSecret 为空时坐席接口不做认证
type AuthConfig struct {
	JWTSecret   string        `mapstructure:"jwt_secret"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
}

// StorageConfig 会话记录归档存储配置
// Type 为空表示不归档
type StorageConfig struct {
	Type  string       `mapstructure:"type" validate:"omitempty,oneof=local oss"`
	Local *LocalConfig `mapstructure:"local,omitempty"`
	OSS   *OSSConfig   `mapstructure:"oss,omitempty"`
}

// LocalConfig 本地文件系统配置
type LocalConfig struct {
	BasePath string `mapstructure:"base_path"`
	BaseURL  string `mapstructure:"base_url"`
}

// OSSConfig 阿里云OSS配置
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
}

// SupportConfig 客服业务配置
type SupportConfig struct {
	BrandName      string        `mapstructure:"brand_name"`
	PolicyCacheTTL time.Duration `mapstructure:"policy_cache_ttl" validate:"gte=0"`
	LockTTL        time.Duration `mapstructure:"lock_ttl" validate:"gt=0"`
	ReturnWindow   time.Duration `mapstructure:"return_window" validate:"gt=0"`
}

var validate = validator.New()

// Validate 验证配置有效性，并规范化 Provider
func (c *Config) Validate() error {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderMock
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config field %s: failed on %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return err
	}

	// Redis 锁在一轮处理结束前过期会让同一会话的消息并发执行
	if c.Redis.Addr != "" {
		if minTTL := c.LLM.Timeout + LookupTimeout; c.Support.LockTTL <= minTTL {
			return fmt.Errorf("support.lock_ttl (%s) must exceed llm.timeout plus %s lookup time (%s)",
				c.Support.LockTTL, LookupTimeout, minTTL)
		}
	}

	switch c.Storage.Type {
	case "local":
		if c.Storage.Local == nil || c.Storage.Local.BasePath == "" {
			return errors.New("storage.local.base_path is required for local storage")
		}
	case "oss":
		if c.Storage.OSS == nil || c.Storage.OSS.Bucket == "" {
			return errors.New("storage.oss.bucket is required for oss storage")
		}
	}

	return nil
}

// KnownProvider 判断 Provider 是否受支持
func KnownProvider(provider string) bool {
	switch provider {
	case ProviderMock, ProviderOpenAI, ProviderAzure, ProviderArk:
		return true
	}
	return false
}
