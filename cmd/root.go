package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"helpdesk/internal/config"
	"helpdesk/internal/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "helpdesk",
	Short: "Helpdesk - multilingual customer support router",
	Long: `Helpdesk answers customer messages in English and Malayalam.
It detects language and intent, replies from templates or an LLM,
and hands conversations over to human agents when asked.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./configs/config.yaml)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// .env 只补充未设置的环境变量
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.helpdesk")
	}

	// 环境变量设置
	viper.SetEnvPrefix("HELPDESK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindLLMEnv()

	// 设置默认值
	setDefaults()

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fmt.Fprintln(os.Stderr, "No config file found, using defaults and environment variables")
		} else {
			fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
			os.Exit(1)
		}
	}

	// 反序列化到结构体
	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unmarshal config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	log.Debug().Str("config_file", viper.ConfigFileUsed()).Msg("configuration loaded")
}

// bindLLMEnv 兼容不带前缀的 LLM_* 环境变量
func bindLLMEnv() {
	for key, env := range map[string]string{
		"llm.provider":   "LLM_PROVIDER",
		"llm.api_key":    "LLM_API_KEY",
		"llm.model":      "LLM_MODEL",
		"llm.max_tokens": "LLM_MAX_TOKENS",
		"llm.timeout":    "LLM_TIMEOUT",
		"llm.base_url":   "LLM_BASE_URL",
	} {
		_ = viper.BindEnv(key, "HELPDESK_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}
}

func setDefaults() {
	// Server
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")

	// LLM
	viper.SetDefault("llm.provider", config.ProviderMock)
	viper.SetDefault("llm.model", "gpt-3.5-turbo")
	viper.SetDefault("llm.max_tokens", 500)
	viper.SetDefault("llm.timeout", "10s")
	viper.SetDefault("llm.temperature", 0.7)

	// Log
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.time_format", "RFC3339")

	// MongoDB，uri 为空时使用进程内存储
	viper.SetDefault("mongo.uri", "")
	viper.SetDefault("mongo.database", "helpdesk")
	viper.SetDefault("mongo.max_pool_size", 100)
	viper.SetDefault("mongo.min_pool_size", 10)

	// Redis，addr 为空时不使用缓存和分布式锁
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.db", 0)

	// Auth
	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("auth.token_expiry", "12h")

	// Storage，type 为空时不归档
	viper.SetDefault("storage.type", "")

	// Support
	viper.SetDefault("support.brand_name", "Kerala Sellers")
	viper.SetDefault("support.policy_cache_ttl", "15m")
	viper.SetDefault("support.lock_ttl", "30s")
	viper.SetDefault("support.return_window", "168h")
}

// GetConfig returns the global configuration
func GetConfig() *config.Config {
	return cfg
}
