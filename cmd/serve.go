package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"helpdesk/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the support API server",
	Long: `Start the Helpdesk HTTP API.

MongoDB, Redis and transcript storage are optional: without them the
server keeps conversations in memory, locks in-process and skips archiving.`,
	RunE: runServe,
}

// flag 与配置键的对应关系
var serveFlagKeys = map[string]string{
	"host":           "server.host",
	"port":           "server.port",
	"mode":           "server.mode",
	"llm-provider":   "llm.provider",
	"llm-model":      "llm.model",
	"llm-api-key":    "llm.api_key",
	"llm-max-tokens": "llm.max_tokens",
	"llm-timeout":    "llm.timeout",
	"mongo-uri":      "mongo.uri",
	"redis-addr":     "redis.addr",
	"storage-type":   "storage.type",
	"log-level":      "log.level",
	"log-format":     "log.format",
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.StringP("host", "H", "0.0.0.0", "server host")
	flags.IntP("port", "p", 8080, "server port")
	flags.String("mode", "release", "gin mode (debug/release/test)")

	flags.String("llm-provider", "mock", "LLM provider (mock/openai/azure/ark)")
	flags.String("llm-model", "gpt-3.5-turbo", "LLM model name")
	flags.String("llm-api-key", "", "LLM API key (prefer LLM_API_KEY)")
	flags.Int("llm-max-tokens", 500, "max tokens per reply, also bounds prompt size")
	flags.Duration("llm-timeout", 10*time.Second, "per-request LLM deadline")

	flags.String("mongo-uri", "", "MongoDB URI, empty keeps data in memory")
	flags.String("redis-addr", "", "Redis address for policy cache and conversation locks")
	flags.String("storage-type", "", "transcript archive backend (local/oss), empty disables archiving")

	flags.String("log-level", "info", "log level (trace/debug/info/warn/error/fatal)")
	flags.String("log-format", "console", "log format (json/console)")

	for flag, key := range serveFlagKeys {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().
		Str("addr", addr).
		Str("mode", cfg.Server.Mode).
		Str("llm_provider", cfg.LLM.Provider).
		Str("llm_model", cfg.LLM.Model).
		Bool("mongo", cfg.Mongo.URI != "").
		Bool("redis", cfg.Redis.Addr != "").
		Bool("agent_auth", cfg.Auth.JWTSecret != "").
		Msg("starting helpdesk")

	return srv.Run(ctx, addr)
}
