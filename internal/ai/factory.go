package ai

import (
	"context"

	"github.com/rs/zerolog/log"

	"helpdesk/internal/ai/component"
	"helpdesk/internal/config"
)

// NewGenerator 按配置创建生成器
// 未知 Provider 或创建失败时返回 nil，客户端随后对每个请求使用兜底回复
func NewGenerator(ctx context.Context, cfg *config.LLMConfig) Generator {
	switch cfg.Provider {
	case config.ProviderMock:
		return MockGenerator{}
	case config.ProviderOpenAI, config.ProviderAzure, config.ProviderArk:
		chatModel, err := component.NewChatModel(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Str("provider", cfg.Provider).Msg("failed to create chat model, replies will use fallback")
			return nil
		}
		return NewEinoGenerator(chatModel)
	default:
		log.Warn().Str("provider", cfg.Provider).Msg("unknown LLM provider, replies will use fallback")
		return nil
	}
}

// NewClientFromConfig 从应用配置创建客户端
func NewClientFromConfig(ctx context.Context, cfg *config.Config) *Client {
	return NewClient(Config{
		Provider:  cfg.LLM.Provider,
		BrandName: cfg.Support.BrandName,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
	}, NewGenerator(ctx, &cfg.LLM))
}
