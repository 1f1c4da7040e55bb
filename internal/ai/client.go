package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"helpdesk/internal/pkg/language"
	"helpdesk/internal/pkg/logger"
	"helpdesk/internal/pkg/redact"
	"helpdesk/internal/pkg/responses"
)

// 置信度
const (
	ConfidenceClean    = 1.0 // 模型正常结束
	ConfidenceTruncate = 0.7 // 其他结束原因（长度截断等）
	ConfidenceFallback = 0.5 // 兜底回复
)

// ErrTimeout 生成超时
var ErrTimeout = errors.New("generation timed out")

// Config 客户端参数，启动时确定，之后不再修改
type Config struct {
	Provider  string
	BrandName string
	MaxTokens int
	Timeout   time.Duration
}

// Client AI 能力层客户端
// 职责: 清洗输入、组装提示词、限时调用模型、失败兜底
type Client struct {
	cfg Config
	gen Generator
}

// NewClient 创建 AI 客户端，gen 为 nil 时所有请求都走兜底回复
func NewClient(cfg Config, gen Generator) *Client {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{cfg: cfg, gen: gen}
}

// Request 生成请求
type Request struct {
	Message  string
	Language language.Language
	History  string // ContextBuilder 生成的对话上下文，可以为空
}

// Reply 生成结果，Reply 永远不会返回错误
type Reply struct {
	Text         string
	Confidence   float64
	UsedFallback bool
}

// Available 是否配置了可用的生成器
func (c *Client) Available() bool {
	return c.gen != nil
}

// Provider 返回配置的 Provider 名称
func (c *Client) Provider() string {
	return c.cfg.Provider
}

// Reply 生成回复
func (c *Client) Reply(ctx context.Context, req Request) Reply {
	lang := language.Normalize(string(req.Language))
	l := logger.Component("ai").With().Str("provider", c.cfg.Provider).Logger()

	if c.gen == nil {
		l.Warn().Msg("no generator configured, using fallback reply")
		return fallback(lang)
	}

	prompt := c.buildPrompt(req, lang)

	start := time.Now()
	out, err := c.generate(ctx, prompt)
	if err != nil {
		l.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("generation failed, using fallback reply")
		return fallback(lang)
	}

	confidence := ConfidenceTruncate
	switch out.FinishReason {
	case "stop", "end_turn":
		confidence = ConfidenceClean
	}

	l.Debug().
		Str("finish_reason", out.FinishReason).
		Dur("elapsed", time.Since(start)).
		Msg("generation succeeded")

	return Reply{Text: out.Text, Confidence: confidence}
}

// buildPrompt 清洗并截断输入
// 上下文超出预算时优先丢弃最早的部分，当前消息尽量完整保留
func (c *Client) buildPrompt(req Request, lang language.Language) Prompt {
	budget := redact.CharBudget(c.cfg.MaxTokens)

	msg, msgRedacted := redact.Sanitize(req.Message)
	history, histRedacted := redact.Sanitize(req.History)
	if msgRedacted || histRedacted {
		logger.Component("ai").Info().Bool("message", msgRedacted).Bool("history", histRedacted).Msg("sensitive data redacted from prompt")
	}

	msg, truncated := redact.Truncate(msg, budget)

	frame := []rune(UserPrompt("", msg))
	if room := budget - len(frame); room <= 0 {
		history = ""
	} else if hr := []rune(history); len(hr) > room {
		history = string(hr[len(hr)-room:])
		truncated = true
	}

	user, userCut := redact.Truncate(UserPrompt(history, msg), budget)
	if truncated || userCut {
		logger.Component("ai").Info().Int("budget", budget).Msg("prompt truncated")
	}

	return Prompt{
		System:   SystemPrompt(c.cfg.BrandName, lang),
		User:     user,
		Language: lang,
	}
}

type result struct {
	out *Output
	err error
}

// generate 限时调用生成器
// 生成器不响应 ctx 时也会在超时后返回，panic 转为错误
func (c *Client) generate(ctx context.Context, p Prompt) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("generator panic: %v", r)}
			}
		}()
		out, err := c.gen.Generate(ctx, p)
		ch <- result{out: out, err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		if r.out == nil || strings.TrimSpace(r.out.Text) == "" {
			return nil, ErrEmptyOutput
		}
		return r.out, nil
	}
}

func fallback(lang language.Language) Reply {
	return Reply{
		Text:         responses.Fallback(lang),
		Confidence:   ConfidenceFallback,
		UsedFallback: true,
	}
}
