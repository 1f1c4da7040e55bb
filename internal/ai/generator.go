package ai

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"helpdesk/internal/pkg/language"
)

// ErrEmptyOutput 模型返回空内容
var ErrEmptyOutput = errors.New("empty response from chat model")

// Prompt 一次生成请求
type Prompt struct {
	System   string
	User     string
	Language language.Language
}

// Output 生成结果
type Output struct {
	Text         string
	FinishReason string
}

// Generator 文本生成能力
// 实现方可以出错、超时甚至 panic，调用方负责兜底
type Generator interface {
	Generate(ctx context.Context, p Prompt) (*Output, error)
}

// EinoGenerator 基于 eino ChatModel 的生成器
type EinoGenerator struct {
	chatModel model.BaseChatModel
}

// NewEinoGenerator 创建生成器，chatModel 由 ai/component.NewChatModel 创建
func NewEinoGenerator(chatModel model.BaseChatModel) *EinoGenerator {
	return &EinoGenerator{chatModel: chatModel}
}

// Generate 调用 ChatModel 生成回复
func (g *EinoGenerator) Generate(ctx context.Context, p Prompt) (*Output, error) {
	if g.chatModel == nil {
		return nil, fmt.Errorf("chatModel is required")
	}

	messages := []*schema.Message{
		schema.SystemMessage(p.System),
		schema.UserMessage(p.User),
	}

	resp, err := g.chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to generate text: %w", err)
	}
	if resp == nil || resp.Content == "" {
		return nil, ErrEmptyOutput
	}

	out := &Output{Text: resp.Content}
	if resp.ResponseMeta != nil {
		out.FinishReason = resp.ResponseMeta.FinishReason
	}
	return out, nil
}

var mockReplies = map[language.Language][]string{
	language.English: {
		"Thank you for your question. Is there anything else I can help you with?",
		"Thanks for the information. Let me know if you have any other questions.",
		"I'm happy to help you. Please feel free to ask if you need any assistance.",
	},
	language.Malayalam: {
		"താങ്കളുടെ ചോദ്യത്തിന് നന്ദി. എന്തെങ്കിലും മറ്റ് സഹായം ആവശ്യമുണ്ടോ?",
		"വിവരങ്ങൾക്ക് നന്ദി. ഇനിയും എന്തെങ്കിലും സംശയമുണ്ടെങ്കിൽ ചോദിക്കുക.",
		"സഹായത്തിന് താങ്കളെ സന്തോഷത്തോടെ സ്വാഗതം ചെയ്യുന്നു.",
	},
}

// MockGenerator 本地开发用的生成器，不访问网络
// 同样的输入总是得到同样的回复
type MockGenerator struct{}

// Generate 从固定回复中按输入哈希挑选一条
func (MockGenerator) Generate(ctx context.Context, p Prompt) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	replies := mockReplies[language.Normalize(string(p.Language))]

	h := fnv.New32a()
	_, _ = h.Write([]byte(p.User))
	return &Output{
		Text:         replies[int(h.Sum32()%uint32(len(replies)))],
		FinishReason: "stop",
	}, nil
}
