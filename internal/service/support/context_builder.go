package support

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"helpdesk/internal/model/support"
	"helpdesk/internal/pkg/intent"
)

// ContextWindow 送入大模型的历史消息条数上限
const ContextWindow = 10

var contextSenders = []support.Sender{support.SenderUser, support.SenderAI}

// ContextBuilder 为 general 意图组装对话上下文
type ContextBuilder struct {
	messages MessageStore
}

// NewContextBuilder 创建上下文组装器
func NewContextBuilder(messages MessageStore) *ContextBuilder {
	return &ContextBuilder{messages: messages}
}

// Build 取最近 ContextWindow 条 general 意图的用户/AI 消息，按时间正序拼成文本
// 没有可用消息时返回空串；存储出错不影响回复，只记录日志
func (b *ContextBuilder) Build(ctx context.Context, conv *support.Conversation) (history string) {
	if conv == nil || b.messages == nil {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("conversation_id", conv.ID).Interface("panic", r).Msg("context build panicked")
			history = ""
		}
	}()

	recent, err := b.messages.ListRecent(ctx, conv.ID, contextSenders, intent.General, ContextWindow)
	if err != nil {
		log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("failed to load conversation context")
		return ""
	}

	// 不依赖存储层的过滤和排序
	kept := make([]*support.Message, 0, len(recent))
	for _, m := range recent {
		if m == nil || m.QueryType != intent.General {
			continue
		}
		if m.Sender != support.SenderUser && m.Sender != support.SenderAI {
			continue
		}
		kept = append(kept, m)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if !kept[i].CreatedAt.Equal(kept[j].CreatedAt) {
			return kept[i].CreatedAt.Before(kept[j].CreatedAt)
		}
		return kept[i].Seq < kept[j].Seq
	})
	if len(kept) > ContextWindow {
		kept = kept[len(kept)-ContextWindow:]
	}
	if len(kept) == 0 {
		return ""
	}

	lines := make([]string, 0, len(kept))
	for _, m := range kept {
		if m.Sender == support.SenderUser {
			lines = append(lines, fmt.Sprintf("User: %s", m.Message))
		} else {
			lines = append(lines, fmt.Sprintf("Assistant: %s", m.Message))
		}
	}
	return strings.Join(lines, "\n") + "\n\n"
}
