package support

import (
	"context"

	"helpdesk/internal/model/order"
	"helpdesk/internal/model/support"
	"helpdesk/internal/pkg/intent"
)

// ConversationStore 会话持久化
// 记录不存在时返回 repository.ErrNotFound，条件更新未命中时返回 repository.ErrStaleState
type ConversationStore interface {
	Create(ctx context.Context, conv *support.Conversation) error
	FindByID(ctx context.Context, id string) (*support.Conversation, error)
	Save(ctx context.Context, conv *support.Conversation, expected support.ConversationStatus) error
	Delete(ctx context.Context, id string) error
}

// MessageStore 消息持久化
type MessageStore interface {
	Append(ctx context.Context, msg *support.Message) error
	// ListByConversation 按 created_at、seq 升序
	ListByConversation(ctx context.Context, conversationID string) ([]*support.Message, error)
	// ListRecent 按 created_at、seq 降序，最多 limit 条
	ListRecent(ctx context.Context, conversationID string, senders []support.Sender, queryType intent.Intent, limit int) ([]*support.Message, error)
	DeleteByConversation(ctx context.Context, conversationID string) (int64, error)
	// DeleteMessages 删除会话内指定 ID 的消息，不存在的 ID 忽略
	DeleteMessages(ctx context.Context, conversationID string, ids []string) error
}

// OrderLookup 查询用户最近的订单，用于填充订单模板
type OrderLookup interface {
	FindLatestOrder(ctx context.Context, userID string) (*order.Order, error)
}

// PolicyLookup 查询已有的政策类型，用于填充政策模板
type PolicyLookup interface {
	ListPolicyTypes(ctx context.Context) ([]string, error)
}

// Locker 按会话串行化处理
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Archiver 会话结束后归档聊天记录，返回访问地址
type Archiver interface {
	Archive(ctx context.Context, conv *support.Conversation, messages []*support.Message) (string, error)
}
