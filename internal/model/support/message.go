package support

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"helpdesk/internal/pkg/intent"
	"helpdesk/internal/pkg/language"
)

// Message 会话消息
// 排序按 created_at，再按 seq
type Message struct {
	ID               string            `bson:"_id" json:"id"`
	ConversationID   string            `bson:"conversation_id" json:"conversation_id"`
	Seq              int64             `bson:"seq" json:"seq"` // 会话内插入序号，从 1 开始
	Sender           Sender            `bson:"sender" json:"sender"`
	Message          string            `bson:"message" json:"message"`
	LanguageDetected language.Language `bson:"language_detected" json:"language_detected"`
	QueryType        intent.Intent     `bson:"query_type" json:"query_type"`
	AIConfidence     *float64          `bson:"ai_confidence,omitempty" json:"ai_confidence,omitempty"` // 仅 ai 消息
	UsedFallback     bool              `bson:"used_fallback,omitempty" json:"used_fallback,omitempty"` // 仅 ai 消息
	AgentID          string            `bson:"agent_id,omitempty" json:"agent_id,omitempty"`           // 仅 agent 消息
	CreatedAt        time.Time         `bson:"created_at" json:"created_at"`
}

// Sender 消息发送方
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAI    Sender = "ai"
	SenderAgent Sender = "agent"
)

// IsValid 检查发送方是否有效
func (s Sender) IsValid() bool {
	return s == SenderUser || s == SenderAI || s == SenderAgent
}

// String 返回发送方字符串
func (s Sender) String() string {
	return string(s)
}

// Collection 返回集合名称
func (m *Message) Collection() string {
	return "support_messages"
}

// EnsureIndexes 创建和维护索引
func (m *Message) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(m.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				bson.E{Key: "conversation_id", Value: 1},
				bson.E{Key: "created_at", Value: 1},
				bson.E{Key: "seq", Value: 1},
			},
			Options: options.Index().SetName("idx_conversation_created_seq"),
		},
		{
			Keys: bson.D{
				bson.E{Key: "conversation_id", Value: 1},
				bson.E{Key: "query_type", Value: 1},
				bson.E{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_conversation_query_type"),
		},
	}

	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
