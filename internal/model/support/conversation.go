package support

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"helpdesk/internal/pkg/language"
)

// Conversation 客服会话
// 状态和升级相关字段只能通过 service/support 的生命周期函数修改
type Conversation struct {
	ID               string             `bson:"_id" json:"id"`
	UserID           string             `bson:"user_id" json:"user_id"`
	Language         language.Language  `bson:"language" json:"language"`           // 会话语言 en/ml
	MessageCount     int                `bson:"message_count" json:"message_count"` // 已处理的用户消息数
	Escalated        bool               `bson:"escalated" json:"escalated"`
	EscalationReason string             `bson:"escalation_reason,omitempty" json:"escalation_reason,omitempty"`
	Status           ConversationStatus `bson:"status" json:"status"`
	AssignedAgent    *string            `bson:"assigned_agent,omitempty" json:"assigned_agent"`
	StartedAt        time.Time          `bson:"started_at" json:"started_at"`
	EscalatedAt      *time.Time         `bson:"escalated_at,omitempty" json:"escalated_at"`
	ResolvedAt       *time.Time         `bson:"resolved_at,omitempty" json:"resolved_at"`
	EndedAt          *time.Time         `bson:"ended_at,omitempty" json:"ended_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// ConversationStatus 会话状态，只能前进：open → escalated → assigned → resolved
type ConversationStatus string

const (
	StatusOpen      ConversationStatus = "open"
	StatusEscalated ConversationStatus = "escalated"
	StatusAssigned  ConversationStatus = "assigned"
	StatusResolved  ConversationStatus = "resolved"
)

// IsValid 检查状态是否有效
func (s ConversationStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusEscalated, StatusAssigned, StatusResolved:
		return true
	}
	return false
}

// String 返回状态字符串
func (s ConversationStatus) String() string {
	return string(s)
}

// Clone 深拷贝，指针字段各自独立
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.AssignedAgent = cloneString(c.AssignedAgent)
	out.EscalatedAt = cloneTime(c.EscalatedAt)
	out.ResolvedAt = cloneTime(c.ResolvedAt)
	out.EndedAt = cloneTime(c.EndedAt)
	return &out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Collection 返回集合名称
func (c *Conversation) Collection() string {
	return "support_conversations"
}

// EnsureIndexes 创建和维护索引
func (c *Conversation) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(c.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "user_id", Value: 1}, bson.E{Key: "started_at", Value: -1}},
			Options: options.Index().SetName("idx_user_started"),
		},
		{
			Keys:    bson.D{bson.E{Key: "status", Value: 1}, bson.E{Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("idx_status_updated"),
		},
	}

	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
