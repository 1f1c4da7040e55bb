package support

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"helpdesk/internal/model/support"
	"helpdesk/internal/repository"
)

// ConversationRepo 会话仓库
// 使用UUID作为ID，无需ObjectID转换
type ConversationRepo struct {
	collection *mongo.Collection
}

// NewConversationRepo 创建会话仓库
func NewConversationRepo(db *mongo.Database) *ConversationRepo {
	return &ConversationRepo{
		collection: db.Collection((&support.Conversation{}).Collection()),
	}
}

// Create 创建会话
func (r *ConversationRepo) Create(ctx context.Context, conv *support.Conversation) error {
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = time.Now()
	}
	if _, err := r.collection.InsertOne(ctx, conv); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateKey
		}
		return err
	}
	return nil
}

// FindByID 根据ID查询会话
func (r *ConversationRepo) FindByID(ctx context.Context, id string) (*support.Conversation, error) {
	var conv support.Conversation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// Save 整体替换会话，仅当库中状态仍为 expected 时生效
// 状态已被其他请求推进时返回 repository.ErrStaleState
func (r *ConversationRepo) Save(ctx context.Context, conv *support.Conversation, expected support.ConversationStatus) error {
	conv.UpdatedAt = time.Now()

	filter := bson.M{"_id": conv.ID, "status": expected}
	result, err := r.collection.ReplaceOne(ctx, filter, conv)
	if err != nil {
		return fmt.Errorf("replace conversation: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": conv.ID})
	if err != nil {
		return fmt.Errorf("count conversation: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrStaleState
}

// Delete 删除会话（不含消息，级联删除由服务层负责）
func (r *ConversationRepo) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
