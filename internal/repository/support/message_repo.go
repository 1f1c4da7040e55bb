package support

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"helpdesk/internal/model/support"
	"helpdesk/internal/pkg/intent"
)

const seqCollection = "support_message_seq"

// MessageRepo 会话消息仓库
type MessageRepo struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// NewMessageRepo 创建消息仓库
func NewMessageRepo(db *mongo.Database) *MessageRepo {
	return &MessageRepo{
		collection: db.Collection((&support.Message{}).Collection()),
		counters:   db.Collection(seqCollection),
	}
}

// 按时间再按序号排序
var chronological = bson.D{bson.E{Key: "created_at", Value: 1}, bson.E{Key: "seq", Value: 1}}
var newestFirst = bson.D{bson.E{Key: "created_at", Value: -1}, bson.E{Key: "seq", Value: -1}}

// nextSeq 原子递增会话的消息序号
func (r *MessageRepo) nextSeq(ctx context.Context, conversationID string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": conversationID},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}

// Append 追加消息，分配序号
func (r *MessageRepo) Append(ctx context.Context, msg *support.Message) error {
	seq, err := r.nextSeq(ctx, msg.ConversationID)
	if err != nil {
		return fmt.Errorf("allocate message seq: %w", err)
	}
	msg.Seq = seq
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListByConversation 按时间顺序返回会话全部消息
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID string) ([]*support.Message, error) {
	opts := options.Find().SetSort(chronological)
	return r.find(ctx, bson.M{"conversation_id": conversationID}, opts)
}

// ListRecent 返回最近 limit 条符合条件的消息，新的在前
func (r *MessageRepo) ListRecent(ctx context.Context, conversationID string, senders []support.Sender, queryType intent.Intent, limit int) ([]*support.Message, error) {
	filter := bson.M{
		"conversation_id": conversationID,
		"sender":          bson.M{"$in": senders},
		"query_type":      queryType,
	}
	opts := options.Find().
		SetSort(newestFirst).
		SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

// DeleteByConversation 删除会话全部消息及序号计数
func (r *MessageRepo) DeleteByConversation(ctx context.Context, conversationID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"conversation_id": conversationID})
	if err != nil {
		return 0, err
	}
	if _, err := r.counters.DeleteOne(ctx, bson.M{"_id": conversationID}); err != nil {
		return result.DeletedCount, err
	}
	return result.DeletedCount, nil
}

// DeleteMessages 删除会话内指定 ID 的消息，序号不回收
func (r *MessageRepo) DeleteMessages(ctx context.Context, conversationID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{
		"conversation_id": conversationID,
		"_id":             bson.M{"$in": ids},
	})
	return err
}

func (r *MessageRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*support.Message, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var msgs []*support.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
