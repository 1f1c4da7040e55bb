package policy

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"helpdesk/internal/model/policy"
	"helpdesk/internal/repository"
)

// PolicyRepo 政策仓库
type PolicyRepo struct {
	collection *mongo.Collection
}

// NewPolicyRepo 创建政策仓库
func NewPolicyRepo(db *mongo.Database) *PolicyRepo {
	return &PolicyRepo{
		collection: db.Collection((&policy.Policy{}).Collection()),
	}
}

// List 按类型排序返回全部政策
func (r *PolicyRepo) List(ctx context.Context) ([]*policy.Policy, error) {
	opts := options.Find().SetSort(bson.D{bson.E{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var policies []*policy.Policy
	if err := cursor.All(ctx, &policies); err != nil {
		return nil, err
	}
	return policies, nil
}

// FindByType 根据类型查询
func (r *PolicyRepo) FindByType(ctx context.Context, policyType string) (*policy.Policy, error) {
	var p policy.Policy
	err := r.collection.FindOne(ctx, bson.M{"_id": policyType}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Upsert 写入政策，已存在时版本号加一
func (r *PolicyRepo) Upsert(ctx context.Context, p *policy.Policy) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"content_en": p.ContentEN,
			"content_ml": p.ContentML,
			"updated_at": now,
		},
		"$inc":         bson.M{"version": 1},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": p.PolicyType}, update, options.Update().SetUpsert(true))
	return err
}
