package policy

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Policy 店铺政策（退货、退款、配送等），双语内容
type Policy struct {
	PolicyType string    `bson:"_id" json:"policy_type"`
	ContentEN  string    `bson:"content_en" json:"content_en"`
	ContentML  string    `bson:"content_ml" json:"content_ml"`
	Version    int       `bson:"version" json:"version"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

// Collection 返回集合名称
func (p *Policy) Collection() string {
	return "policies"
}

// EnsureIndexes 主键即 policy_type，无需额外索引
func (p *Policy) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	return nil
}
