package order

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReturnRequest 退货申请
type ReturnRequest struct {
	ReturnID     string       `bson:"_id" json:"return_id"` // RET-#####
	OrderID      string       `bson:"order_id" json:"order_id"`
	ProductID    string       `bson:"product_id" json:"product_id"`
	Reason       ReturnReason `bson:"reason" json:"reason"`
	Status       ReturnStatus `bson:"status" json:"status"`
	RefundAmount float64      `bson:"refund_amount" json:"refund_amount"`
	CreatedAt    time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `bson:"updated_at" json:"updated_at"`
}

// ReturnReason 退货原因
type ReturnReason string

const (
	ReturnReasonDamaged   ReturnReason = "damaged"
	ReturnReasonUnwanted  ReturnReason = "unwanted"
	ReturnReasonDefective ReturnReason = "defective"
)

// IsValid 检查退货原因是否有效
func (r ReturnReason) IsValid() bool {
	return r == ReturnReasonDamaged || r == ReturnReasonUnwanted || r == ReturnReasonDefective
}

// String 返回原因字符串
func (r ReturnReason) String() string {
	return string(r)
}

// ReturnStatus 退货状态
type ReturnStatus string

const (
	ReturnStatusRequested ReturnStatus = "requested"
	ReturnStatusApproved  ReturnStatus = "approved"
	ReturnStatusRejected  ReturnStatus = "rejected"
	ReturnStatusReturned  ReturnStatus = "returned"
	ReturnStatusRefunded  ReturnStatus = "refunded"
)

// IsValid 检查退货状态是否有效
func (s ReturnStatus) IsValid() bool {
	switch s {
	case ReturnStatusRequested, ReturnStatusApproved, ReturnStatusRejected,
		ReturnStatusReturned, ReturnStatusRefunded:
		return true
	}
	return false
}

// String 返回状态字符串
func (s ReturnStatus) String() string {
	return string(s)
}

// Collection 返回集合名称
func (r *ReturnRequest) Collection() string {
	return "returns"
}

// EnsureIndexes 创建和维护索引
func (r *ReturnRequest) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(r.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "order_id", Value: 1}, bson.E{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_order_created"),
		},
	}

	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
