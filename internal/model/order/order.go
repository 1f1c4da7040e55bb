package order

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Order 订单
type Order struct {
	OrderID           string      `bson:"_id" json:"order_id"`
	UserID            string      `bson:"user_id" json:"user_id"`
	Status            OrderStatus `bson:"status" json:"status"`
	CreatedAt         time.Time   `bson:"created_at" json:"created_at"`
	PackedAt          *time.Time  `bson:"packed_at,omitempty" json:"packed_at,omitempty"`
	ShippedAt         *time.Time  `bson:"shipped_at,omitempty" json:"shipped_at,omitempty"`
	DeliveredAt       *time.Time  `bson:"delivered_at,omitempty" json:"delivered_at,omitempty"`
	TrackingNumber    string      `bson:"tracking_number,omitempty" json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time  `bson:"estimated_delivery,omitempty" json:"estimated_delivery,omitempty"`
}

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "placed"
	OrderStatusPacked         OrderStatus = "packed"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// IsValid 检查订单状态是否有效
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPlaced, OrderStatusPacked, OrderStatusShipped,
		OrderStatusOutForDelivery, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// String 返回状态字符串
func (s OrderStatus) String() string {
	return string(s)
}

// Collection 返回集合名称
func (o *Order) Collection() string {
	return "orders"
}

// EnsureIndexes 创建和维护索引
func (o *Order) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(o.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "user_id", Value: 1}, bson.E{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_user_created"),
		},
	}

	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
