package order

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"helpdesk/internal/model/order"
	"helpdesk/internal/repository"
)

// OrderRepo 订单仓库
type OrderRepo struct {
	collection *mongo.Collection
}

// NewOrderRepo 创建订单仓库
func NewOrderRepo(db *mongo.Database) *OrderRepo {
	return &OrderRepo{
		collection: db.Collection((&order.Order{}).Collection()),
	}
}

// FindByID 根据订单号查询
func (r *OrderRepo) FindByID(ctx context.Context, orderID string) (*order.Order, error) {
	var o order.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": orderID}).Decode(&o)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindLatestByUser 查询用户最近创建的订单
func (r *OrderRepo) FindLatestByUser(ctx context.Context, userID string) (*order.Order, error) {
	opts := options.FindOne().SetSort(bson.D{bson.E{Key: "created_at", Value: -1}})

	var o order.Order
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&o)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// Upsert 按订单号写入（用于演示数据）
func (r *OrderRepo) Upsert(ctx context.Context, o *order.Order) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": o.OrderID}, o, opts)
	return err
}
