package order

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"helpdesk/internal/model/order"
	"helpdesk/internal/repository"
)

// ReturnRepo 退货申请仓库
type ReturnRepo struct {
	collection *mongo.Collection
}

// NewReturnRepo 创建退货申请仓库
func NewReturnRepo(db *mongo.Database) *ReturnRepo {
	return &ReturnRepo{
		collection: db.Collection((&order.ReturnRequest{}).Collection()),
	}
}

// Create 创建退货申请，单号冲突时返回 repository.ErrDuplicateKey
func (r *ReturnRepo) Create(ctx context.Context, req *order.ReturnRequest) error {
	now := time.Now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, req); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateKey
		}
		return err
	}
	return nil
}

// FindByID 根据退货单号查询
func (r *ReturnRepo) FindByID(ctx context.Context, returnID string) (*order.ReturnRequest, error) {
	var req order.ReturnRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": returnID}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}
