package mongodb

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"helpdesk/internal/model/order"
	"helpdesk/internal/model/policy"
	"helpdesk/internal/model/support"
)

// Model 自行维护索引的集合
type Model interface {
	Collection() string
	EnsureIndexes(ctx context.Context, db *mongo.Database) error
}

// Models 服务持久化的全部集合
func Models() []Model {
	return []Model{
		&support.Conversation{},
		&support.Message{},
		&order.Order{},
		&order.ReturnRequest{},
		&policy.Policy{},
	}
}

// EnsureIndexes 启动时为所有集合建索引，已存在的同名索引不会重复创建
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, m := range Models() {
		if err := m.EnsureIndexes(ctx, db); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", m.Collection(), err)
		}
		log.Debug().Str("collection", m.Collection()).Msg("indexes ensured")
	}
	return nil
}
