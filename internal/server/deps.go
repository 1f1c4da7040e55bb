package server

import (
	"context"

	"github.com/rs/zerolog/log"

	"helpdesk/internal/config"
	"helpdesk/internal/handler"
	"helpdesk/internal/pkg/cache"
	"helpdesk/internal/pkg/mongodb"
	"helpdesk/internal/repository/memory"
	orderRepo "helpdesk/internal/repository/order"
	policyRepo "helpdesk/internal/repository/policy"
	supportRepo "helpdesk/internal/repository/support"
	"helpdesk/internal/service"
	supportsvc "helpdesk/internal/service/support"
)

// Deps 存储层依赖
// 未配置 MongoDB 或连接失败时使用进程内存储，重启后数据丢失
type Deps struct {
	Mongo *mongodb.Client
	Redis *cache.RedisCache

	Conversations supportsvc.ConversationStore
	Messages      supportsvc.MessageStore
	Orders        service.OrderStore
	Returns       service.ReturnStore
	Policies      service.PolicyStore
}

// OpenDeps 连接 MongoDB 和 Redis，二者都是可选的
func OpenDeps(ctx context.Context, cfg *config.Config) *Deps {
	d := &Deps{}

	if cfg.Mongo.URI != "" {
		client, err := mongodb.New(&cfg.Mongo)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to MongoDB, continuing with in-memory stores")
		} else {
			d.Mongo = client
			log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

			if err := mongodb.EnsureIndexes(ctx, client.Database()); err != nil {
				log.Warn().Err(err).Msg("failed to ensure indexes")
			}
		}
	}

	if d.Mongo != nil {
		db := d.Mongo.Database()
		d.Conversations = supportRepo.NewConversationRepo(db)
		d.Messages = supportRepo.NewMessageRepo(db)
		d.Orders = orderRepo.NewOrderRepo(db)
		d.Returns = orderRepo.NewReturnRepo(db)
		d.Policies = policyRepo.NewPolicyRepo(db)
	} else {
		log.Warn().Msg("MongoDB not configured, using in-memory stores")
		d.Conversations = memory.NewConversationStore()
		d.Messages = memory.NewMessageStore()
		d.Orders = memory.NewOrderStore()
		d.Returns = memory.NewReturnStore()
		d.Policies = memory.NewPolicyStore()
	}

	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache and distributed lock")
		} else {
			d.Redis = cache.NewRedisCache(rc)
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	return d
}

// Pingers 返回需要做就绪检查的依赖
func (d *Deps) Pingers() map[string]handler.Pinger {
	deps := make(map[string]handler.Pinger)
	if d.Mongo != nil {
		deps["mongo"] = d.Mongo
	}
	if d.Redis != nil {
		deps["redis"] = d.Redis
	}
	return deps
}

// Close 关闭连接
func (d *Deps) Close(ctx context.Context) {
	if d.Mongo != nil {
		if err := d.Mongo.Close(ctx); err != nil {
			log.Error().Err(err).Msg("failed to close MongoDB connection")
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close Redis connection")
		}
	}
}
