package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"helpdesk/internal/model/policy"
	"helpdesk/internal/pkg/cache"
	"helpdesk/internal/pkg/logger"
	"helpdesk/internal/repository"
)

// ErrPolicyNotFound 政策不存在
var ErrPolicyNotFound = errors.New("policy not found")

// PolicyStore 政策存储
type PolicyStore interface {
	List(ctx context.Context) ([]*policy.Policy, error)
	FindByType(ctx context.Context, policyType string) (*policy.Policy, error)
	Upsert(ctx context.Context, p *policy.Policy) error
}

// PolicyCache 政策缓存，未命中时返回 cache.ErrCacheMiss
type PolicyCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// PolicyService 政策查询服务，读穿透缓存
// 缓存不可用时直接读库
type PolicyService struct {
	store PolicyStore
	cache PolicyCache
	ttl   time.Duration
}

// NewPolicyService 创建政策服务，cache 可以为 nil
func NewPolicyService(store PolicyStore, c PolicyCache, ttl time.Duration) *PolicyService {
	return &PolicyService{store: store, cache: c, ttl: ttl}
}

// ListPolicies 返回全部政策
func (s *PolicyService) ListPolicies(ctx context.Context) ([]*policy.Policy, error) {
	var cached []*policy.Policy
	if s.cacheGet(ctx, cache.PolicyListKey, &cached) {
		return cached, nil
	}

	policies, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	if policies == nil {
		policies = []*policy.Policy{}
	}
	s.cacheSet(ctx, cache.PolicyListKey, policies)
	return policies, nil
}

// GetPolicy 按类型查询政策
func (s *PolicyService) GetPolicy(ctx context.Context, policyType string) (*policy.Policy, error) {
	policyType = NormalizePolicyType(policyType)
	if policyType == "" {
		return nil, fmt.Errorf("%w: policy_type is required", ErrInvalidInput)
	}

	key := cache.PolicyCacheKey(policyType)
	var cached policy.Policy
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	p, err := s.store.FindByType(ctx, policyType)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPolicyNotFound
		}
		return nil, fmt.Errorf("get policy: %w", err)
	}
	s.cacheSet(ctx, key, p)
	return p, nil
}

// ListPolicyTypes 返回全部政策类型
func (s *PolicyService) ListPolicyTypes(ctx context.Context) ([]string, error) {
	policies, err := s.ListPolicies(ctx)
	if err != nil {
		return nil, err
	}
	types := make([]string, 0, len(policies))
	for _, p := range policies {
		types = append(types, p.PolicyType)
	}
	return types, nil
}

// UpsertPolicy 写入政策并清理相关缓存
func (s *PolicyService) UpsertPolicy(ctx context.Context, p *policy.Policy) error {
	p.PolicyType = NormalizePolicyType(p.PolicyType)
	if p.PolicyType == "" {
		return fmt.Errorf("%w: policy_type is required", ErrInvalidInput)
	}
	if err := s.store.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert policy: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.PolicyListKey, cache.PolicyCacheKey(p.PolicyType)); err != nil {
			log.Warn().Err(err).Str("policy_type", p.PolicyType).Msg("failed to invalidate policy cache")
		}
	}
	return nil
}

// NormalizePolicyType 统一为小写、下划线分隔
func NormalizePolicyType(policyType string) string {
	t := strings.ToLower(strings.TrimSpace(policyType))
	return strings.Join(strings.Fields(t), "_")
}

func (s *PolicyService) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	if err := s.cache.Get(ctx, key, dest); err != nil {
		l := logger.Component("policy_cache")
		if errors.Is(err, cache.ErrCacheMiss) {
			l.Debug().Str("key", key).Msg("policy cache miss")
		} else {
			l.Warn().Err(err).Str("key", key).Msg("policy cache read failed, falling back to store")
		}
		return false
	}
	return true
}

func (s *PolicyService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		logger.Component("policy_cache").Warn().Err(err).Str("key", key).Msg("policy cache write failed")
	}
}
