package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"helpdesk/internal/model/policy"
	"helpdesk/internal/repository"
)

// PolicyStore 政策存储
type PolicyStore struct {
	mu    sync.RWMutex
	items map[string]policy.Policy
}

// NewPolicyStore 创建政策存储
func NewPolicyStore() *PolicyStore {
	return &PolicyStore{items: make(map[string]policy.Policy)}
}

// List 按类型排序返回全部政策
func (s *PolicyStore) List(ctx context.Context) ([]*policy.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*policy.Policy, 0, len(s.items))
	for _, p := range s.items {
		cp := p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PolicyType < out[j].PolicyType })
	return out, nil
}

// FindByType 根据类型查询
func (s *PolicyStore) FindByType(ctx context.Context, policyType string) (*policy.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[policyType]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

// Upsert 写入政策，已存在时版本号加一
func (s *PolicyStore) Upsert(ctx context.Context, p *policy.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	cur, ok := s.items[p.PolicyType]
	if !ok {
		cur = policy.Policy{PolicyType: p.PolicyType, CreatedAt: now}
	}
	cur.ContentEN = p.ContentEN
	cur.ContentML = p.ContentML
	cur.Version++
	cur.UpdatedAt = now
	s.items[p.PolicyType] = cur
	return nil
}
