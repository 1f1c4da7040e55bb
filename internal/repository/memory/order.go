package memory

import (
	"context"
	"sync"
	"time"

	"helpdesk/internal/model/order"
	"helpdesk/internal/repository"
)

// OrderStore 订单存储
type OrderStore struct {
	mu    sync.RWMutex
	items map[string]order.Order
}

// NewOrderStore 创建订单存储
func NewOrderStore() *OrderStore {
	return &OrderStore{items: make(map[string]order.Order)}
}

// FindByID 根据订单号查询
func (s *OrderStore) FindByID(ctx context.Context, orderID string) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.items[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

// FindLatestByUser 查询用户最近创建的订单
func (s *OrderStore) FindLatestByUser(ctx context.Context, userID string) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *order.Order
	for _, o := range s.items {
		if o.UserID != userID {
			continue
		}
		if latest == nil || o.CreatedAt.After(latest.CreatedAt) {
			cp := o
			latest = &cp
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	return latest, nil
}

// Upsert 按订单号写入
func (s *OrderStore) Upsert(ctx context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[o.OrderID] = *o
	return nil
}

// ReturnStore 退货申请存储
type ReturnStore struct {
	mu    sync.RWMutex
	items map[string]order.ReturnRequest
}

// NewReturnStore 创建退货申请存储
func NewReturnStore() *ReturnStore {
	return &ReturnStore{items: make(map[string]order.ReturnRequest)}
}

// Create 创建退货申请，单号冲突时返回 repository.ErrDuplicateKey
func (s *ReturnStore) Create(ctx context.Context, req *order.ReturnRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[req.ReturnID]; ok {
		return repository.ErrDuplicateKey
	}
	now := time.Now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now
	s.items[req.ReturnID] = *req
	return nil
}

// FindByID 根据退货单号查询
func (s *ReturnStore) FindByID(ctx context.Context, returnID string) (*order.ReturnRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.items[returnID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &req, nil
}
