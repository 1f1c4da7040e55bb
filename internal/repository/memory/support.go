// Package memory 进程内存储，未配置 MongoDB 时使用，也用于测试
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"helpdesk/internal/model/support"
	"helpdesk/internal/pkg/intent"
	"helpdesk/internal/repository"
)

// ConversationStore 会话存储
type ConversationStore struct {
	mu    sync.RWMutex
	items map[string]*support.Conversation
}

// NewConversationStore 创建会话存储
func NewConversationStore() *ConversationStore {
	return &ConversationStore{items: make(map[string]*support.Conversation)}
}

// Create 创建会话
func (s *ConversationStore) Create(ctx context.Context, conv *support.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[conv.ID]; ok {
		return repository.ErrDuplicateKey
	}
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = time.Now()
	}
	s.items[conv.ID] = conv.Clone()
	return nil
}

// FindByID 根据ID查询会话，返回副本
func (s *ConversationStore) FindByID(ctx context.Context, id string) (*support.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return conv.Clone(), nil
}

// Save 仅当存储中的状态仍为 expected 时替换
func (s *ConversationStore) Save(ctx context.Context, conv *support.Conversation, expected support.ConversationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[conv.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.Status != expected {
		return repository.ErrStaleState
	}
	conv.UpdatedAt = time.Now()
	s.items[conv.ID] = conv.Clone()
	return nil
}

// Delete 删除会话
func (s *ConversationStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// MessageStore 消息存储
type MessageStore struct {
	mu     sync.RWMutex
	byConv map[string][]*support.Message
	seq    map[string]int64
}

// NewMessageStore 创建消息存储
func NewMessageStore() *MessageStore {
	return &MessageStore{
		byConv: make(map[string][]*support.Message),
		seq:    make(map[string]int64),
	}
}

// Append 追加消息，分配序号
func (s *MessageStore) Append(ctx context.Context, msg *support.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[msg.ConversationID]++
	msg.Seq = s.seq[msg.ConversationID]
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	cp := *msg
	s.byConv[msg.ConversationID] = append(s.byConv[msg.ConversationID], &cp)
	return nil
}

// ListByConversation 按时间顺序返回全部消息
func (s *MessageStore) ListByConversation(ctx context.Context, conversationID string) ([]*support.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := copyMessages(s.byConv[conversationID])
	sortChronological(out)
	return out, nil
}

// ListRecent 返回最近 limit 条符合条件的消息，新的在前
func (s *MessageStore) ListRecent(ctx context.Context, conversationID string, senders []support.Sender, queryType intent.Intent, limit int) ([]*support.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed := make(map[support.Sender]bool, len(senders))
	for _, sd := range senders {
		allowed[sd] = true
	}

	var matched []*support.Message
	for _, m := range s.byConv[conversationID] {
		if allowed[m.Sender] && m.QueryType == queryType {
			cp := *m
			matched = append(matched, &cp)
		}
	}
	sortChronological(matched)

	// 反转为新的在前
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// DeleteByConversation 删除会话全部消息
func (s *MessageStore) DeleteByConversation(ctx context.Context, conversationID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.byConv[conversationID]))
	delete(s.byConv, conversationID)
	delete(s.seq, conversationID)
	return n, nil
}

// DeleteMessages 删除会话内指定 ID 的消息
func (s *MessageStore) DeleteMessages(ctx context.Context, conversationID string, ids []string) error {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.byConv[conversationID][:0]
	for _, m := range s.byConv[conversationID] {
		if !drop[m.ID] {
			kept = append(kept, m)
		}
	}
	s.byConv[conversationID] = kept
	return nil
}

func copyMessages(in []*support.Message) []*support.Message {
	out := make([]*support.Message, 0, len(in))
	for _, m := range in {
		cp := *m
		out = append(out, &cp)
	}
	return out
}

func sortChronological(msgs []*support.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		}
		return msgs[i].Seq < msgs[j].Seq
	})
}
