package support

import (
	"context"
	"errors"
	"sync"
	"time"

	"helpdesk/internal/ai"
	"helpdesk/internal/model/order"
	"helpdesk/internal/model/support"
	"helpdesk/internal/pkg/intent"
	"helpdesk/internal/repository"
)

// stubGenerator 固定返回一条回复，并记录最后一次提示词
type stubGenerator struct {
	mu    sync.Mutex
	text  string
	err   error
	last  ai.Prompt
	calls int
}

func (g *stubGenerator) Generate(ctx context.Context, p ai.Prompt) (*ai.Output, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = p
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &ai.Output{Text: g.text, FinishReason: "stop"}, nil
}

func (g *stubGenerator) lastPrompt() ai.Prompt {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func newAIClient(gen ai.Generator) *ai.Client {
	return ai.NewClient(ai.Config{Provider: "stub", MaxTokens: 500, Timeout: time.Second}, gen)
}

// fakeOrders 按用户返回固定订单
type fakeOrders struct {
	byUser map[string]*order.Order
	err    error
}

func (f *fakeOrders) FindLatestOrder(ctx context.Context, userID string) (*order.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	if o, ok := f.byUser[userID]; ok {
		return o, nil
	}
	return nil, repository.ErrNotFound
}

// fakePolicies 返回固定的政策类型
type fakePolicies struct {
	types []string
	err   error
}

func (f *fakePolicies) ListPolicyTypes(ctx context.Context) ([]string, error) {
	return f.types, f.err
}

// brokenMessages 所有读操作都失败
type brokenMessages struct {
	MessageStore
	panics bool
}

func (b *brokenMessages) ListRecent(ctx context.Context, conversationID string, senders []support.Sender, queryType intent.Intent, limit int) ([]*support.Message, error) {
	if b.panics {
		panic("store exploded")
	}
	return nil, errors.New("connection reset")
}

// unfilteredMessages ListRecent 忽略条件和数量，按时间升序返回全部消息
type unfilteredMessages struct {
	MessageStore
}

func (u *unfilteredMessages) ListRecent(ctx context.Context, conversationID string, senders []support.Sender, queryType intent.Intent, limit int) ([]*support.Message, error) {
	return u.MessageStore.ListByConversation(ctx, conversationID)
}

// staleConversations 保存时总是报告状态已变化
type staleConversations struct {
	ConversationStore
}

func (s *staleConversations) Save(ctx context.Context, conv *support.Conversation, expected support.ConversationStatus) error {
	return repository.ErrStaleState
}

// timeoutLocker 永远拿不到锁
type timeoutLocker struct {
	err error
}

func (l timeoutLocker) Lock(ctx context.Context, key string) (func(), error) {
	return nil, l.err
}

// fakeArchiver 记录归档内容
type fakeArchiver struct {
	mu       sync.Mutex
	err      error
	archived map[string]int
}

func (a *fakeArchiver) Archive(ctx context.Context, conv *support.Conversation, messages []*support.Message) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	if a.archived == nil {
		a.archived = map[string]int{}
	}
	a.archived[conv.ID] = len(messages)
	return "mem://" + TranscriptKey(conv.ID), nil
}
