// Package support 客服会话服务：消息理解、自动回复编排、人工升级状态机
package support

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"helpdesk/internal/model/support"
	"helpdesk/internal/pkg/id"
	"helpdesk/internal/pkg/intent"
	"helpdesk/internal/pkg/language"
	"helpdesk/internal/pkg/lock"
	"helpdesk/internal/repository"
)

const (
	defaultLockWait   = 30 * time.Second
	defaultEscalation = "Manual escalation"
	archiveTimeout    = 10 * time.Second
	undoTimeout       = 5 * time.Second
	maxMessageRunes   = 4000
	maxReasonRunes    = maxMessageRunes
)

// Service 客服会话服务
type Service struct {
	conversations ConversationStore
	messages      MessageStore
	orchestrator  *Orchestrator
	locker        Locker
	archiver      Archiver
	lockWait      time.Duration
	now           func() time.Time
}

// Option 服务可选项
type Option func(*Service)

// WithLocker 指定会话锁，默认进程内锁
func WithLocker(l Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

// WithArchiver 会话结束时归档聊天记录
func WithArchiver(a Archiver) Option {
	return func(s *Service) { s.archiver = a }
}

// WithLockWait 等待会话锁的最长时间
func WithLockWait(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lockWait = d
		}
	}
}

// WithClock 替换时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService 创建客服会话服务
func NewService(conversations ConversationStore, messages MessageStore, orchestrator *Orchestrator, opts ...Option) *Service {
	s := &Service{
		conversations: conversations,
		messages:      messages,
		orchestrator:  orchestrator,
		locker:        lock.NewKeyedMutex(),
		lockWait:      defaultLockWait,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ConversationDetail 会话及其消息
type ConversationDetail struct {
	Conversation *support.Conversation
	Messages     []*support.Message
}

// MessageResult 处理用户消息的结果
type MessageResult struct {
	UserMessage      *support.Message
	DetectedLanguage language.Language
	ResponseLanguage language.Language
	DetectedIntent   intent.Intent
	AIMessage        *support.Message // 被状态拦截或本轮触发升级时为 nil
	Escalated        bool             // 本轮是否由消息触发了升级
	Status           support.ConversationStatus
}

// TransitionResult 状态转换结果
type TransitionResult struct {
	ConversationID string
	Status         support.ConversationStatus
	Escalated      bool
	Reason         string
	AssignedAgent  *string
	EscalatedAt    *time.Time
	ResolvedAt     *time.Time
	EndedAt        *time.Time
	TranscriptURL  string
}

// CreateConversation 创建会话
func (s *Service) CreateConversation(ctx context.Context, userID string, lang string) (*support.Conversation, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	convLang := language.English
	if lang != "" {
		convLang = language.Language(strings.ToLower(strings.TrimSpace(lang)))
		if !convLang.IsConcrete() {
			return nil, fmt.Errorf("%w: unsupported language %q", ErrInvalidInput, lang)
		}
	}

	now := s.now()
	conv := &support.Conversation{
		ID:        id.New(),
		UserID:    userID,
		Language:  convLang,
		Status:    support.StatusOpen,
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	log.Info().Str("conversation_id", conv.ID).Str("language", convLang.String()).Msg("conversation created")
	return conv, nil
}

// GetConversation 查询会话及全部消息
func (s *Service) GetConversation(ctx context.Context, conversationID string) (*ConversationDetail, error) {
	conv, err := s.load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return &ConversationDetail{Conversation: conv, Messages: msgs}, nil
}

// HandleUserMessage 处理一条用户消息
// 同一会话的消息串行处理；回复在写入当前消息之前生成，上下文不包含当前消息
func (s *Service) HandleUserMessage(ctx context.Context, conversationID, text string) (*MessageResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if len([]rune(text)) > maxMessageRunes {
		return nil, fmt.Errorf("%w: message exceeds %d characters", ErrInvalidInput, maxMessageRunes)
	}

	unlock, err := s.lock(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	conv, err := s.load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	expected := conv.Status

	detected := language.Detect(text)
	IngestLanguage(conv, detected)
	respLang := language.ResponseLanguage(conv.Language, detected)
	detectedIntent := intent.Classify(text, detected)

	result := &MessageResult{
		DetectedLanguage: detected,
		ResponseLanguage: respLang,
		DetectedIntent:   detectedIntent,
	}

	now := s.now()
	var reply *Reply
	switch {
	case detectedIntent == intent.Escalation && conv.Status == support.StatusOpen:
		if err := Escalate(conv, truncateRunes(text, maxReasonRunes), now); err != nil {
			return nil, err
		}
		result.Escalated = true
		log.Info().Str("conversation_id", conv.ID).Msg("conversation escalated by customer request")
	case AllowsAutomation(conv):
		r := s.orchestrator.Respond(ctx, conv, Inbound{Text: text, Intent: detectedIntent, Language: respLang})
		reply = &r
	default:
		log.Debug().Str("conversation_id", conv.ID).Str("status", conv.Status.String()).Msg("automation blocked by conversation state")
	}

	userMsg := &support.Message{
		ID:               id.New(),
		ConversationID:   conv.ID,
		Sender:           support.SenderUser,
		Message:          text,
		LanguageDetected: detected,
		QueryType:        detectedIntent,
		CreatedAt:        now,
	}
	if err := s.messages.Append(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}
	result.UserMessage = userMsg
	appended := []string{userMsg.ID}

	if reply != nil {
		confidence := reply.Confidence
		aiMsg := &support.Message{
			ID:               id.New(),
			ConversationID:   conv.ID,
			Sender:           support.SenderAI,
			Message:          reply.Text,
			LanguageDetected: respLang,
			QueryType:        detectedIntent,
			AIConfidence:     &confidence,
			UsedFallback:     reply.UsedFallback,
			CreatedAt:        laterOf(s.now(), now),
		}
		if err := s.messages.Append(ctx, aiMsg); err != nil {
			s.undoAppend(ctx, conv.ID, appended)
			return nil, fmt.Errorf("save ai message: %w", err)
		}
		result.AIMessage = aiMsg
		appended = append(appended, aiMsg.ID)
	}

	conv.MessageCount++
	if err := s.save(ctx, conv, expected); err != nil {
		s.undoAppend(ctx, conv.ID, appended)
		return nil, err
	}
	result.Status = conv.Status
	return result, nil
}

// undoAppend 会话保存失败时撤回本轮写入的消息
func (s *Service) undoAppend(ctx context.Context, conversationID string, ids []string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), undoTimeout)
	defer cancel()
	if err := s.messages.DeleteMessages(ctx, conversationID, ids); err != nil {
		log.Error().Err(err).
			Str("conversation_id", conversationID).
			Strs("message_ids", ids).
			Msg("failed to remove messages of a failed turn")
	}
}

// PostAgentMessage 坐席发送消息，只在 escalated/assigned 状态下允许
func (s *Service) PostAgentMessage(ctx context.Context, conversationID, agentID, text string) (*support.Message, error) {
	text = strings.TrimSpace(text)
	agentID = strings.TrimSpace(agentID)
	if text == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if agentID == "" {
		return nil, fmt.Errorf("%w: agent_id is required", ErrInvalidInput)
	}

	unlock, err := s.lock(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	conv, err := s.load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if err := AcceptsAgentMessages(conv); err != nil {
		return nil, err
	}

	msg := &support.Message{
		ID:               id.New(),
		ConversationID:   conv.ID,
		Sender:           support.SenderAgent,
		Message:          text,
		LanguageDetected: language.Detect(text),
		QueryType:        intent.General,
		AgentID:          agentID,
		CreatedAt:        s.now(),
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, fmt.Errorf("save agent message: %w", err)
	}

	if err := s.save(ctx, conv, conv.Status); err != nil {
		s.undoAppend(ctx, conv.ID, []string{msg.ID})
		return nil, err
	}
	return msg, nil
}

// Escalate 手动升级到人工
func (s *Service) Escalate(ctx context.Context, conversationID, reason string) (*TransitionResult, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultEscalation
	}
	reason = truncateRunes(reason, maxReasonRunes)

	return s.transition(ctx, conversationID, func(conv *support.Conversation, now time.Time) error {
		return Escalate(conv, reason, now)
	})
}

// Assign 分配坐席
func (s *Service) Assign(ctx context.Context, conversationID, agentID string) (*TransitionResult, error) {
	return s.transition(ctx, conversationID, func(conv *support.Conversation, now time.Time) error {
		return Assign(conv, agentID, now)
	})
}

// Resolve 结束会话，配置了归档时上传聊天记录
// 归档失败只记录日志，不影响结束
func (s *Service) Resolve(ctx context.Context, conversationID string) (*TransitionResult, error) {
	res, err := s.transition(ctx, conversationID, func(conv *support.Conversation, now time.Time) error {
		return Resolve(conv, now)
	})
	if err != nil || s.archiver == nil {
		return res, err
	}

	res.TranscriptURL = s.archive(ctx, conversationID)
	return res, nil
}

// DeleteConversation 删除会话及其全部消息
func (s *Service) DeleteConversation(ctx context.Context, conversationID string) error {
	unlock, err := s.lock(ctx, conversationID)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := s.load(ctx, conversationID); err != nil {
		return err
	}

	n, err := s.messages.DeleteByConversation(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if err := s.conversations.Delete(ctx, conversationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrConversationNotFound
		}
		return fmt.Errorf("delete conversation: %w", err)
	}

	log.Info().Str("conversation_id", conversationID).Int64("messages", n).Msg("conversation deleted")
	return nil
}

func (s *Service) transition(ctx context.Context, conversationID string, apply func(*support.Conversation, time.Time) error) (*TransitionResult, error) {
	unlock, err := s.lock(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	conv, err := s.load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	expected := conv.Status

	if err := apply(conv, s.now()); err != nil {
		return nil, err
	}
	if err := s.save(ctx, conv, expected); err != nil {
		return nil, err
	}

	log.Info().
		Str("conversation_id", conv.ID).
		Str("from", expected.String()).
		Str("to", conv.Status.String()).
		Msg("conversation status changed")

	return &TransitionResult{
		ConversationID: conv.ID,
		Status:         conv.Status,
		Escalated:      conv.Escalated,
		Reason:         conv.EscalationReason,
		AssignedAgent:  conv.AssignedAgent,
		EscalatedAt:    conv.EscalatedAt,
		ResolvedAt:     conv.ResolvedAt,
		EndedAt:        conv.EndedAt,
	}, nil
}

func (s *Service) archive(ctx context.Context, conversationID string) string {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	conv, err := s.load(ctx, conversationID)
	if err != nil {
		log.Warn().Err(err).Str("conversation_id", conversationID).Msg("failed to load conversation for archive")
		return ""
	}
	msgs, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		log.Warn().Err(err).Str("conversation_id", conversationID).Msg("failed to load messages for archive")
		return ""
	}

	url, err := s.archiver.Archive(ctx, conv, msgs)
	if err != nil {
		log.Warn().Err(err).Str("conversation_id", conversationID).Msg("failed to archive transcript")
		return ""
	}
	log.Info().Str("conversation_id", conversationID).Str("url", url).Msg("transcript archived")
	return url
}

func (s *Service) lock(ctx context.Context, conversationID string) (func(), error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, fmt.Errorf("%w: conversation id is required", ErrInvalidInput)
	}
	lctx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()

	unlock, err := s.locker.Lock(lctx, conversationID)
	if err != nil {
		if errors.Is(err, lock.ErrLockTimeout) {
			log.Warn().Str("conversation_id", conversationID).Msg("timed out waiting for conversation lock")
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("acquire conversation lock: %w", err)
	}
	return unlock, nil
}

func (s *Service) load(ctx context.Context, conversationID string) (*support.Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	return conv, nil
}

func (s *Service) save(ctx context.Context, conv *support.Conversation, expected support.ConversationStatus) error {
	if err := s.conversations.Save(ctx, conv, expected); err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleState):
			log.Warn().Str("conversation_id", conv.ID).Str("expected", expected.String()).Msg("conversation state changed concurrently")
			return ErrStaleState
		case errors.Is(err, repository.ErrNotFound):
			return ErrConversationNotFound
		}
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func laterOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return b
	}
	return a
}
