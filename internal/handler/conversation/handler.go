package conversation

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"helpdesk/internal/model/support"
	httputil "helpdesk/internal/pkg/http"
	supportsvc "helpdesk/internal/service/support"
)

// ErrorResponse 复用通用错误响应
type ErrorResponse = httputil.ErrorResponse

// Handler 客服会话处理器
type Handler struct {
	svc *supportsvc.Service
}

// NewHandler 创建客服会话处理器
func NewHandler(svc *supportsvc.Service) *Handler {
	return &Handler{svc: svc}
}

// ConversationInfo 会话 DTO
type ConversationInfo struct {
	ID               string  `json:"id"`
	UserID           string  `json:"user_id"`
	Language         string  `json:"language"`
	MessageCount     int     `json:"message_count"`
	Status           string  `json:"status"`
	Escalated        bool    `json:"escalated"`
	EscalationReason string  `json:"escalation_reason,omitempty"`
	AssignedAgent    *string `json:"assigned_agent"`
	StartedAt        string  `json:"started_at"`
	EscalatedAt      string  `json:"escalated_at,omitempty"`
	ResolvedAt       string  `json:"resolved_at,omitempty"`
	EndedAt          string  `json:"ended_at,omitempty"`
}

// MessageInfo 消息 DTO
type MessageInfo struct {
	ID               string   `json:"id"`
	Seq              int64    `json:"seq"`
	Sender           string   `json:"sender"`
	Message          string   `json:"message"`
	LanguageDetected string   `json:"language_detected"`
	QueryType        string   `json:"query_type"`
	AIConfidence     *float64 `json:"ai_confidence,omitempty"`
	UsedFallback     bool     `json:"used_fallback,omitempty"`
	AgentID          string   `json:"agent_id,omitempty"`
	CreatedAt        string   `json:"created_at"`
}

func toConversationInfo(conv *support.Conversation) ConversationInfo {
	return ConversationInfo{
		ID:               conv.ID,
		UserID:           conv.UserID,
		Language:         conv.Language.String(),
		MessageCount:     conv.MessageCount,
		Status:           conv.Status.String(),
		Escalated:        conv.Escalated,
		EscalationReason: conv.EscalationReason,
		AssignedAgent:    conv.AssignedAgent,
		StartedAt:        conv.StartedAt.Format(time.RFC3339),
		EscalatedAt:      formatTime(conv.EscalatedAt),
		ResolvedAt:       formatTime(conv.ResolvedAt),
		EndedAt:          formatTime(conv.EndedAt),
	}
}

func toMessageInfo(m *support.Message) MessageInfo {
	return MessageInfo{
		ID:               m.ID,
		Seq:              m.Seq,
		Sender:           m.Sender.String(),
		Message:          m.Message,
		LanguageDetected: m.LanguageDetected.String(),
		QueryType:        m.QueryType.String(),
		AIConfidence:     m.AIConfidence,
		UsedFallback:     m.UsedFallback,
		AgentID:          m.AgentID,
		CreatedAt:        m.CreatedAt.Format(time.RFC3339Nano),
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// writeError 把服务层错误映射为 HTTP 响应
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, supportsvc.ErrInvalidInput):
		httputil.Fail(c, http.StatusBadRequest, httputil.CodeInvalidInput, err.Error())
	case errors.Is(err, supportsvc.ErrConversationNotFound):
		httputil.Fail(c, http.StatusNotFound, httputil.CodeNotFound, err.Error())
	case supportsvc.IsStateConflict(err):
		httputil.Fail(c, http.StatusBadRequest, httputil.CodeStateConflict, err.Error())
	case errors.Is(err, supportsvc.ErrStaleState), errors.Is(err, supportsvc.ErrBusy):
		httputil.Fail(c, http.StatusConflict, httputil.CodeConflict, err.Error())
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Str("request_id", c.GetString("request_id")).Msg("conversation request failed")
		httputil.Fail(c, http.StatusInternalServerError, httputil.CodeInternal, "internal server error")
	}
}

func bindError(c *gin.Context, err error) {
	httputil.Fail(c, http.StatusBadRequest, httputil.CodeBadRequest, "Invalid request body", err.Error())
}
