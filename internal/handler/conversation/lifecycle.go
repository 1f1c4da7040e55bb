package conversation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"helpdesk/internal/pkg/ctxutil"
	httputil "helpdesk/internal/pkg/http"
	supportsvc "helpdesk/internal/service/support"
)

// TransitionInfo 状态转换结果
type TransitionInfo struct {
	ConversationID   string  `json:"conversation_id"`
	Status           string  `json:"status"`
	Escalated        bool    `json:"escalated"`
	EscalationReason string  `json:"escalation_reason,omitempty"`
	AssignedAgent    *string `json:"assigned_agent"`
	EscalatedAt      string  `json:"escalated_at,omitempty"`
	ResolvedAt       string  `json:"resolved_at,omitempty"`
	EndedAt          string  `json:"ended_at,omitempty"`
	TranscriptURL    string  `json:"transcript_url,omitempty"`
}

func toTransitionInfo(r *supportsvc.TransitionResult) TransitionInfo {
	return TransitionInfo{
		ConversationID:   r.ConversationID,
		Status:           r.Status.String(),
		Escalated:        r.Escalated,
		EscalationReason: r.Reason,
		AssignedAgent:    r.AssignedAgent,
		EscalatedAt:      formatTime(r.EscalatedAt),
		ResolvedAt:       formatTime(r.ResolvedAt),
		EndedAt:          formatTime(r.EndedAt),
		TranscriptURL:    r.TranscriptURL,
	}
}

// EscalateRequest 升级请求
type EscalateRequest struct {
	Reason string `json:"reason,omitempty"`
}

// Escalate 手动升级到人工
// @Summary      升级到人工
// @Tags         会话
// @Accept       json
// @Produce      json
// @Param        id       path      string           true   "会话ID"
// @Param        request  body      EscalateRequest  false  "升级原因"
// @Success      200      {object}  httputil.SuccessResponse{data=TransitionInfo}
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /api/v1/conversations/{id}/escalate [post]
func (h *Handler) Escalate(c *gin.Context) {
	var req EscalateRequest
	// 请求体可选
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	res, err := h.svc.Escalate(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	httputil.OK(c, http.StatusOK, "success", toTransitionInfo(res))
}

// AssignRequest 分配坐席请求
type AssignRequest struct {
	// AgentID 为空时分配给当前登录的坐席
	AgentID string `json:"agent_id,omitempty"`
}

// Assign 分配坐席
// @Summary      分配坐席
// @Description  只有 escalated 的会话可以分配
// @Tags         会话
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string         true  "会话ID"
// @Param        request  body      AssignRequest  true  "坐席"
// @Success      200      {object}  httputil.SuccessResponse{data=TransitionInfo}
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /api/v1/conversations/{id}/assign [post]
func (h *Handler) Assign(c *gin.Context) {
	var req AssignRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	agentID := req.AgentID
	if agentID == "" {
		agentID, _ = ctxutil.GetAgentID(ctx)
	}

	res, err := h.svc.Assign(ctx, c.Param("id"), agentID)
	if err != nil {
		writeError(c, err)
		return
	}
	httputil.OK(c, http.StatusOK, "success", toTransitionInfo(res))
}

// Resolve 结束会话
// @Summary      结束会话
// @Description  配置了归档存储时返回聊天记录地址
// @Tags         会话
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "会话ID"
// @Success      200  {object}  httputil.SuccessResponse{data=TransitionInfo}
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/v1/conversations/{id}/resolve [post]
func (h *Handler) Resolve(c *gin.Context) {
	res, err := h.svc.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	httputil.OK(c, http.StatusOK, "success", toTransitionInfo(res))
}
