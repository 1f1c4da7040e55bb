package conversation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"helpdesk/internal/pkg/ctxutil"
	httputil "helpdesk/internal/pkg/http"
)

// SendMessageRequest 用户消息请求
type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// AIResponse 自动回复
type AIResponse struct {
	Message      string  `json:"message"`
	Confidence   float64 `json:"confidence"`
	UsedFallback bool    `json:"used_fallback"`
}

// SendMessageResponseData 用户消息处理结果
// 会话已升级或本轮触发升级时没有 ai_response
type SendMessageResponseData struct {
	UserMessage      MessageInfo `json:"user_message"`
	DetectedLanguage string      `json:"detected_language"`
	ResponseLanguage string      `json:"response_language"`
	DetectedIntent   string      `json:"detected_intent"`
	AIResponse       *AIResponse `json:"ai_response,omitempty"`
	Escalated        bool        `json:"escalated"`
	Status           string      `json:"status"`
}

// SendMessage 用户发送消息
// @Summary      用户发送消息
// @Description  识别语言和意图，会话为 open 时自动回复；要求人工时升级会话
// @Tags         会话
// @Accept       json
// @Produce      json
// @Param        id       path      string              true  "会话ID"
// @Param        request  body      SendMessageRequest  true  "消息"
// @Success      201      {object}  httputil.SuccessResponse{data=SendMessageResponseData}
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Router       /api/v1/conversations/{id}/messages [post]
func (h *Handler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.svc.HandleUserMessage(c.Request.Context(), c.Param("id"), req.Message)
	if err != nil {
		writeError(c, err)
		return
	}

	data := SendMessageResponseData{
		UserMessage:      toMessageInfo(res.UserMessage),
		DetectedLanguage: res.DetectedLanguage.String(),
		ResponseLanguage: res.ResponseLanguage.String(),
		DetectedIntent:   res.DetectedIntent.String(),
		Escalated:        res.Escalated,
		Status:           res.Status.String(),
	}
	if res.AIMessage != nil {
		data.AIResponse = &AIResponse{
			Message:      res.AIMessage.Message,
			UsedFallback: res.AIMessage.UsedFallback,
		}
		if res.AIMessage.AIConfidence != nil {
			data.AIResponse.Confidence = *res.AIMessage.AIConfidence
		}
	}

	httputil.OK(c, http.StatusCreated, "success", data)
}

// AgentMessageRequest 坐席消息请求
type AgentMessageRequest struct {
	Message string `json:"message" binding:"required"`
	// AgentID 仅在未开启坐席认证时使用，开启后以 token 中的坐席为准
	AgentID string `json:"agent_id,omitempty"`
}

// SendAgentMessage 坐席发送消息
// @Summary      坐席发送消息
// @Description  只有 escalated 或 assigned 的会话接受坐席消息
// @Tags         会话
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "会话ID"
// @Param        request  body      AgentMessageRequest  true  "消息"
// @Success      201      {object}  httputil.SuccessResponse{data=MessageInfo}
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /api/v1/conversations/{id}/agent/messages [post]
func (h *Handler) SendAgentMessage(c *gin.Context) {
	var req AgentMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx := c.Request.Context()
	agentID, ok := ctxutil.GetAgentID(ctx)
	if !ok {
		agentID = req.AgentID
	}

	msg, err := h.svc.PostAgentMessage(ctx, c.Param("id"), agentID, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}

	httputil.OK(c, http.StatusCreated, "success", toMessageInfo(msg))
}
