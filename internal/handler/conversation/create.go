package conversation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httputil "helpdesk/internal/pkg/http"
)

// CreateConversationRequest 创建会话请求
type CreateConversationRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Language string `json:"language,omitempty"` // en 或 ml，默认 en
}

// CreateConversation 创建会话
// @Summary      创建会话
// @Description  为用户开启新的客服会话
// @Tags         会话
// @Accept       json
// @Produce      json
// @Param        request  body      CreateConversationRequest  true  "创建会话请求"
// @Success      201      {object}  httputil.SuccessResponse{data=ConversationInfo}
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /api/v1/conversations [post]
func (h *Handler) CreateConversation(c *gin.Context) {
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	conv, err := h.svc.CreateConversation(c.Request.Context(), req.UserID, req.Language)
	if err != nil {
		writeError(c, err)
		return
	}

	httputil.OK(c, http.StatusCreated, "success", toConversationInfo(conv))
}
