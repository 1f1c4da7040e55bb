package conversation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httputil "helpdesk/internal/pkg/http"
)

// ConversationDetail 会话详情
type ConversationDetail struct {
	Conversation ConversationInfo `json:"conversation"`
	Messages     []MessageInfo    `json:"messages"`
}

// GetConversation 获取会话及全部消息
// @Summary      获取会话
// @Tags         会话
// @Produce      json
// @Param        id   path      string  true  "会话ID"
// @Success      200  {object}  httputil.SuccessResponse{data=ConversationDetail}
// @Failure      404  {object}  ErrorResponse
// @Router       /api/v1/conversations/{id} [get]
func (h *Handler) GetConversation(c *gin.Context) {
	detail, err := h.svc.GetConversation(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	msgs := make([]MessageInfo, 0, len(detail.Messages))
	for _, m := range detail.Messages {
		msgs = append(msgs, toMessageInfo(m))
	}

	c.JSON(http.StatusOK, httputil.NewSuccessResponse("success", ConversationDetail{
		Conversation: toConversationInfo(detail.Conversation),
		Messages:     msgs,
	}))
}

// DeleteConversation 删除会话及其消息
// @Summary      删除会话
// @Tags         会话
// @Produce      json
// @Param        id   path      string  true  "会话ID"
// @Success      200  {object}  httputil.SuccessResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/v1/conversations/{id} [delete]
func (h *Handler) DeleteConversation(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.DeleteConversation(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	httputil.OK(c, http.StatusOK, "deleted", gin.H{"conversation_id": id})
}
