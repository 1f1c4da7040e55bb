package policy

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	httputil "helpdesk/internal/pkg/http"
	"helpdesk/internal/service"
)

// ErrorResponse 复用通用错误响应
type ErrorResponse = httputil.ErrorResponse

// Handler 政策处理器
type Handler struct {
	policyService *service.PolicyService
}

// NewHandler 创建政策处理器
func NewHandler(policyService *service.PolicyService) *Handler {
	return &Handler{policyService: policyService}
}

// ListPolicies 查询全部政策
// @Summary      查询全部政策
// @Tags         政策
// @Produce      json
// @Success      200  {object}  httputil.SuccessResponse{data=[]policy.Policy}
// @Failure      500  {object}  ErrorResponse
// @Router       /api/v1/policies [get]
func (h *Handler) ListPolicies(c *gin.Context) {
	policies, err := h.policyService.ListPolicies(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	httputil.OK(c, http.StatusOK, "success", policies)
}

// GetPolicy 按类型查询政策
// @Summary      查询政策
// @Tags         政策
// @Produce      json
// @Param        policy_type  path      string  true  "政策类型，如 return、refund、shipping"
// @Success      200          {object}  httputil.SuccessResponse{data=policy.Policy}
// @Failure      404          {object}  ErrorResponse
// @Router       /api/v1/policies/{policy_type} [get]
func (h *Handler) GetPolicy(c *gin.Context) {
	p, err := h.policyService.GetPolicy(c.Request.Context(), c.Param("policy_type"))
	if err != nil {
		writeError(c, err)
		return
	}
	httputil.OK(c, http.StatusOK, "success", p)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		httputil.Fail(c, http.StatusBadRequest, httputil.CodeInvalidInput, err.Error())
	case errors.Is(err, service.ErrPolicyNotFound):
		httputil.Fail(c, http.StatusNotFound, httputil.CodeNotFound, err.Error())
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("policy request failed")
		httputil.Fail(c, http.StatusInternalServerError, httputil.CodeInternal, "internal server error")
	}
}
