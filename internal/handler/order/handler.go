package order

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"helpdesk/internal/model/order"
	httputil "helpdesk/internal/pkg/http"
	"helpdesk/internal/service"
)

// ErrorResponse 复用通用错误响应
type ErrorResponse = httputil.ErrorResponse

// Handler 订单与退货处理器
type Handler struct {
	orderService *service.OrderService
}

// NewHandler 创建订单处理器
func NewHandler(orderService *service.OrderService) *Handler {
	return &Handler{orderService: orderService}
}

// OrderStatusInfo 订单状态 DTO
type OrderStatusInfo struct {
	OrderID           string                  `json:"order_id"`
	Status            string                  `json:"status"`
	Timeline          []service.TimelineEvent `json:"timeline"`
	TrackingNumber    string                  `json:"tracking_number,omitempty"`
	EstimatedDelivery string                  `json:"estimated_delivery,omitempty"`
}

// GetOrderStatus 查询订单状态
// @Summary      查询订单状态
// @Tags         订单
// @Produce      json
// @Param        order_id  path      string  true  "订单号"
// @Success      200       {object}  httputil.SuccessResponse{data=OrderStatusInfo}
// @Failure      404       {object}  ErrorResponse
// @Router       /api/v1/orders/{order_id}/status [get]
func (h *Handler) GetOrderStatus(c *gin.Context) {
	res, err := h.orderService.GetOrderStatus(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	info := OrderStatusInfo{
		OrderID:        res.OrderID,
		Status:         res.Status.String(),
		Timeline:       res.Timeline,
		TrackingNumber: res.TrackingNumber,
	}
	if res.EstimatedDelivery != nil {
		info.EstimatedDelivery = res.EstimatedDelivery.UTC().Format(time.RFC3339)
	}
	httputil.OK(c, http.StatusOK, "success", info)
}

// EligibilityInfo 退货资格 DTO
type EligibilityInfo struct {
	OrderID      string `json:"order_id"`
	Eligible     bool   `json:"eligible"`
	Reason       string `json:"reason"`
	DeliveredAt  string `json:"delivered_at,omitempty"`
	WindowEndsAt string `json:"window_ends_at,omitempty"`
}

// CheckReturnEligibility 检查退货资格
// @Summary      检查退货资格
// @Tags         退货
// @Produce      json
// @Param        order_id  path      string  true  "订单号"
// @Success      200       {object}  httputil.SuccessResponse{data=EligibilityInfo}
// @Failure      404       {object}  ErrorResponse
// @Router       /api/v1/returns/check-eligibility/{order_id} [get]
func (h *Handler) CheckReturnEligibility(c *gin.Context) {
	e, err := h.orderService.CheckReturnEligibility(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	info := EligibilityInfo{OrderID: e.OrderID, Eligible: e.Eligible, Reason: e.Reason}
	if e.DeliveredAt != nil {
		info.DeliveredAt = e.DeliveredAt.UTC().Format(time.RFC3339)
	}
	if e.WindowEndsAt != nil {
		info.WindowEndsAt = e.WindowEndsAt.UTC().Format(time.RFC3339)
	}
	httputil.OK(c, http.StatusOK, "success", info)
}

// CreateReturnRequest 创建退货申请请求
type CreateReturnRequest struct {
	OrderID      string  `json:"order_id" binding:"required"`
	ProductID    string  `json:"product_id" binding:"required"`
	Reason       string  `json:"reason" binding:"required,oneof=damaged unwanted defective"`
	RefundAmount float64 `json:"refund_amount" binding:"required,gt=0"`
}

// CreateReturn 创建退货申请
// @Summary      创建退货申请
// @Description  创建前重新检查退货资格
// @Tags         退货
// @Accept       json
// @Produce      json
// @Param        request  body      CreateReturnRequest  true  "退货申请"
// @Success      201      {object}  httputil.SuccessResponse{data=order.ReturnRequest}
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /api/v1/returns [post]
func (h *Handler) CreateReturn(c *gin.Context) {
	var req CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Fail(c, http.StatusBadRequest, httputil.CodeBadRequest, "Invalid request body", err.Error())
		return
	}

	ret, err := h.orderService.CreateReturn(c.Request.Context(), service.CreateReturnInput{
		OrderID:      req.OrderID,
		ProductID:    req.ProductID,
		Reason:       order.ReturnReason(req.Reason),
		RefundAmount: req.RefundAmount,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	httputil.OK(c, http.StatusCreated, "success", ret)
}

// GetReturn 查询退货申请
// @Summary      查询退货申请
// @Tags         退货
// @Produce      json
// @Param        return_id  path      string  true  "退货单号"
// @Success      200        {object}  httputil.SuccessResponse{data=order.ReturnRequest}
// @Failure      404        {object}  ErrorResponse
// @Router       /api/v1/returns/{return_id} [get]
func (h *Handler) GetReturn(c *gin.Context) {
	ret, err := h.orderService.GetReturn(c.Request.Context(), c.Param("return_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	httputil.OK(c, http.StatusOK, "success", ret)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		httputil.Fail(c, http.StatusBadRequest, httputil.CodeInvalidInput, err.Error())
	case errors.Is(err, service.ErrReturnNotEligible):
		httputil.Fail(c, http.StatusBadRequest, httputil.CodeStateConflict, err.Error())
	case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrReturnNotFound):
		httputil.Fail(c, http.StatusNotFound, httputil.CodeNotFound, err.Error())
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("order request failed")
		httputil.Fail(c, http.StatusInternalServerError, httputil.CodeInternal, "internal server error")
	}
}
