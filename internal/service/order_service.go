package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"helpdesk/internal/model/order"
	"helpdesk/internal/pkg/id"
	"helpdesk/internal/repository"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrOrderNotFound     = errors.New("order not found")
	ErrReturnNotFound    = errors.New("return request not found")
	ErrReturnNotEligible = errors.New("order not eligible for return")
)

// 退货资格说明
const (
	ReasonNotDelivered    = "Return is allowed only if order status is delivered."
	ReasonMissingDelivery = "Delivery timestamp missing for the order."
	ReasonWindowExpired   = "Return window expired"
	ReasonEligible        = "Order eligible for return"
)

// DefaultReturnWindow 签收后可申请退货的时长
const DefaultReturnWindow = 7 * 24 * time.Hour

const maxReturnIDAttempts = 5

// OrderStore 订单存储
type OrderStore interface {
	FindByID(ctx context.Context, orderID string) (*order.Order, error)
	FindLatestByUser(ctx context.Context, userID string) (*order.Order, error)
	Upsert(ctx context.Context, o *order.Order) error
}

// ReturnStore 退货申请存储
type ReturnStore interface {
	Create(ctx context.Context, req *order.ReturnRequest) error
	FindByID(ctx context.Context, returnID string) (*order.ReturnRequest, error)
}

// OrderService 订单与退货服务
type OrderService struct {
	orders  OrderStore
	returns ReturnStore
	window  time.Duration
	now     func() time.Time
}

// NewOrderService 创建订单服务，window <= 0 时使用 7 天
func NewOrderService(orders OrderStore, returns ReturnStore, window time.Duration) *OrderService {
	if window <= 0 {
		window = DefaultReturnWindow
	}
	return &OrderService{
		orders:  orders,
		returns: returns,
		window:  window,
		now:     time.Now,
	}
}

// TimelineEvent 订单时间线节点
type TimelineEvent struct {
	Status    order.OrderStatus `json:"status"`
	Timestamp string            `json:"timestamp"` // RFC3339
}

// OrderStatusResult 订单状态查询结果
type OrderStatusResult struct {
	OrderID           string
	Status            order.OrderStatus
	Timeline          []TimelineEvent
	TrackingNumber    string
	EstimatedDelivery *time.Time
}

// Eligibility 退货资格
type Eligibility struct {
	OrderID      string
	Eligible     bool
	Reason       string
	DeliveredAt  *time.Time
	WindowEndsAt *time.Time
}

// GetOrderStatus 查询订单状态及时间线
func (s *OrderService) GetOrderStatus(ctx context.Context, orderID string) (*OrderStatusResult, error) {
	o, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return &OrderStatusResult{
		OrderID:           o.OrderID,
		Status:            o.Status,
		Timeline:          buildTimeline(o),
		TrackingNumber:    o.TrackingNumber,
		EstimatedDelivery: o.EstimatedDelivery,
	}, nil
}

// buildTimeline 按已有的时间戳生成时间线
func buildTimeline(o *order.Order) []TimelineEvent {
	events := []TimelineEvent{{Status: order.OrderStatusPlaced, Timestamp: o.CreatedAt.UTC().Format(time.RFC3339)}}
	steps := []struct {
		status order.OrderStatus
		at     *time.Time
	}{
		{order.OrderStatusPacked, o.PackedAt},
		{order.OrderStatusShipped, o.ShippedAt},
		{order.OrderStatusDelivered, o.DeliveredAt},
	}
	for _, st := range steps {
		if st.at != nil {
			events = append(events, TimelineEvent{Status: st.status, Timestamp: st.at.UTC().Format(time.RFC3339)})
		}
	}
	return events
}

// FindLatestOrder 查询用户最近的订单
func (s *OrderService) FindLatestOrder(ctx context.Context, userID string) (*order.Order, error) {
	o, err := s.orders.FindLatestByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrOrderNotFound, err)
		}
		return nil, err
	}
	return o, nil
}

// CheckReturnEligibility 检查订单是否可以退货
func (s *OrderService) CheckReturnEligibility(ctx context.Context, orderID string) (*Eligibility, error) {
	o, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.eligibility(o), nil
}

func (s *OrderService) eligibility(o *order.Order) *Eligibility {
	e := &Eligibility{OrderID: o.OrderID, DeliveredAt: o.DeliveredAt}

	if o.Status != order.OrderStatusDelivered {
		e.Reason = ReasonNotDelivered
		return e
	}
	if o.DeliveredAt == nil {
		e.Reason = ReasonMissingDelivery
		return e
	}

	ends := o.DeliveredAt.Add(s.window)
	e.WindowEndsAt = &ends
	if s.now().After(ends) {
		e.Reason = ReasonWindowExpired
		return e
	}

	e.Eligible = true
	e.Reason = ReasonEligible
	return e
}

// CreateReturnInput 创建退货申请参数
type CreateReturnInput struct {
	OrderID      string
	ProductID    string
	Reason       order.ReturnReason
	RefundAmount float64
}

// CreateReturn 创建退货申请，创建前重新检查资格
func (s *OrderService) CreateReturn(ctx context.Context, in CreateReturnInput) (*order.ReturnRequest, error) {
	if strings.TrimSpace(in.ProductID) == "" {
		return nil, fmt.Errorf("%w: product_id is required", ErrInvalidInput)
	}
	if !in.Reason.IsValid() {
		return nil, fmt.Errorf("%w: reason must be one of damaged, unwanted, defective", ErrInvalidInput)
	}
	if in.RefundAmount <= 0 {
		return nil, fmt.Errorf("%w: refund_amount must be greater than 0", ErrInvalidInput)
	}

	o, err := s.findOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if e := s.eligibility(o); !e.Eligible {
		return nil, fmt.Errorf("%w: %s", ErrReturnNotEligible, e.Reason)
	}

	for attempt := 0; attempt < maxReturnIDAttempts; attempt++ {
		req := &order.ReturnRequest{
			ReturnID:     id.NewReturnID(),
			OrderID:      o.OrderID,
			ProductID:    strings.TrimSpace(in.ProductID),
			Reason:       in.Reason,
			Status:       order.ReturnStatusRequested,
			RefundAmount: in.RefundAmount,
			CreatedAt:    s.now(),
		}
		err := s.returns.Create(ctx, req)
		if err == nil {
			log.Info().Str("return_id", req.ReturnID).Str("order_id", o.OrderID).Msg("return request created")
			return req, nil
		}
		if !errors.Is(err, repository.ErrDuplicateKey) {
			return nil, fmt.Errorf("create return request: %w", err)
		}
		log.Debug().Str("return_id", req.ReturnID).Msg("return id collision, retrying")
	}
	return nil, fmt.Errorf("create return request: could not allocate a unique return id")
}

// GetReturn 查询退货申请
func (s *OrderService) GetReturn(ctx context.Context, returnID string) (*order.ReturnRequest, error) {
	req, err := s.returns.FindByID(ctx, strings.TrimSpace(returnID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReturnNotFound
		}
		return nil, err
	}
	return req, nil
}

// SeedOrders 写入演示订单
func (s *OrderService) SeedOrders(ctx context.Context, orders []*order.Order) error {
	for _, o := range orders {
		if err := s.orders.Upsert(ctx, o); err != nil {
			return fmt.Errorf("upsert order %s: %w", o.OrderID, err)
		}
	}
	return nil
}

func (s *OrderService) findOrder(ctx context.Context, orderID string) (*order.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: order_id is required", ErrInvalidInput)
	}
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}
