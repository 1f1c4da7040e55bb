package service

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"helpdesk/internal/model/order"
	"helpdesk/internal/pkg/id"
	"helpdesk/internal/repository"
	"helpdesk/internal/repository/memory"
)

func tp(t time.Time) *time.Time { return &t }

// collidingReturns 前 n 次创建返回冲突
type collidingReturns struct {
	*memory.ReturnStore
	collisions int
}

func (c *collidingReturns) Create(ctx context.Context, req *order.ReturnRequest) error {
	if c.collisions > 0 {
		c.collisions--
		return repository.ErrDuplicateKey
	}
	return c.ReturnStore.Create(ctx, req)
}

func TestOrderService(t *testing.T) {
	Convey("OrderService", t, func() {
		ctx := context.Background()
		now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

		orders := memory.NewOrderStore()
		returns := memory.NewReturnStore()
		svc := NewOrderService(orders, returns, 0)
		svc.now = func() time.Time { return now }

		placed := now.Add(-96 * time.Hour)
		So(svc.SeedOrders(ctx, []*order.Order{
			{OrderID: "ORD-1", UserID: "u1", Status: order.OrderStatusDelivered, CreatedAt: placed,
				PackedAt: tp(placed.Add(2 * time.Hour)), ShippedAt: tp(placed.Add(24 * time.Hour)),
				DeliveredAt: tp(now.Add(-48 * time.Hour)), TrackingNumber: "TRK1"},
			{OrderID: "ORD-2", UserID: "u1", Status: order.OrderStatusShipped, CreatedAt: now.Add(-time.Hour),
				ShippedAt: tp(now.Add(-30 * time.Minute)), EstimatedDelivery: tp(now.Add(48 * time.Hour))},
			{OrderID: "ORD-OLD", UserID: "u2", Status: order.OrderStatusDelivered, CreatedAt: now.Add(-30 * 24 * time.Hour),
				DeliveredAt: tp(now.Add(-20 * 24 * time.Hour))},
			{OrderID: "ORD-NODATE", UserID: "u3", Status: order.OrderStatusDelivered, CreatedAt: now.Add(-time.Hour)},
		}), ShouldBeNil)

		Convey("GetOrderStatus 返回时间线", func() {
			res, err := svc.GetOrderStatus(ctx, "ORD-1")
			So(err, ShouldBeNil)
			So(res.Status, ShouldEqual, order.OrderStatusDelivered)
			So(res.TrackingNumber, ShouldEqual, "TRK1")
			So(len(res.Timeline), ShouldEqual, 4)
			So(res.Timeline[0].Status, ShouldEqual, order.OrderStatusPlaced)
			So(res.Timeline[0].Timestamp, ShouldEqual, placed.Format(time.RFC3339))
			So(res.Timeline[3].Status, ShouldEqual, order.OrderStatusDelivered)

			res, err = svc.GetOrderStatus(ctx, "ORD-2")
			So(err, ShouldBeNil)
			So(len(res.Timeline), ShouldEqual, 2)
			So(res.EstimatedDelivery, ShouldNotBeNil)
		})

		Convey("GetOrderStatus 未知订单", func() {
			_, err := svc.GetOrderStatus(ctx, "NOPE")
			So(errors.Is(err, ErrOrderNotFound), ShouldBeTrue)

			_, err = svc.GetOrderStatus(ctx, " ")
			So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
		})

		Convey("FindLatestOrder 返回最新订单", func() {
			o, err := svc.FindLatestOrder(ctx, "u1")
			So(err, ShouldBeNil)
			So(o.OrderID, ShouldEqual, "ORD-2")

			_, err = svc.FindLatestOrder(ctx, "nobody")
			So(errors.Is(err, ErrOrderNotFound), ShouldBeTrue)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("退货资格", func() {
			e, err := svc.CheckReturnEligibility(ctx, "ORD-1")
			So(err, ShouldBeNil)
			So(e.Eligible, ShouldBeTrue)
			So(e.Reason, ShouldEqual, ReasonEligible)
			So(e.WindowEndsAt.Equal(now.Add(-48*time.Hour).Add(DefaultReturnWindow)), ShouldBeTrue)

			e, _ = svc.CheckReturnEligibility(ctx, "ORD-2")
			So(e.Eligible, ShouldBeFalse)
			So(e.Reason, ShouldEqual, ReasonNotDelivered)

			e, _ = svc.CheckReturnEligibility(ctx, "ORD-OLD")
			So(e.Eligible, ShouldBeFalse)
			So(e.Reason, ShouldEqual, ReasonWindowExpired)

			e, _ = svc.CheckReturnEligibility(ctx, "ORD-NODATE")
			So(e.Eligible, ShouldBeFalse)
			So(e.Reason, ShouldEqual, ReasonMissingDelivery)
		})

		Convey("创建退货申请", func() {
			req, err := svc.CreateReturn(ctx, CreateReturnInput{
				OrderID: "ORD-1", ProductID: "P-1", Reason: order.ReturnReasonDamaged, RefundAmount: 499,
			})
			So(err, ShouldBeNil)
			So(id.IsReturnID(req.ReturnID), ShouldBeTrue)
			So(req.Status, ShouldEqual, order.ReturnStatusRequested)

			got, err := svc.GetReturn(ctx, req.ReturnID)
			So(err, ShouldBeNil)
			So(got.OrderID, ShouldEqual, "ORD-1")
			So(got.RefundAmount, ShouldEqual, 499)
		})

		Convey("不符合条件的退货申请被拒绝", func() {
			_, err := svc.CreateReturn(ctx, CreateReturnInput{
				OrderID: "ORD-OLD", ProductID: "P-1", Reason: order.ReturnReasonUnwanted, RefundAmount: 10,
			})
			So(errors.Is(err, ErrReturnNotEligible), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, ReasonWindowExpired)
		})

		Convey("参数校验", func() {
			_, err := svc.CreateReturn(ctx, CreateReturnInput{OrderID: "ORD-1", ProductID: "P", Reason: "broken", RefundAmount: 1})
			So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)

			_, err = svc.CreateReturn(ctx, CreateReturnInput{OrderID: "ORD-1", ProductID: "P", Reason: order.ReturnReasonDefective, RefundAmount: 0})
			So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)

			_, err = svc.CreateReturn(ctx, CreateReturnInput{OrderID: "ORD-1", Reason: order.ReturnReasonDefective, RefundAmount: 1})
			So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
		})

		Convey("单号冲突时重试", func() {
			cr := &collidingReturns{ReturnStore: returns, collisions: 2}
			svc2 := NewOrderService(orders, cr, 0)
			svc2.now = svc.now
			req, err := svc2.CreateReturn(ctx, CreateReturnInput{
				OrderID: "ORD-1", ProductID: "P-1", Reason: order.ReturnReasonDefective, RefundAmount: 5,
			})
			So(err, ShouldBeNil)
			So(req, ShouldNotBeNil)
			So(cr.collisions, ShouldEqual, 0)
		})

		Convey("未知退货单", func() {
			_, err := svc.GetReturn(ctx, "RET-00000")
			So(errors.Is(err, ErrReturnNotFound), ShouldBeTrue)
		})
	})
}
