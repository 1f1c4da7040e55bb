package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"helpdesk/internal/model/order"
	"helpdesk/internal/model/policy"
	"helpdesk/internal/model/support"
	"helpdesk/internal/pkg/intent"
	"helpdesk/internal/repository"
)

func TestConversationStore(t *testing.T) {
	Convey("ConversationStore", t, func() {
		ctx := context.Background()
		s := NewConversationStore()
		conv := &support.Conversation{ID: "c1", UserID: "u1", Status: support.StatusOpen}
		So(s.Create(ctx, conv), ShouldBeNil)

		Convey("重复创建", func() {
			So(errors.Is(s.Create(ctx, conv), repository.ErrDuplicateKey), ShouldBeTrue)
		})

		Convey("返回副本", func() {
			got, err := s.FindByID(ctx, "c1")
			So(err, ShouldBeNil)
			got.Status = support.StatusResolved
			again, _ := s.FindByID(ctx, "c1")
			So(again.Status, ShouldEqual, support.StatusOpen)
		})

		Convey("条件保存", func() {
			got, _ := s.FindByID(ctx, "c1")
			got.Status = support.StatusEscalated
			So(s.Save(ctx, got, support.StatusOpen), ShouldBeNil)

			got.Status = support.StatusAssigned
			So(errors.Is(s.Save(ctx, got, support.StatusOpen), repository.ErrStaleState), ShouldBeTrue)

			missing := &support.Conversation{ID: "nope"}
			So(errors.Is(s.Save(ctx, missing, support.StatusOpen), repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("删除", func() {
			So(s.Delete(ctx, "c1"), ShouldBeNil)
			_, err := s.FindByID(ctx, "c1")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			So(errors.Is(s.Delete(ctx, "c1"), repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestMessageStore(t *testing.T) {
	Convey("MessageStore", t, func() {
		ctx := context.Background()
		s := NewMessageStore()
		at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		for i, m := range []*support.Message{
			{ConversationID: "c1", Sender: support.SenderUser, QueryType: intent.General, Message: "a", CreatedAt: at},
			{ConversationID: "c1", Sender: support.SenderAI, QueryType: intent.General, Message: "b", CreatedAt: at},
			{ConversationID: "c1", Sender: support.SenderAgent, QueryType: intent.General, Message: "c", CreatedAt: at.Add(time.Second)},
			{ConversationID: "c1", Sender: support.SenderUser, QueryType: intent.Policy, Message: "d", CreatedAt: at.Add(2 * time.Second)},
		} {
			So(s.Append(ctx, m), ShouldBeNil)
			So(m.Seq, ShouldEqual, int64(i+1))
		}

		Convey("同一时间的消息按序号排序", func() {
			msgs, err := s.ListByConversation(ctx, "c1")
			So(err, ShouldBeNil)
			So(len(msgs), ShouldEqual, 4)
			So(msgs[0].Message, ShouldEqual, "a")
			So(msgs[1].Message, ShouldEqual, "b")
		})

		Convey("ListRecent 过滤并倒序", func() {
			msgs, err := s.ListRecent(ctx, "c1", []support.Sender{support.SenderUser, support.SenderAI}, intent.General, 10)
			So(err, ShouldBeNil)
			So(len(msgs), ShouldEqual, 2)
			So(msgs[0].Message, ShouldEqual, "b")
			So(msgs[1].Message, ShouldEqual, "a")

			msgs, _ = s.ListRecent(ctx, "c1", []support.Sender{support.SenderUser, support.SenderAI}, intent.General, 1)
			So(len(msgs), ShouldEqual, 1)
			So(msgs[0].Message, ShouldEqual, "b")
		})

		Convey("按 ID 删除只影响指定消息", func() {
			x := &support.Message{ID: "m-x", ConversationID: "c1", Sender: support.SenderUser, Message: "x", CreatedAt: at.Add(3 * time.Second)}
			y := &support.Message{ID: "m-y", ConversationID: "c1", Sender: support.SenderAI, Message: "y", CreatedAt: at.Add(3 * time.Second)}
			So(s.Append(ctx, x), ShouldBeNil)
			So(s.Append(ctx, y), ShouldBeNil)

			So(s.DeleteMessages(ctx, "c1", []string{"m-x", "m-y", "missing"}), ShouldBeNil)
			msgs, err := s.ListByConversation(ctx, "c1")
			So(err, ShouldBeNil)
			So(len(msgs), ShouldEqual, 4)
			So(msgs[3].Message, ShouldEqual, "d")

			So(s.DeleteMessages(ctx, "other", []string{"m-x"}), ShouldBeNil)
		})

		Convey("删除后序号重新开始", func() {
			n, err := s.DeleteByConversation(ctx, "c1")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 4)

			m := &support.Message{ConversationID: "c1", Sender: support.SenderUser}
			So(s.Append(ctx, m), ShouldBeNil)
			So(m.Seq, ShouldEqual, 1)
		})
	})
}

func TestOrderStores(t *testing.T) {
	Convey("OrderStore 与 ReturnStore", t, func() {
		ctx := context.Background()
		orders := NewOrderStore()
		now := time.Now()
		So(orders.Upsert(ctx, &order.Order{OrderID: "O1", UserID: "u1", CreatedAt: now.Add(-time.Hour)}), ShouldBeNil)
		So(orders.Upsert(ctx, &order.Order{OrderID: "O2", UserID: "u1", CreatedAt: now}), ShouldBeNil)

		latest, err := orders.FindLatestByUser(ctx, "u1")
		So(err, ShouldBeNil)
		So(latest.OrderID, ShouldEqual, "O2")

		_, err = orders.FindLatestByUser(ctx, "u2")
		So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

		returns := NewReturnStore()
		req := &order.ReturnRequest{ReturnID: "RET-00001", OrderID: "O1"}
		So(returns.Create(ctx, req), ShouldBeNil)
		So(errors.Is(returns.Create(ctx, req), repository.ErrDuplicateKey), ShouldBeTrue)

		got, err := returns.FindByID(ctx, "RET-00001")
		So(err, ShouldBeNil)
		So(got.OrderID, ShouldEqual, "O1")
	})
}

func TestPolicyStore(t *testing.T) {
	Convey("PolicyStore", t, func() {
		ctx := context.Background()
		s := NewPolicyStore()
		So(s.Upsert(ctx, &policy.Policy{PolicyType: "shipping", ContentEN: "v1"}), ShouldBeNil)
		So(s.Upsert(ctx, &policy.Policy{PolicyType: "return", ContentEN: "r"}), ShouldBeNil)
		So(s.Upsert(ctx, &policy.Policy{PolicyType: "shipping", ContentEN: "v2"}), ShouldBeNil)

		list, err := s.List(ctx)
		So(err, ShouldBeNil)
		So(len(list), ShouldEqual, 2)
		So(list[0].PolicyType, ShouldEqual, "return")

		p, err := s.FindByType(ctx, "shipping")
		So(err, ShouldBeNil)
		So(p.ContentEN, ShouldEqual, "v2")
		So(p.Version, ShouldEqual, 2)
	})
}
