package support

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"helpdesk/internal/ai"
	"helpdesk/internal/model/order"
	"helpdesk/internal/model/support"
	"helpdesk/internal/pkg/intent"
	"helpdesk/internal/pkg/language"
	"helpdesk/internal/repository/memory"
)

func TestOrchestrator(t *testing.T) {
	Convey("Orchestrator", t, func() {
		ctx := context.Background()
		conv := newConv(support.StatusOpen)
		delivered := time.Date(2024, 4, 28, 15, 0, 0, 0, time.UTC)
		eta := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)
		orders := &fakeOrders{byUser: map[string]*order.Order{
			"u1": {OrderID: "O1", UserID: "u1", Status: order.OrderStatusDelivered, DeliveredAt: &delivered},
			"u2": {OrderID: "O2", UserID: "u2", Status: order.OrderStatusOutForDelivery, EstimatedDelivery: &eta},
		}}
		policies := &fakePolicies{types: []string{"return", "return_exchange", "shipping"}}
		gen := &stubGenerator{text: "LLM says hi"}
		store := memory.NewMessageStore()
		o := NewOrchestrator(newAIClient(gen), NewContextBuilder(store), orders, policies)

		Convey("订单意图走模板并填入订单状态", func() {
			r := o.Respond(ctx, conv, Inbound{Text: "Where is my order?", Intent: intent.OrderStatus, Language: language.English})
			So(r.Path, ShouldEqual, PathTemplate)
			So(r.Text, ShouldEqual, "Your order is currently delivered. Expected delivery: 2024-04-28.")
			So(r.Confidence, ShouldEqual, 1.0)
			So(r.UsedFallback, ShouldBeFalse)
			So(gen.callCount(), ShouldEqual, 0)
		})

		Convey("未签收订单使用预计送达日期，状态中的下划线替换为空格", func() {
			c := newConv(support.StatusOpen)
			c.UserID = "u2"
			r := o.Respond(ctx, c, Inbound{Text: "track", Intent: intent.OrderStatus, Language: language.English})
			So(r.Text, ShouldEqual, "Your order is currently out for delivery. Expected delivery: 2024-05-03.")
		})

		Convey("没有订单时使用默认值", func() {
			c := newConv(support.StatusOpen)
			c.UserID = "nobody"
			r := o.Respond(ctx, c, Inbound{Text: "order?", Intent: intent.OrderStatus, Language: language.English})
			So(r.Text, ShouldEqual, "Your order is currently being processed. Expected delivery: soon.")
		})

		Convey("订单查询失败时使用默认值", func() {
			broken := NewOrchestrator(nil, nil, &fakeOrders{err: errors.New("db down")}, nil)
			r := broken.Respond(ctx, conv, Inbound{Text: "order?", Intent: intent.OrderStatus, Language: language.Malayalam})
			So(r.Text, ShouldEqual, "നിങ്ങളുടെ ഓർഡർ നിലവിൽ പ്രോസസ്സ് ചെയ്യുന്നു ആണ്.")
			So(r.Path, ShouldEqual, PathTemplate)
		})

		Convey("政策意图匹配最长的政策类型", func() {
			r := o.Respond(ctx, conv, Inbound{Text: "what is the return exchange policy", Intent: intent.Policy, Language: language.English})
			So(r.Text, ShouldEqual, "Here is our return_exchange policy.")

			r = o.Respond(ctx, conv, Inbound{Text: "terms for warranty", Intent: intent.Policy, Language: language.English})
			So(r.Text, ShouldEqual, "Here is our general policy.")
		})

		Convey("退货意图使用固定模板", func() {
			r := o.Respond(ctx, conv, Inbound{Text: "refund", Intent: intent.ReturnRefund, Language: language.English})
			So(r.Text, ShouldEqual, "You can request a return within 7 days of delivery.")
		})

		Convey("general 意图走大模型并带上下文", func() {
			So(store.Append(ctx, &support.Message{
				ConversationID: conv.ID, Sender: support.SenderUser, Message: "earlier question",
				QueryType: intent.General, CreatedAt: time.Now().Add(-time.Minute),
			}), ShouldBeNil)

			r := o.Respond(ctx, conv, Inbound{Text: "hello", Intent: intent.General, Language: language.English})
			So(r.Path, ShouldEqual, PathLLM)
			So(r.Text, ShouldEqual, "LLM says hi")
			So(r.Confidence, ShouldEqual, ai.ConfidenceClean)
			So(gen.lastPrompt().User, ShouldContainSubstring, "User: earlier question")
			So(gen.lastPrompt().User, ShouldEndWith, "Customer: hello\n\nAssistant:")
		})

		Convey("大模型失败时兜底", func() {
			gen.err = errors.New("provider unreachable")
			r := o.Respond(ctx, conv, Inbound{Text: "hello", Intent: intent.General, Language: language.English})
			So(r.UsedFallback, ShouldBeTrue)
			So(r.Confidence, ShouldEqual, 0.5)
			So(r.Text, ShouldEqual, "How can I help you today?")
		})

		Convey("未配置 AI 客户端时兜底", func() {
			bare := NewOrchestrator(nil, nil, nil, nil)
			r := bare.Respond(ctx, conv, Inbound{Text: "hello", Intent: intent.General, Language: language.Malayalam})
			So(r.UsedFallback, ShouldBeTrue)
			So(r.Text, ShouldEqual, "എനിക്ക് നിങ്ങളെ എങ്ങനെ സഹായിക്കാം?")
		})
	})
}

func TestMatchPolicyType(t *testing.T) {
	Convey("MatchPolicyType", t, func() {
		types := []string{"return", "return_exchange", "shipping"}
		So(MatchPolicyType("Tell me the SHIPPING rules", types), ShouldEqual, "shipping")
		So(MatchPolicyType("return_exchange terms", types), ShouldEqual, "return_exchange")
		So(MatchPolicyType("return exchange terms", types), ShouldEqual, "return_exchange")
		So(MatchPolicyType("return terms", types), ShouldEqual, "return")
		So(MatchPolicyType("privacy", types), ShouldEqual, "")
		So(MatchPolicyType("anything", nil), ShouldEqual, "")
	})
}
