package support

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"helpdesk/internal/model/support"
	"helpdesk/internal/pkg/intent"
	"helpdesk/internal/repository/memory"
)

func TestContextBuilder(t *testing.T) {
	Convey("ContextBuilder", t, func() {
		ctx := context.Background()
		store := memory.NewMessageStore()
		builder := NewContextBuilder(store)
		conv := newConv(support.StatusOpen)
		base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

		add := func(i int, sender support.Sender, it intent.Intent, text string) {
			err := store.Append(ctx, &support.Message{
				ID:             fmt.Sprintf("m%d", i),
				ConversationID: conv.ID,
				Sender:         sender,
				Message:        text,
				QueryType:      it,
				CreatedAt:      base.Add(time.Duration(i) * time.Second),
			})
			So(err, ShouldBeNil)
		}

		Convey("没有消息时返回空串", func() {
			So(builder.Build(ctx, conv), ShouldEqual, "")
		})

		Convey("按时间正序拼接，只取 general 的用户和 AI 消息", func() {
			add(1, support.SenderUser, intent.General, "hello")
			add(2, support.SenderAI, intent.General, "hi there")
			add(3, support.SenderUser, intent.OrderStatus, "where is my order")
			add(4, support.SenderAgent, intent.General, "agent here")
			add(5, support.SenderUser, intent.General, "thanks")

			So(builder.Build(ctx, conv), ShouldEqual, "User: hello\nAssistant: hi there\nUser: thanks\n\n")
		})

		Convey("最多取最近 10 条", func() {
			for i := 1; i <= 12; i++ {
				add(i, support.SenderUser, intent.General, fmt.Sprintf("msg-%02d", i))
			}
			history := builder.Build(ctx, conv)
			So(strings.Count(history, "User: "), ShouldEqual, ContextWindow)
			So(history, ShouldNotContainSubstring, "msg-01")
			So(history, ShouldNotContainSubstring, "msg-02")
			So(history, ShouldStartWith, "User: msg-03\n")
			So(history, ShouldEndWith, "User: msg-12\n\n")
		})

		Convey("只包含本会话的消息", func() {
			add(1, support.SenderUser, intent.General, "mine")
			So(store.Append(ctx, &support.Message{
				ConversationID: "other", Sender: support.SenderUser, Message: "theirs",
				QueryType: intent.General, CreatedAt: base,
			}), ShouldBeNil)
			So(builder.Build(ctx, conv), ShouldEqual, "User: mine\n\n")
		})

		Convey("存储返回未过滤、升序的结果时仍只取 general 并按时间正序", func() {
			add(1, support.SenderUser, intent.General, "first")
			add(2, support.SenderUser, intent.OrderStatus, "order-secret")
			add(3, support.SenderAgent, intent.General, "agent note")
			add(4, support.SenderUser, intent.General, "third")

			b := NewContextBuilder(&unfilteredMessages{MessageStore: store})
			So(b.Build(ctx, conv), ShouldEqual, "User: first\nUser: third\n\n")
		})

		Convey("存储返回超过窗口的结果时保留最新的 10 条", func() {
			for i := 1; i <= 14; i++ {
				add(i, support.SenderUser, intent.General, fmt.Sprintf("msg-%02d", i))
			}
			history := NewContextBuilder(&unfilteredMessages{MessageStore: store}).Build(ctx, conv)
			So(strings.Count(history, "User: "), ShouldEqual, ContextWindow)
			So(history, ShouldStartWith, "User: msg-05\n")
			So(history, ShouldEndWith, "User: msg-14\n\n")
		})

		Convey("存储出错时返回空串", func() {
			b := NewContextBuilder(&brokenMessages{MessageStore: store})
			So(b.Build(ctx, conv), ShouldEqual, "")
		})

		Convey("存储 panic 时返回空串", func() {
			b := NewContextBuilder(&brokenMessages{MessageStore: store, panics: true})
			So(b.Build(ctx, conv), ShouldEqual, "")
		})

		Convey("会话为 nil", func() {
			So(builder.Build(ctx, nil), ShouldEqual, "")
		})
	})
}
