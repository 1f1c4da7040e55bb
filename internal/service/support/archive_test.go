package support

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"helpdesk/internal/model/support"
	"helpdesk/internal/pkg/storage/local"
)

func TestTranscriptArchiver(t *testing.T) {
	Convey("TranscriptArchiver 写入本地存储", t, func() {
		ctx := context.Background()
		store, err := local.NewLocalStorage(t.TempDir(), "http://localhost:8080/files")
		So(err, ShouldBeNil)

		archiver := NewTranscriptArchiver(store)
		conv := newConv(support.StatusResolved)
		msgs := []*support.Message{
			{ID: "m1", ConversationID: conv.ID, Seq: 1, Sender: support.SenderUser, Message: "hi", CreatedAt: time.Now()},
			{ID: "m2", ConversationID: conv.ID, Seq: 2, Sender: support.SenderAgent, Message: "hello", AgentID: "a1", CreatedAt: time.Now()},
		}

		url, err := archiver.Archive(ctx, conv, msgs)
		So(err, ShouldBeNil)
		So(url, ShouldEqual, "http://localhost:8080/files/transcripts/c1.json")

		rc, err := store.Download(ctx, TranscriptKey(conv.ID))
		So(err, ShouldBeNil)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		So(err, ShouldBeNil)

		var got Transcript
		So(json.Unmarshal(data, &got), ShouldBeNil)
		So(got.Conversation.ID, ShouldEqual, conv.ID)
		So(got.Conversation.Status, ShouldEqual, support.StatusResolved)
		So(len(got.Messages), ShouldEqual, 2)
		So(got.Messages[1].AgentID, ShouldEqual, "a1")
	})

	Convey("Service 结束会话时归档到本地存储", t, func() {
		ctx := context.Background()
		store, err := local.NewLocalStorage(t.TempDir(), "")
		So(err, ShouldBeNil)

		env := newTestEnv(WithArchiver(NewTranscriptArchiver(store)))
		conv, err := env.svc.CreateConversation(ctx, "u1", "")
		So(err, ShouldBeNil)
		_, err = env.svc.HandleUserMessage(ctx, conv.ID, "please escalate")
		So(err, ShouldBeNil)

		res, err := env.svc.Resolve(ctx, conv.ID)
		So(err, ShouldBeNil)
		So(res.TranscriptURL, ShouldStartWith, "file://")

		ok, err := store.Exists(ctx, TranscriptKey(conv.ID))
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
	})
}
