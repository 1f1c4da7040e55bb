package support

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"helpdesk/internal/model/support"
	"helpdesk/internal/pkg/storage"
)

// Transcript 归档的聊天记录
type Transcript struct {
	Conversation *support.Conversation `json:"conversation"`
	Messages     []*support.Message    `json:"messages"`
	ArchivedAt   time.Time             `json:"archived_at"`
}

// TranscriptArchiver 把聊天记录以 JSON 形式写入对象存储
type TranscriptArchiver struct {
	store storage.Storage
}

// NewTranscriptArchiver 创建归档器
func NewTranscriptArchiver(store storage.Storage) *TranscriptArchiver {
	return &TranscriptArchiver{store: store}
}

// TranscriptKey 聊天记录的存储 key
func TranscriptKey(conversationID string) string {
	return fmt.Sprintf("transcripts/%s.json", conversationID)
}

// Archive 上传聊天记录，返回访问地址
func (a *TranscriptArchiver) Archive(ctx context.Context, conv *support.Conversation, messages []*support.Message) (string, error) {
	data, err := json.MarshalIndent(Transcript{
		Conversation: conv,
		Messages:     messages,
		ArchivedAt:   time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal transcript: %w", err)
	}

	url, err := a.store.Upload(ctx, TranscriptKey(conv.ID), bytes.NewReader(data), "application/json")
	if err != nil {
		return "", fmt.Errorf("upload transcript: %w", err)
	}
	return url, nil
}
