package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound 对象不存在
var ErrNotFound = errors.New("object not found")

// Kind 后端类型，与配置项 storage.type 取值一致
type Kind string

const (
	KindLocal Kind = "local"
	KindOSS   Kind = "oss"
)

// Storage 对象存储，会话解决时归档聊天记录用
// key 使用 / 分隔，不以 / 开头
type Storage interface {
	// Upload 写入对象，返回可访问的 URL
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
	// Download 读取对象，不存在时返回 ErrNotFound
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete 删除对象，不存在视为成功
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Kind() Kind
}
