package storagefactory

import (
	"context"
	"fmt"

	"helpdesk/internal/config"
	"helpdesk/internal/pkg/storage"
	"helpdesk/internal/pkg/storage/local"
	"helpdesk/internal/pkg/storage/oss"
)

// NewStorage 根据配置创建存储实例
// Type 为空表示未开启归档，返回 (nil, nil)
func NewStorage(ctx context.Context, cfg *config.StorageConfig) (storage.Storage, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case string(storage.KindLocal):
		if cfg.Local == nil {
			return nil, fmt.Errorf("local storage config is required")
		}
		st, err := local.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case string(storage.KindOSS):
		if cfg.OSS == nil {
			return nil, fmt.Errorf("OSS storage config is required")
		}
		st, err := oss.NewOSSStorage(
			cfg.OSS.Endpoint,
			cfg.OSS.Bucket,
			cfg.OSS.AccessKeyID,
			cfg.OSS.AccessKeySecret,
		)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
