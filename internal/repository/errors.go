// Package repository 数据访问层公共定义，具体仓库在子包中
package repository

import "errors"

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrStaleState 条件更新未命中：记录在读取之后已被其他请求修改
	ErrStaleState = errors.New("record modified concurrently")
	// ErrDuplicateKey 主键或唯一索引冲突
	ErrDuplicateKey = errors.New("duplicate key")
)
