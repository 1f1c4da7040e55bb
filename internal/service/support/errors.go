package support

import "errors"

var (
	// ErrInvalidInput 参数校验失败
	ErrInvalidInput = errors.New("invalid input")
	// ErrConversationNotFound 会话不存在
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrAlreadyEscalated 会话已升级（或已分配）
	ErrAlreadyEscalated = errors.New("conversation already escalated")
	// ErrNotEscalated 会话尚未升级，不能分配或结束
	ErrNotEscalated = errors.New("conversation must be escalated first")
	// ErrAlreadyResolved 会话已结束
	ErrAlreadyResolved = errors.New("conversation already resolved")
	// ErrAgentNotAllowed 当前状态不接受坐席消息
	ErrAgentNotAllowed = errors.New("conversation must be assigned or escalated for agent messages")

	// ErrStaleState 会话在读取后被其他请求修改
	ErrStaleState = errors.New("conversation was modified concurrently, please retry")
	// ErrBusy 等待会话锁超时
	ErrBusy = errors.New("conversation is busy, please retry")
)

// IsStateConflict 是否为状态冲突类错误
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrAlreadyEscalated) ||
		errors.Is(err, ErrNotEscalated) ||
		errors.Is(err, ErrAlreadyResolved) ||
		errors.Is(err, ErrAgentNotAllowed)
}
