package ctxutil

import "context"

// agentIDKeyType 使用私有类型避免与其他 context key 冲突
type agentIDKeyType struct{}

var agentIDKey = agentIDKeyType{}

// WithAgentID 将坐席 ID 注入到 context 中
// 在坐席认证中间件解析 JWT 成功后调用
func WithAgentID(ctx context.Context, agentID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, agentIDKey, agentID)
}

// GetAgentID 从 context 中解析坐席 ID
func GetAgentID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(agentIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
