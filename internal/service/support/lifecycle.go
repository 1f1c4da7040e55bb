package support

import (
	"fmt"
	"strings"
	"time"

	"helpdesk/internal/model/support"
	"helpdesk/internal/pkg/language"
)

// 会话状态机
// 状态只能前进：open → escalated → assigned → resolved（escalated 也可以直接 resolved）
// 失败的转换不修改会话

// Escalate 升级到人工
func Escalate(conv *support.Conversation, reason string, now time.Time) error {
	switch conv.Status {
	case support.StatusOpen:
	case support.StatusResolved:
		return ErrAlreadyResolved
	default:
		return ErrAlreadyEscalated
	}

	conv.Status = support.StatusEscalated
	conv.Escalated = true
	conv.EscalationReason = reason
	if conv.EscalatedAt == nil {
		t := now
		conv.EscalatedAt = &t
	}
	return nil
}

// Assign 分配坐席，只能从 escalated 进入
func Assign(conv *support.Conversation, agentID string, now time.Time) error {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return fmt.Errorf("%w: agent_id is required", ErrInvalidInput)
	}
	switch conv.Status {
	case support.StatusEscalated:
	case support.StatusResolved:
		return ErrAlreadyResolved
	default:
		return ErrNotEscalated
	}

	conv.Status = support.StatusAssigned
	conv.AssignedAgent = &agentID
	return nil
}

// Resolve 结束会话，open 状态没有人工接手，不能直接结束
func Resolve(conv *support.Conversation, now time.Time) error {
	switch conv.Status {
	case support.StatusEscalated, support.StatusAssigned:
	case support.StatusResolved:
		return ErrAlreadyResolved
	default:
		return ErrNotEscalated
	}

	conv.Status = support.StatusResolved
	if conv.ResolvedAt == nil {
		t := now
		conv.ResolvedAt = &t
	}
	if conv.EndedAt == nil {
		t := now
		conv.EndedAt = &t
	}
	return nil
}

// AllowsAutomation 是否允许自动回复
func AllowsAutomation(conv *support.Conversation) bool {
	return conv.Status == support.StatusOpen
}

// AcceptsAgentMessages 是否接受坐席消息
func AcceptsAgentMessages(conv *support.Conversation) error {
	switch conv.Status {
	case support.StatusEscalated, support.StatusAssigned:
		return nil
	}
	return ErrAgentNotAllowed
}

// IngestLanguage 根据用户消息更新会话语言
// 首条消息直接采用识别结果，之后每条明确语言的消息都会覆盖；mixed 不改变会话语言
func IngestLanguage(conv *support.Conversation, detected language.Language) {
	if detected.IsConcrete() {
		conv.Language = detected
		return
	}
	if !conv.Language.IsConcrete() {
		conv.Language = language.English
	}
}
