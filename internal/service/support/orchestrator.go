package support

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"helpdesk/internal/ai"
	"helpdesk/internal/config"
	"helpdesk/internal/model/support"
	"helpdesk/internal/pkg/intent"
	"helpdesk/internal/pkg/language"
	"helpdesk/internal/pkg/responses"
	"helpdesk/internal/repository"
)

// 回复路径
const (
	PathTemplate = "template"
	PathLLM      = "llm"
)

// lookupTimeout 模板变量查询的超时，查不到就用默认值
const lookupTimeout = config.LookupTimeout

// Inbound 已识别的用户消息
type Inbound struct {
	Text     string
	Intent   intent.Intent
	Language language.Language // 回复语言
}

// Reply 自动回复
type Reply struct {
	Text         string
	Confidence   float64
	UsedFallback bool
	Path         string
}

// Orchestrator 按意图选择模板回复或大模型回复
type Orchestrator struct {
	ai       *ai.Client
	builder  *ContextBuilder
	orders   OrderLookup
	policies PolicyLookup
}

// NewOrchestrator 创建回复编排器，orders/policies 可以为 nil
func NewOrchestrator(client *ai.Client, builder *ContextBuilder, orders OrderLookup, policies PolicyLookup) *Orchestrator {
	return &Orchestrator{
		ai:       client,
		builder:  builder,
		orders:   orders,
		policies: policies,
	}
}

// Respond 生成回复，不会返回错误
func (o *Orchestrator) Respond(ctx context.Context, conv *support.Conversation, in Inbound) Reply {
	lang := language.Normalize(string(in.Language))

	if in.Intent != intent.General && in.Intent.IsValid() {
		return o.templateReply(ctx, conv, in.Intent, in.Text, lang)
	}

	if o.ai == nil {
		return Reply{Text: responses.Fallback(lang), Confidence: ai.ConfidenceFallback, UsedFallback: true, Path: PathLLM}
	}

	history := ""
	if o.builder != nil {
		history = o.builder.Build(ctx, conv)
	}
	r := o.ai.Reply(ctx, ai.Request{Message: in.Text, Language: lang, History: history})
	return Reply{
		Text:         r.Text,
		Confidence:   r.Confidence,
		UsedFallback: r.UsedFallback,
		Path:         PathLLM,
	}
}

func (o *Orchestrator) templateReply(ctx context.Context, conv *support.Conversation, it intent.Intent, text string, lang language.Language) Reply {
	vars := map[string]string{}
	switch it {
	case intent.OrderStatus:
		o.orderVars(ctx, conv, vars)
	case intent.Policy:
		o.policyVars(ctx, text, vars)
	}

	out, err := responses.Render(it, lang, vars)
	if err != nil {
		log.Error().Err(err).Str("intent", it.String()).Msg("template render failed, using general template")
		out = responses.Fallback(lang)
	}
	return Reply{Text: out, Confidence: 1.0, Path: PathTemplate}
}

func (o *Orchestrator) orderVars(ctx context.Context, conv *support.Conversation, vars map[string]string) {
	if o.orders == nil || conv == nil || conv.UserID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	ord, err := o.orders.FindLatestOrder(ctx, conv.UserID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("order lookup failed, using template defaults")
		}
		return
	}

	vars[responses.VarStatus] = strings.ReplaceAll(ord.Status.String(), "_", " ")
	switch {
	case ord.DeliveredAt != nil:
		vars[responses.VarDate] = ord.DeliveredAt.Format("2006-01-02")
	case ord.EstimatedDelivery != nil:
		vars[responses.VarDate] = ord.EstimatedDelivery.Format("2006-01-02")
	}
}

func (o *Orchestrator) policyVars(ctx context.Context, text string, vars map[string]string) {
	if o.policies == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	types, err := o.policies.ListPolicyTypes(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("policy lookup failed, using template defaults")
		return
	}
	if match := MatchPolicyType(text, types); match != "" {
		vars[responses.VarPolicyType] = match
	}
}

// MatchPolicyType 在消息中查找提到的政策类型，多个命中时取最长的
// 类型中的下划线按空格匹配
func MatchPolicyType(text string, types []string) string {
	lowered := strings.ToLower(text)

	sorted := append([]string(nil), types...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	for _, t := range sorted {
		if t == "" {
			continue
		}
		needle := strings.ToLower(t)
		if strings.Contains(lowered, needle) || strings.Contains(lowered, strings.ReplaceAll(needle, "_", " ")) {
			return t
		}
	}
	return ""
}
