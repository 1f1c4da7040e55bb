// Package intent 基于关键词的意图识别
package intent

import (
	"strings"

	"helpdesk/internal/pkg/language"
)

// Intent 用户意图
type Intent string

const (
	OrderStatus  Intent = "order_status"
	ReturnRefund Intent = "return_refund"
	Policy       Intent = "policy"
	Escalation   Intent = "escalation"
	General      Intent = "general"
)

// IsValid 检查意图是否有效
func (i Intent) IsValid() bool {
	switch i {
	case OrderStatus, ReturnRefund, Policy, Escalation, General:
		return true
	}
	return false
}

// String 返回意图字符串
func (i Intent) String() string {
	return string(i)
}

// priority 匹配顺序，越靠前优先级越高
var priority = []Intent{Escalation, Policy, ReturnRefund, OrderStatus}

// keywords 每个意图在各语言下的关键词（英文关键词均为小写）
var keywords = map[Intent]map[language.Language][]string{
	OrderStatus: {
		language.English:   {"order", "track", "delivery", "shipped", "status", "where"},
		language.Malayalam: {"ഓർഡർ", "ട്രാക്ക്", "ഡെലിവറി", "എത്തിയോ", "സ്ഥിതി", "എവിടെയാണ്"},
	},
	ReturnRefund: {
		language.English:   {"return", "refund", "replace", "damaged", "cancel"},
		language.Malayalam: {"റിട്ടേൺ", "റീഫണ്ട്", "തിരികെ", "നശിച്ചു", "ക്യാൻസൽ"},
	},
	Policy: {
		language.English:   {"policy", "rules", "terms", "conditions"},
		language.Malayalam: {"നയം", "നയങ്ങൾ", "നിയമങ്ങൾ", "വ്യവസ്ഥകൾ"},
	},
	Escalation: {
		language.English:   {"complaint", "talk to agent", "human", "support executive", "escalate"},
		language.Malayalam: {"പരാതി", "മനുഷ്യൻ", "മനുഷ്യനോട്", "കസ്റ്റമർ കെയർ", "കസ്റ്റമർ കെയറിനെ", "എസ്കലേറ്റ്"},
	},
}

// Classify 识别文本意图
// 大小写不敏感的子串匹配；非 en/ml 的语言（包括 mixed）按 en 处理
func Classify(text string, lang language.Language) Intent {
	if !lang.IsConcrete() {
		lang = language.English
	}

	lowered := strings.ToLower(text)
	for _, it := range priority {
		for _, kw := range keywords[it][lang] {
			if strings.Contains(lowered, kw) {
				return it
			}
		}
	}
	return General
}

// Keywords 返回某意图在某语言下的关键词副本
func Keywords(it Intent, lang language.Language) []string {
	kws := keywords[it][lang]
	out := make([]string, len(kws))
	copy(out, kws)
	return out
}
