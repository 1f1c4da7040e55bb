// Package responses 确定性回复模板
package responses

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"helpdesk/internal/pkg/intent"
	"helpdesk/internal/pkg/language"
)

// 模板变量名
const (
	VarStatus     = "status"
	VarDate       = "date"
	VarPolicyType = "policy_type"
)

// ErrUnresolvedPlaceholder 模板中仍有未替换的占位符
var ErrUnresolvedPlaceholder = errors.New("unresolved template placeholder")

var templates = map[intent.Intent]map[language.Language]string{
	intent.OrderStatus: {
		language.English:   "Your order is currently {status}. Expected delivery: {date}.",
		language.Malayalam: "നിങ്ങളുടെ ഓർഡർ നിലവിൽ {status} ആണ്.",
	},
	intent.ReturnRefund: {
		language.English:   "You can request a return within 7 days of delivery.",
		language.Malayalam: "ഡെലിവറി കഴിഞ്ഞ് 7 ദിവസത്തിനുള്ളിൽ റിട്ടേൺ അഭ്യർത്ഥിക്കാം.",
	},
	intent.Policy: {
		language.English:   "Here is our {policy_type} policy.",
		language.Malayalam: "{policy_type} നയം ഇതാണ്.",
	},
	intent.Escalation: {
		language.English:   "I am connecting you to a support executive.",
		language.Malayalam: "നിങ്ങളെ കസ്റ്റമർ കെയറുമായി ബന്ധിപ്പിക്കുന്നു.",
	},
	intent.General: {
		language.English:   "How can I help you today?",
		language.Malayalam: "എനിക്ക് നിങ്ങളെ എങ്ങനെ സഹായിക്കാം?",
	},
}

var defaults = map[language.Language]map[string]string{
	language.English: {
		VarStatus:     "being processed",
		VarDate:       "soon",
		VarPolicyType: "general",
	},
	language.Malayalam: {
		VarStatus:     "പ്രോസസ്സ് ചെയ്യുന്നു",
		VarDate:       "ഉടൻ",
		VarPolicyType: "പൊതുവായ",
	},
}

var placeholderRe = regexp.MustCompile(`\{[a-z_]+\}`)

// Template 返回原始模板，未知意图回落到 general，未知语言回落到 en
func Template(it intent.Intent, lang language.Language) string {
	if !lang.IsConcrete() {
		lang = language.English
	}
	byLang, ok := templates[it]
	if !ok {
		byLang = templates[intent.General]
	}
	return byLang[lang]
}

// Defaults 返回某语言下模板变量的默认值副本
func Defaults(lang language.Language) map[string]string {
	if !lang.IsConcrete() {
		lang = language.English
	}
	out := make(map[string]string, len(defaults[lang]))
	for k, v := range defaults[lang] {
		out[k] = v
	}
	return out
}

// Render 渲染模板
// vars 中空值用语言默认值补齐；渲染后仍有占位符时返回 ErrUnresolvedPlaceholder
func Render(it intent.Intent, lang language.Language, vars map[string]string) (string, error) {
	tpl := Template(it, lang)
	values := Defaults(lang)
	for k, v := range vars {
		if strings.TrimSpace(v) != "" {
			values[k] = v
		}
	}

	// 只检查模板自身的占位符，变量值里带花括号不算
	for _, ph := range placeholderRe.FindAllString(tpl, -1) {
		if _, ok := values[strings.Trim(ph, "{}")]; !ok {
			return "", fmt.Errorf("%w: %s in %s/%s", ErrUnresolvedPlaceholder, ph, it, lang)
		}
	}

	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl), nil
}

// Fallback 大模型不可用时的兜底回复（general 模板，不含占位符）
func Fallback(lang language.Language) string {
	return Template(intent.General, lang)
}
