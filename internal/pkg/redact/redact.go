// Package redact 发送给大模型前的文本清洗
package redact

import "regexp"

// Placeholder 敏感信息替换文本
const Placeholder = "[REDACTED]"

// 顺序有意义：先长后短，避免卡号被手机号规则截成两段
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
	regexp.MustCompile(`\b\d{4}\s?\d{4}\s?\d{4}\s?\d{4}\b`),
	regexp.MustCompile(`\b\d{12,19}\b`),
	regexp.MustCompile(`\b\d{10}\b`),
}

// Sanitize 把邮箱、卡号、长数字串和 10 位手机号替换为 [REDACTED]
// 返回清洗后的文本以及是否发生了替换
func Sanitize(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	out := text
	for _, re := range patterns {
		out = re.ReplaceAllString(out, Placeholder)
	}
	return out, out != text
}

// Truncate 按字符（rune）数截断，maxRunes <= 0 时不截断
func Truncate(text string, maxRunes int) (string, bool) {
	if maxRunes <= 0 {
		return text, false
	}
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text, false
	}
	return string(runes[:maxRunes]), true
}

// CharBudget 由 token 上限换算出字符上限（约 4 字符/token）
func CharBudget(maxTokens int) int {
	return maxTokens * 4
}
