package ai

import (
	"fmt"

	"helpdesk/internal/pkg/language"
)

// DefaultBrandName 未配置品牌名时使用
const DefaultBrandName = "Kerala Sellers"

const systemTemplate = "You are a polite and helpful customer support assistant for %s. " +
	"Respond in a friendly, professional manner. Keep responses concise and helpful."

// SystemPrompt 按回复语言生成系统提示词
func SystemPrompt(brand string, lang language.Language) string {
	if brand == "" {
		brand = DefaultBrandName
	}
	prompt := fmt.Sprintf(systemTemplate, brand)
	if lang == language.Malayalam {
		return prompt + " Respond in Malayalam language."
	}
	return prompt + " Respond in English language."
}

// UserPrompt 拼接上下文和当前消息
func UserPrompt(history, message string) string {
	return history + "Customer: " + message + "\n\nAssistant:"
}
