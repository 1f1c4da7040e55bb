// Package language 粗粒度的语言识别
//
// 只按 Unicode 区段判断：马拉雅拉姆文字符 + ASCII 字母，不做统计模型。
package language

import "strings"

// Language 语言代码
type Language string

const (
	English   Language = "en"
	Malayalam Language = "ml"
	Mixed     Language = "mixed"
)

// IsValid 检查是否为已知语言代码
func (l Language) IsValid() bool {
	return l == English || l == Malayalam || l == Mixed
}

// IsConcrete 是否为可以直接用来回复的语言（mixed 不是）
func (l Language) IsConcrete() bool {
	return l == English || l == Malayalam
}

// String 返回语言代码字符串
func (l Language) String() string {
	return string(l)
}

// 马拉雅拉姆文区段，以及印度系文字使用的零宽连接符
var scriptRanges = [][2]rune{
	{0x0D00, 0x0D7F},
	{0x200C, 0x200D},
}

func isScript(r rune) bool {
	for _, rg := range scriptRanges {
		if r >= rg[0] && r <= rg[1] {
			return true
		}
	}
	return false
}

func isASCIILetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

// Detect 识别文本语言
// 空文本、纯数字/标点返回 en；同时出现两类字符返回 mixed
func Detect(text string) Language {
	if strings.TrimSpace(text) == "" {
		return English
	}

	var hasScript, hasLatin bool
	for _, r := range text {
		if isScript(r) {
			hasScript = true
		} else if isASCIILetter(r) {
			hasLatin = true
		}
		if hasScript && hasLatin {
			return Mixed
		}
	}

	if hasScript {
		return Malayalam
	}
	return English
}

// ResponseLanguage 决定回复语言
// 当前消息语言明确时跟随消息；mixed 时跟随会话语言；会话语言缺失时默认 en
func ResponseLanguage(conversationLang, detected Language) Language {
	if detected.IsConcrete() {
		return detected
	}
	if conversationLang.IsConcrete() {
		return conversationLang
	}
	return English
}

// Normalize 把任意输入规范为已知的可回复语言，未知值折叠为 en
func Normalize(lang string) Language {
	l := Language(strings.ToLower(strings.TrimSpace(lang)))
	if l.IsConcrete() {
		return l
	}
	return English
}
