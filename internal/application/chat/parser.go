// Package chat 实现项目对话编排：意图分类、RAG 问答、脚本调度与会话存储
package chat

import (
	"strings"

	apperrors "parithera-api/pkg/errors"
)

// FollowupsDelimiter 回答正文与追问列表之间的分隔标记
const FollowupsDelimiter = "--FOLLOWUPS--"

// ParseFollowups 将 LLM 原始回答拆分为正文与追问列表。
// 分隔标记缺失时正文为整个回答、追问为空。
// 正文为空时追问也记为空，即便分隔标记后有内容。
func ParseFollowups(raw string) (string, []string) {
	parts := strings.SplitN(raw, FollowupsDelimiter, 2)
	body := parts[0]

	if len(parts) < 2 || body == "" {
		return body, []string{}
	}

	followups := []string{}
	for _, line := range strings.Split(parts[1], "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			followups = append(followups, line)
		}
	}
	return body, followups
}

// ExtractCodeBlock 提取第一个指定语言的围栏代码块内容
func ExtractCodeBlock(raw string, languageTag string) (string, error) {
	open := "```" + languageTag
	parts := strings.SplitN(raw, open, 2)
	if len(parts) < 2 {
		return "", apperrors.New(apperrors.CodeMalformedScriptResponse, "no fenced code block found").
			WithDetail(languageTag)
	}

	inner := strings.SplitN(parts[1], "```", 2)
	if len(inner) < 2 {
		return "", apperrors.New(apperrors.CodeMalformedScriptResponse, "unterminated code block").
			WithDetail(languageTag)
	}
	return inner[0], nil
}
