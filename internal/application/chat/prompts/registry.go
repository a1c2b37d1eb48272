// Package prompts 管理聊天流程使用的提示词模板
package prompts

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

// PromptID 提示词模板标识
type PromptID string

const (
	// PromptIntentClassifierV1 判定一轮对话走 rag 还是 scanpy
	PromptIntentClassifierV1 PromptID = "intent_classifier_v1"
	// PromptRAGAnswerV1 知识问答，回答后接 --FOLLOWUPS-- 追问列表
	PromptRAGAnswerV1 PromptID = "rag_answer_v1"
	// PromptScriptClassifierV1 判定需要哪个预置分析脚本
	PromptScriptClassifierV1 PromptID = "script_classifier_v1"
	// PromptScriptAuthorV1 为 custom 请求生成 python 脚本
	PromptScriptAuthorV1 PromptID = "script_author_v1"
)

// hasFollowups 标记模板输出是否带 --FOLLOWUPS-- 追问尾部
var hasFollowups = map[PromptID]bool{
	PromptIntentClassifierV1: false,
	PromptRAGAnswerV1:        true,
	PromptScriptClassifierV1: false,
	PromptScriptAuthorV1:     true,
}

// HasFollowups 返回模板输出是否带追问尾部
func HasFollowups(id PromptID) bool {
	return hasFollowups[id]
}

// Registry 提示词注册表，按需加载并缓存模板
type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

// NewRegistry 创建注册表
func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

// ChatTemplate 返回指定模板，首次访问从内嵌文件加载
func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	systemPath, userPath, err := resolvePromptFiles(id)
	if err != nil {
		return nil, err
	}
	system, err := readEmbeddedText(systemPath)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(userPath)
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	r.cache[id] = tpl
	return tpl, nil
}

func resolvePromptFiles(id PromptID) (systemFile string, userFile string, err error) {
	switch id {
	case PromptIntentClassifierV1:
		return "templates/intent_classifier_v1.system.txt", "templates/intent_classifier_v1.user.txt", nil
	case PromptRAGAnswerV1:
		return "templates/rag_answer_v1.system.txt", "templates/rag_answer_v1.user.txt", nil
	case PromptScriptClassifierV1:
		return "templates/script_classifier_v1.system.txt", "templates/script_classifier_v1.user.txt", nil
	case PromptScriptAuthorV1:
		return "templates/script_author_v1.system.txt", "templates/script_author_v1.user.txt", nil
	default:
		return "", "", fmt.Errorf("unknown prompt id: %s", id)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
