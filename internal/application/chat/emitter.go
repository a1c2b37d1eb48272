package chat

import (
	"context"

	"parithera-api/internal/domain/entity"
)

// 回合进度状态值，依次经由 chat:status 事件推送
const (
	StatusAgentChosen        = "agent_chosen"
	StatusLLMAnswerReceived  = "llm_answer_received"
	StatusGeneratingFollowUp = "generating_follow_up"
	StatusCodeReady          = "code_ready"
	StatusScriptStarted      = "script_started"
	StatusScriptExecuted     = "script_executed"
	StatusDone               = "done"
)

// ResponseType 响应信封类型
type ResponseType string

const (
	ResponseTypeInfo    ResponseType = "info"
	ResponseTypeSuccess ResponseType = "success"
	ResponseTypeError   ResponseType = "error"
)

// 信封事件名
const (
	EventChat       = "chat"
	EventChatStatus = "chat:status"
)

// Envelope 推送给客户端的事件信封
type Envelope struct {
	Event string         `json:"event"`
	Data  entity.Message `json:"data"`
	Type  ResponseType   `json:"type"`
}

// StatusEmitter 状态事件出口。推送为尽力而为，失败不影响回合结果。
type StatusEmitter interface {
	Emit(ctx context.Context, env Envelope)
}

// NopEmitter 丢弃所有事件，REST 路径使用
type NopEmitter struct{}

func (NopEmitter) Emit(ctx context.Context, env Envelope) {}

// emitStatus 设置消息状态并推送一条进度事件
func emitStatus(ctx context.Context, emitter StatusEmitter, msg *entity.Message, status string) {
	msg.Status = status
	if emitter == nil {
		return
	}
	emitter.Emit(ctx, Envelope{
		Event: EventChatStatus,
		Data:  *msg,
		Type:  ResponseTypeInfo,
	})
}
