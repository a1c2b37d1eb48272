// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"parithera-api/internal/domain/entity"
)

// ChatAskRequest 发起一轮对话的请求
type ChatAskRequest struct {
	Request string `json:"request" binding:"required,max=4000"`
}

// MessageResponse 单条对话消息
type MessageResponse struct {
	Request   string                 `json:"request"`
	Code      string                 `json:"code"`
	Followup  []string               `json:"followup"`
	Text      string                 `json:"text"`
	JSON      interface{}            `json:"json"`
	Image     string                 `json:"image"`
	Agent     string                 `json:"agent"`
	Error     string                 `json:"error"`
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
}

// ChatTurnResponse 一轮对话的响应信封
type ChatTurnResponse struct {
	Data MessageResponse `json:"data"`
	Type string          `json:"type"`
}

// ChatHistoryResponse 对话历史响应
type ChatHistoryResponse struct {
	ID        string            `json:"id"`
	ProjectID string            `json:"project_id"`
	Messages  []MessageResponse `json:"messages"`
}

// ToMessageResponse 转换对话消息
func ToMessageResponse(msg *entity.Message) MessageResponse {
	followup := msg.Followup
	if followup == nil {
		followup = []string{}
	}
	return MessageResponse{
		Request:   msg.Request,
		Code:      msg.Code,
		Followup:  followup,
		Text:      msg.Text,
		JSON:      msg.JSON,
		Image:     msg.Image,
		Agent:     msg.Agent,
		Error:     msg.Error,
		Status:    msg.Status,
		Timestamp: msg.Timestamp,
	}
}

// ToChatHistoryResponse 转换对话历史
func ToChatHistoryResponse(chat *entity.Chat) ChatHistoryResponse {
	messages := make([]MessageResponse, 0, len(chat.Messages))
	for i := range chat.Messages {
		messages = append(messages, ToMessageResponse(&chat.Messages[i]))
	}
	return ChatHistoryResponse{
		ID:        chat.ID,
		ProjectID: chat.ProjectID,
		Messages:  messages,
	}
}
