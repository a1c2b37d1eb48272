// Package entity 定义领域实体
package entity

import (
	"time"
)

// Agent 对话代理类型
type Agent string

const (
	AgentRAG    Agent = "rag"
	AgentScanpy Agent = "scanpy"
)

// Message 一轮对话记录，以 jsonb 数组形式存储在 Chat 上
type Message struct {
	Request   string      `json:"request"`
	Code      string      `json:"code"`
	Followup  []string    `json:"followup"`
	Text      string      `json:"text"`
	JSON      interface{} `json:"json"`
	Image     string      `json:"image"`
	Agent     string      `json:"agent"`
	Error     string      `json:"error"`
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewGreetingMessage 创建会话首条欢迎消息
func NewGreetingMessage() Message {
	return Message{
		Request:   "",
		Followup:  []string{},
		Text:      "Hi, how can I help you today?",
		Status:    "",
		Timestamp: time.Now(),
	}
}

// Chat 项目对话实体，消息按最新在前排列
type Chat struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID string    `json:"project_id" gorm:"column:projectId;type:uuid;uniqueIndex;not null"`
	Messages  []Message `json:"messages" gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Chat) TableName() string {
	return "chat"
}

// NewChat 创建新对话并写入欢迎消息
func NewChat(projectID string) *Chat {
	now := time.Now()
	return &Chat{
		ProjectID: projectID,
		Messages:  []Message{NewGreetingMessage()},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Prepend 在消息列表头部插入一条消息，保持最新在前
func (c *Chat) Prepend(msg Message) {
	c.Messages = append([]Message{msg}, c.Messages...)
	c.UpdatedAt = time.Now()
}

// Latest 返回最新一条消息
func (c *Chat) Latest() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[0]
}
