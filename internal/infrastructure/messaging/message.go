// Package messaging 提供消息队列实现
package messaging

import (
	"time"
)

// Queue 队列定义
type Queue string

const (
	// QueueDispatcherPython Python 分析 worker 消费的调度队列
	QueueDispatcherPython Queue = "dispatcher_python"
)

// DispatchData 调度消息的派发元信息
type DispatchData struct {
	Type string `json:"type"`
}

// DispatcherPluginMessage 下发给分析 worker 的调度消息
type DispatcherPluginMessage struct {
	Data       DispatchData `json:"Data"`
	AnalysisID string       `json:"AnalysisId"`
	ProjectID  string       `json:"ProjectId"`
	Timestamp  time.Time    `json:"Timestamp"`
}

// NewChatDispatchMessage 创建一条对话触发的调度消息
func NewChatDispatchMessage(analysisID, projectID string) *DispatcherPluginMessage {
	return &DispatcherPluginMessage{
		Data:       DispatchData{Type: "chat"},
		AnalysisID: analysisID,
		ProjectID:  projectID,
		Timestamp:  time.Now(),
	}
}
