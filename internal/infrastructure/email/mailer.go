// Package email 提供邮件发送协作接口
package email

import (
	"context"

	"parithera-api/pkg/logger"
)

// Mailer 邮件发送接口
type Mailer interface {
	// SendUserGreeting 向新注册用户发送欢迎邮件
	SendUserGreeting(ctx context.Context, to, firstName string) error
	// SendAnalysisFinished 通知用户分析已完成
	SendAnalysisFinished(ctx context.Context, to, projectName, analysisID string) error
}

// LogMailer 仅记录日志的实现，部署无 SMTP 时使用
type LogMailer struct{}

// NewLogMailer 创建日志邮件实现
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) SendUserGreeting(ctx context.Context, to, firstName string) error {
	logger.Info(ctx, "email: user greeting",
		"to", to,
		"first_name", firstName,
	)
	return nil
}

func (m *LogMailer) SendAnalysisFinished(ctx context.Context, to, projectName, analysisID string) error {
	logger.Info(ctx, "email: analysis finished",
		"to", to,
		"project", projectName,
		"analysis_id", analysisID,
	)
	return nil
}
