// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"parithera-api/internal/domain/entity"
)

// ChatRepository 对话仓储接口
type ChatRepository interface {
	// Create 创建对话
	Create(ctx context.Context, chat *entity.Chat) error

	// GetByProject 获取项目对话
	GetByProject(ctx context.Context, projectID string) (*entity.Chat, error)

	// GetByProjectForUpdate 获取项目对话并加行锁，用于原子化的消息头插
	GetByProjectForUpdate(ctx context.Context, projectID string) (*entity.Chat, error)

	// Update 更新对话（整体回写消息列表）
	Update(ctx context.Context, chat *entity.Chat) error

	// DeleteByProject 删除项目对话，项目删除时级联调用
	DeleteByProject(ctx context.Context, projectID string) error
}
