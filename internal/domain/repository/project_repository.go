// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"parithera-api/internal/domain/entity"
)

// ProjectRepository 项目仓储接口
type ProjectRepository interface {
	// Create 创建项目
	Create(ctx context.Context, project *entity.Project) error

	// GetByID 根据 ID 获取项目
	GetByID(ctx context.Context, id string) (*entity.Project, error)

	// GetByIDWithSamples 根据 ID 获取项目并预加载样本与文件
	GetByIDWithSamples(ctx context.Context, id string) (*entity.Project, error)

	// Update 更新项目
	Update(ctx context.Context, project *entity.Project) error

	// Delete 删除项目
	Delete(ctx context.Context, id string) error

	// ListByOrganization 获取组织项目列表
	ListByOrganization(ctx context.Context, organizationID string, pagination Pagination) (*PagedResult[*entity.Project], error)

	// LinkSample 将样本关联到项目
	LinkSample(ctx context.Context, projectID, sampleID string) error

	// UnlinkSample 解除样本与项目的关联
	UnlinkSample(ctx context.Context, projectID, sampleID string) error
}
