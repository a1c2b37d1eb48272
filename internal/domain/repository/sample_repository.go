// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"parithera-api/internal/domain/entity"
)

// SampleRepository 样本仓储接口
type SampleRepository interface {
	// Create 创建样本
	Create(ctx context.Context, sample *entity.Sample) error

	// GetByID 根据 ID 获取样本（含文件）
	GetByID(ctx context.Context, id string) (*entity.Sample, error)

	// Update 更新样本
	Update(ctx context.Context, sample *entity.Sample) error

	// Delete 删除样本
	Delete(ctx context.Context, id string) error

	// ListByOrganization 获取组织样本列表
	ListByOrganization(ctx context.Context, organizationID string, pagination Pagination) (*PagedResult[*entity.Sample], error)

	// AddFile 为样本登记一个上传文件
	AddFile(ctx context.Context, file *entity.SampleFile) error

	// ListFiles 获取样本文件列表
	ListFiles(ctx context.Context, sampleID string) ([]entity.SampleFile, error)
}
