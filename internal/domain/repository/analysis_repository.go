// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"parithera-api/internal/domain/entity"
)

// AnalysisRepository 分析任务仓储接口
type AnalysisRepository interface {
	// Create 创建分析任务
	Create(ctx context.Context, analysis *entity.Analysis) error

	// GetByID 根据 ID 获取分析任务
	GetByID(ctx context.Context, id string) (*entity.Analysis, error)

	// Update 更新分析任务
	Update(ctx context.Context, analysis *entity.Analysis) error

	// UpdateStatus 更新分析状态
	UpdateStatus(ctx context.Context, id string, status entity.AnalysisStatus) error

	// ListByProject 获取项目分析任务列表
	ListByProject(ctx context.Context, projectID string, pagination Pagination) (*PagedResult[*entity.Analysis], error)
}

// ResultRepository 分析结果仓储接口
type ResultRepository interface {
	// Create 写入结果
	Create(ctx context.Context, result *entity.Result) error

	// GetByAnalysisAndPlugin 根据分析 ID 与插件类型获取结果
	GetByAnalysisAndPlugin(ctx context.Context, analysisID string, plugin entity.PluginKind) (*entity.Result, error)
}

// AnalyzerRepository 分析器仓储接口
type AnalyzerRepository interface {
	// Create 注册分析器
	Create(ctx context.Context, analyzer *entity.Analyzer) error

	// GetByName 根据组织与名称获取分析器
	GetByName(ctx context.Context, organizationID, name string) (*entity.Analyzer, error)

	// ListByOrganization 获取组织分析器列表
	ListByOrganization(ctx context.Context, organizationID string, pagination Pagination) (*PagedResult[*entity.Analyzer], error)
}
