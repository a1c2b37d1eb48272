// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"parithera-api/internal/domain/entity"
	"parithera-api/internal/domain/repository"
)

type AnalysisRepository struct {
	client *Client
}

func NewAnalysisRepository(client *Client) *AnalysisRepository {
	return &AnalysisRepository{client: client}
}

func (r *AnalysisRepository) Create(ctx context.Context, analysis *entity.Analysis) error {
	ctx, span := tracer.Start(ctx, "postgres.AnalysisRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(analysis).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) GetByID(ctx context.Context, id string) (*entity.Analysis, error) {
	ctx, span := tracer.Start(ctx, "postgres.AnalysisRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var analysis entity.Analysis
	if err := db.First(&analysis, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return &analysis, nil
}

func (r *AnalysisRepository) Update(ctx context.Context, analysis *entity.Analysis) error {
	ctx, span := tracer.Start(ctx, "postgres.AnalysisRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(analysis).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update analysis: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) UpdateStatus(ctx context.Context, id string, status entity.AnalysisStatus) error {
	ctx, span := tracer.Start(ctx, "postgres.AnalysisRepository.UpdateStatus")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Model(&entity.Analysis{}).Where("id = ?", id).Update("status", status).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update analysis status: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) ListByProject(ctx context.Context, projectID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Analysis], error) {
	ctx, span := tracer.Start(ctx, "postgres.AnalysisRepository.ListByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Analysis{}).Where("project_id = ?", projectID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count analyses: %w", err)
	}

	var analyses []*entity.Analysis
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&analyses).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	return repository.NewPagedResult(analyses, total, pagination), nil
}

type ResultRepository struct {
	client *Client
}

func NewResultRepository(client *Client) *ResultRepository {
	return &ResultRepository{client: client}
}

func (r *ResultRepository) Create(ctx context.Context, result *entity.Result) error {
	ctx, span := tracer.Start(ctx, "postgres.ResultRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(result).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create result: %w", err)
	}
	return nil
}

func (r *ResultRepository) GetByAnalysisAndPlugin(ctx context.Context, analysisID string, plugin entity.PluginKind) (*entity.Result, error) {
	ctx, span := tracer.Start(ctx, "postgres.ResultRepository.GetByAnalysisAndPlugin")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var result entity.Result
	if err := db.First(&result, "analysis_id = ? AND plugin = ?", analysisID, plugin).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return &result, nil
}

type AnalyzerRepository struct {
	client *Client
}

func NewAnalyzerRepository(client *Client) *AnalyzerRepository {
	return &AnalyzerRepository{client: client}
}

func (r *AnalyzerRepository) Create(ctx context.Context, analyzer *entity.Analyzer) error {
	ctx, span := tracer.Start(ctx, "postgres.AnalyzerRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(analyzer).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create analyzer: %w", err)
	}
	return nil
}

func (r *AnalyzerRepository) GetByName(ctx context.Context, organizationID, name string) (*entity.Analyzer, error) {
	ctx, span := tracer.Start(ctx, "postgres.AnalyzerRepository.GetByName")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var analyzer entity.Analyzer
	if err := db.First(&analyzer, "organization_id = ? AND name = ?", organizationID, name).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get analyzer: %w", err)
	}
	return &analyzer, nil
}

func (r *AnalyzerRepository) ListByOrganization(ctx context.Context, organizationID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Analyzer], error) {
	ctx, span := tracer.Start(ctx, "postgres.AnalyzerRepository.ListByOrganization")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Analyzer{}).Where("organization_id = ?", organizationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count analyzers: %w", err)
	}

	var analyzers []*entity.Analyzer
	if err := query.Order("created_at ASC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&analyzers).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list analyzers: %w", err)
	}

	return repository.NewPagedResult(analyzers, total, pagination), nil
}
