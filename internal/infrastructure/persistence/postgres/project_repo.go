// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"parithera-api/internal/domain/entity"
	"parithera-api/internal/domain/repository"
)

type ProjectRepository struct {
	client *Client
}

func NewProjectRepository(client *Client) *ProjectRepository {
	return &ProjectRepository{client: client}
}

func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(project).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var project entity.Project
	if err := db.First(&project, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

func (r *ProjectRepository) GetByIDWithSamples(ctx context.Context, id string) (*entity.Project, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.GetByIDWithSamples")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var project entity.Project
	if err := db.Preload("Samples.Files").First(&project, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get project with samples: %w", err)
	}
	return &project, nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *entity.Project) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Omit("Samples").Save(project).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Project{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) ListByOrganization(ctx context.Context, organizationID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.ListByOrganization")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Project{}).Where("organization_id = ?", organizationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	var projects []*entity.Project
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&projects).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return repository.NewPagedResult(projects, total, pagination), nil
}

func (r *ProjectRepository) LinkSample(ctx context.Context, projectID, sampleID string) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.LinkSample")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Model(&entity.Project{ID: projectID}).Association("Samples").Append(&entity.Sample{ID: sampleID})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to link sample: %w", err)
	}
	return nil
}

func (r *ProjectRepository) UnlinkSample(ctx context.Context, projectID, sampleID string) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.UnlinkSample")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Model(&entity.Project{ID: projectID}).Association("Samples").Delete(&entity.Sample{ID: sampleID})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to unlink sample: %w", err)
	}
	return nil
}
