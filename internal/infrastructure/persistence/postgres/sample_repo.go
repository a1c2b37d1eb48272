// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"parithera-api/internal/domain/entity"
	"parithera-api/internal/domain/repository"
)

type SampleRepository struct {
	client *Client
}

func NewSampleRepository(client *Client) *SampleRepository {
	return &SampleRepository{client: client}
}

func (r *SampleRepository) Create(ctx context.Context, sample *entity.Sample) error {
	ctx, span := tracer.Start(ctx, "postgres.SampleRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(sample).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create sample: %w", err)
	}
	return nil
}

func (r *SampleRepository) GetByID(ctx context.Context, id string) (*entity.Sample, error) {
	ctx, span := tracer.Start(ctx, "postgres.SampleRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var sample entity.Sample
	if err := db.Preload("Files").First(&sample, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get sample: %w", err)
	}
	return &sample, nil
}

func (r *SampleRepository) Update(ctx context.Context, sample *entity.Sample) error {
	ctx, span := tracer.Start(ctx, "postgres.SampleRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Omit("Files").Save(sample).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update sample: %w", err)
	}
	return nil
}

func (r *SampleRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.SampleRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Sample{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete sample: %w", err)
	}
	return nil
}

func (r *SampleRepository) ListByOrganization(ctx context.Context, organizationID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Sample], error) {
	ctx, span := tracer.Start(ctx, "postgres.SampleRepository.ListByOrganization")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Sample{}).Where("organization_id = ?", organizationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count samples: %w", err)
	}

	var samples []*entity.Sample
	if err := query.Preload("Files").Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&samples).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list samples: %w", err)
	}

	return repository.NewPagedResult(samples, total, pagination), nil
}

func (r *SampleRepository) AddFile(ctx context.Context, file *entity.SampleFile) error {
	ctx, span := tracer.Start(ctx, "postgres.SampleRepository.AddFile")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(file).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to add sample file: %w", err)
	}
	return nil
}

func (r *SampleRepository) ListFiles(ctx context.Context, sampleID string) ([]entity.SampleFile, error) {
	ctx, span := tracer.Start(ctx, "postgres.SampleRepository.ListFiles")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var files []entity.SampleFile
	if err := db.Where("sample_id = ?", sampleID).Order("created_at ASC").Find(&files).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list sample files: %w", err)
	}
	return files, nil
}
