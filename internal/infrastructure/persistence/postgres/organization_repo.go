// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"parithera-api/internal/domain/entity"
	"parithera-api/internal/domain/repository"
)

type OrganizationRepository struct {
	client *Client
}

func NewOrganizationRepository(client *Client) *OrganizationRepository {
	return &OrganizationRepository{client: client}
}

func (r *OrganizationRepository) Create(ctx context.Context, org *entity.Organization) error {
	ctx, span := tracer.Start(ctx, "postgres.OrganizationRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(org).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*entity.Organization, error) {
	ctx, span := tracer.Start(ctx, "postgres.OrganizationRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var org entity.Organization
	if err := db.First(&org, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

func (r *OrganizationRepository) Update(ctx context.Context, org *entity.Organization) error {
	ctx, span := tracer.Start(ctx, "postgres.OrganizationRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(org).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update organization: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.OrganizationRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Organization{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) List(ctx context.Context, pagination repository.Pagination) (*repository.PagedResult[*entity.Organization], error) {
	ctx, span := tracer.Start(ctx, "postgres.OrganizationRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Organization{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count organizations: %w", err)
	}

	var orgs []*entity.Organization
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&orgs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	return repository.NewPagedResult(orgs, total, pagination), nil
}

type MembershipRepository struct {
	client *Client
}

func NewMembershipRepository(client *Client) *MembershipRepository {
	return &MembershipRepository{client: client}
}

func (r *MembershipRepository) Create(ctx context.Context, membership *entity.Membership) error {
	ctx, span := tracer.Start(ctx, "postgres.MembershipRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(membership).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

func (r *MembershipRepository) GetByOrgAndUser(ctx context.Context, organizationID, userID string) (*entity.Membership, error) {
	ctx, span := tracer.Start(ctx, "postgres.MembershipRepository.GetByOrgAndUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var membership entity.Membership
	if err := db.First(&membership, "organization_id = ? AND user_id = ?", organizationID, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &membership, nil
}

func (r *MembershipRepository) HasRequiredRole(ctx context.Context, organizationID, userID string, required entity.MemberRole) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.MembershipRepository.HasRequiredRole")
	defer span.End()

	membership, err := r.GetByOrgAndUser(ctx, organizationID, userID)
	if err != nil {
		return false, err
	}
	if membership == nil {
		return false, nil
	}
	return membership.HasRequiredRole(required), nil
}

func (r *MembershipRepository) UpdateRole(ctx context.Context, organizationID, userID string, role entity.MemberRole) error {
	ctx, span := tracer.Start(ctx, "postgres.MembershipRepository.UpdateRole")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Model(&entity.Membership{}).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Update("role", role).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update membership role: %w", err)
	}
	return nil
}

func (r *MembershipRepository) Delete(ctx context.Context, organizationID, userID string) error {
	ctx, span := tracer.Start(ctx, "postgres.MembershipRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Delete(&entity.Membership{}, "organization_id = ? AND user_id = ?", organizationID, userID).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	return nil
}

func (r *MembershipRepository) ListByOrganization(ctx context.Context, organizationID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Membership], error) {
	ctx, span := tracer.Start(ctx, "postgres.MembershipRepository.ListByOrganization")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Membership{}).Where("organization_id = ?", organizationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count memberships: %w", err)
	}

	var memberships []*entity.Membership
	if err := query.Order("created_at ASC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&memberships).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	return repository.NewPagedResult(memberships, total, pagination), nil
}
