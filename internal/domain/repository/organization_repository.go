// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"parithera-api/internal/domain/entity"
)

// OrganizationRepository 组织仓储接口
type OrganizationRepository interface {
	// Create 创建组织
	Create(ctx context.Context, org *entity.Organization) error

	// GetByID 根据 ID 获取组织
	GetByID(ctx context.Context, id string) (*entity.Organization, error)

	// Update 更新组织
	Update(ctx context.Context, org *entity.Organization) error

	// Delete 删除组织
	Delete(ctx context.Context, id string) error

	// List 获取组织列表
	List(ctx context.Context, pagination Pagination) (*PagedResult[*entity.Organization], error)
}

// MembershipRepository 组织成员仓储接口
type MembershipRepository interface {
	// Create 创建成员关系
	Create(ctx context.Context, membership *entity.Membership) error

	// GetByOrgAndUser 获取指定组织中某用户的成员关系
	GetByOrgAndUser(ctx context.Context, organizationID, userID string) (*entity.Membership, error)

	// HasRequiredRole 检查用户在组织中的角色是否满足要求
	HasRequiredRole(ctx context.Context, organizationID, userID string, required entity.MemberRole) (bool, error)

	// UpdateRole 更新成员角色
	UpdateRole(ctx context.Context, organizationID, userID string, role entity.MemberRole) error

	// Delete 移除成员
	Delete(ctx context.Context, organizationID, userID string) error

	// ListByOrganization 获取组织成员列表
	ListByOrganization(ctx context.Context, organizationID string, pagination Pagination) (*PagedResult[*entity.Membership], error)
}
