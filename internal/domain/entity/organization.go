// Package entity 定义领域实体
package entity

import (
	"time"
)

// MemberRole 组织成员角色
type MemberRole string

const (
	MemberRoleOwner     MemberRole = "owner"
	MemberRoleAdmin     MemberRole = "admin"
	MemberRoleModerator MemberRole = "moderator"
	MemberRoleUser      MemberRole = "user"
)

// roleRank 角色权限等级，数值越大权限越高
var roleRank = map[MemberRole]int{
	MemberRoleUser:      1,
	MemberRoleModerator: 2,
	MemberRoleAdmin:     3,
	MemberRoleOwner:     4,
}

// AtLeast 判断角色权限是否不低于 required
func (r MemberRole) AtLeast(required MemberRole) bool {
	return roleRank[r] >= roleRank[required]
}

// Valid 判断角色是否合法
func (r MemberRole) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// OrganizationStatus 组织状态
type OrganizationStatus string

const (
	OrganizationStatusActive    OrganizationStatus = "active"
	OrganizationStatusSuspended OrganizationStatus = "suspended"
	OrganizationStatusDeleted   OrganizationStatus = "deleted"
)

// Organization 组织实体，所有数据按组织隔离
type Organization struct {
	ID          string             `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string             `json:"name" gorm:"type:varchar(255);not null"`
	Description string             `json:"description,omitempty" gorm:"type:text"`
	Status      OrganizationStatus `json:"status" gorm:"type:varchar(32);default:'active'"`
	CreatedAt   time.Time          `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time          `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Organization) TableName() string {
	return "organizations"
}

// NewOrganization 创建新组织
func NewOrganization(name, description string) *Organization {
	now := time.Now()
	return &Organization{
		Name:        name,
		Description: description,
		Status:      OrganizationStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsActive 检查组织是否活跃
func (o *Organization) IsActive() bool {
	return o.Status == OrganizationStatusActive
}

// Membership 组织成员关系
type Membership struct {
	ID             string     `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID string     `json:"organization_id" gorm:"type:uuid;index:idx_memberships_org_user,unique;not null"`
	UserID         string     `json:"user_id" gorm:"type:uuid;index:idx_memberships_org_user,unique;not null"`
	Role           MemberRole `json:"role" gorm:"type:varchar(32);not null;default:'user'"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Membership) TableName() string {
	return "memberships"
}

// NewMembership 创建成员关系
func NewMembership(organizationID, userID string, role MemberRole) *Membership {
	now := time.Now()
	if !role.Valid() {
		role = MemberRoleUser
	}
	return &Membership{
		OrganizationID: organizationID,
		UserID:         userID,
		Role:           role,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// HasRequiredRole 判断成员角色是否满足要求
func (m *Membership) HasRequiredRole(required MemberRole) bool {
	return m.Role.AtLeast(required)
}
