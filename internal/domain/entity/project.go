// Package entity 定义领域实体
package entity

import (
	"time"
)

// Project 项目实体，样本与对话均挂在项目下
type Project struct {
	ID             string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID string    `json:"organization_id" gorm:"type:uuid;index;not null"`
	OwnerID        string    `json:"owner_id,omitempty" gorm:"type:uuid;index"`
	Name           string    `json:"name" gorm:"type:varchar(255);not null"`
	Description    string    `json:"description,omitempty" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Samples []Sample `json:"samples,omitempty" gorm:"many2many:project_samples"`
}

// TableName 指定表名
func (Project) TableName() string {
	return "projects"
}

// NewProject 创建新项目
func NewProject(organizationID, ownerID, name string) *Project {
	now := time.Now()
	return &Project{
		OrganizationID: organizationID,
		OwnerID:        ownerID,
		Name:           name,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
