// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"parithera-api/internal/domain/entity"
)

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description" binding:"max=5000"`
}

// ToProjectEntity 构建项目实体
func (r *CreateProjectRequest) ToProjectEntity(organizationID, ownerID string) *entity.Project {
	project := entity.NewProject(organizationID, ownerID, r.Name)
	project.Description = r.Description
	return project
}

// UpdateProjectRequest 更新项目请求
type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,max=255"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=5000"`
}

// LinkSampleRequest 项目关联样本请求
type LinkSampleRequest struct {
	SampleID string `json:"sample_id" binding:"required,uuid"`
}

// ProjectResponse 项目响应
type ProjectResponse struct {
	ID             string           `json:"id"`
	OrganizationID string           `json:"organization_id"`
	OwnerID        string           `json:"owner_id,omitempty"`
	Name           string           `json:"name"`
	Description    string           `json:"description,omitempty"`
	Samples        []SampleResponse `json:"samples,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ProjectListResponse 项目列表响应
type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

// ToProjectResponse 转换项目实体
func ToProjectResponse(project *entity.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:             project.ID,
		OrganizationID: project.OrganizationID,
		OwnerID:        project.OwnerID,
		Name:           project.Name,
		Description:    project.Description,
		CreatedAt:      project.CreatedAt,
		UpdatedAt:      project.UpdatedAt,
	}
	for i := range project.Samples {
		resp.Samples = append(resp.Samples, ToSampleResponse(&project.Samples[i]))
	}
	return resp
}

// ToProjectListResponse 转换项目列表
func ToProjectListResponse(projects []*entity.Project) ProjectListResponse {
	out := ProjectListResponse{Projects: make([]ProjectResponse, 0, len(projects))}
	for _, p := range projects {
		out.Projects = append(out.Projects, ToProjectResponse(p))
	}
	return out
}
