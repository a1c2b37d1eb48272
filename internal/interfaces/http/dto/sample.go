// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"parithera-api/internal/domain/entity"
)

// CreateSampleRequest 创建样本请求
type CreateSampleRequest struct {
	Name        string   `json:"name" binding:"required,max=255"`
	Description string   `json:"description" binding:"max=5000"`
	Condition   string   `json:"condition" binding:"max=255"`
	Organism    string   `json:"organism" binding:"max=255"`
	Assay       string   `json:"assay" binding:"max=255"`
	Cells       int64    `json:"cells" binding:"min=0"`
	Tags        []string `json:"tags" binding:"max=32,dive,max=64"`
}

// ToSampleEntity 构建样本实体
func (r *CreateSampleRequest) ToSampleEntity(organizationID, uploaderID string) *entity.Sample {
	sample := entity.NewSample(organizationID, uploaderID, r.Name)
	sample.Description = r.Description
	sample.Condition = r.Condition
	sample.Organism = r.Organism
	sample.Assay = r.Assay
	sample.Cells = r.Cells
	sample.Tags = r.Tags
	return sample
}

// SampleFileResponse 样本文件响应
type SampleFileResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// SampleResponse 样本响应
type SampleResponse struct {
	ID             string               `json:"id"`
	OrganizationID string               `json:"organization_id"`
	UploaderID     string               `json:"uploader_id,omitempty"`
	Name           string               `json:"name"`
	Description    string               `json:"description,omitempty"`
	Condition      string               `json:"condition,omitempty"`
	Organism       string               `json:"organism,omitempty"`
	Assay          string               `json:"assay,omitempty"`
	Cells          int64                `json:"cells,omitempty"`
	Tags           []string             `json:"tags,omitempty"`
	Files          []SampleFileResponse `json:"files,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// SampleListResponse 样本列表响应
type SampleListResponse struct {
	Samples []SampleResponse `json:"samples"`
}

// ToSampleResponse 转换样本实体
func ToSampleResponse(sample *entity.Sample) SampleResponse {
	resp := SampleResponse{
		ID:             sample.ID,
		OrganizationID: sample.OrganizationID,
		UploaderID:     sample.UploaderID,
		Name:           sample.Name,
		Description:    sample.Description,
		Condition:      sample.Condition,
		Organism:       sample.Organism,
		Assay:          sample.Assay,
		Cells:          sample.Cells,
		Tags:           sample.Tags,
		CreatedAt:      sample.CreatedAt,
		UpdatedAt:      sample.UpdatedAt,
	}
	for _, f := range sample.Files {
		resp.Files = append(resp.Files, SampleFileResponse{
			ID:        f.ID,
			Name:      f.Name,
			Type:      string(f.Type),
			SizeBytes: f.SizeBytes,
			CreatedAt: f.CreatedAt,
		})
	}
	return resp
}

// ToSampleListResponse 转换样本列表
func ToSampleListResponse(samples []*entity.Sample) SampleListResponse {
	out := SampleListResponse{Samples: make([]SampleResponse, 0, len(samples))}
	for _, s := range samples {
		out.Samples = append(out.Samples, ToSampleResponse(s))
	}
	return out
}
