// Package entity 定义领域实体
package entity

import (
	"time"
)

// SampleFileType 样本文件类型
type SampleFileType string

const (
	SampleFileTypeFastq  SampleFileType = "fastq"
	SampleFileTypeMatrix SampleFileType = "matrix"
)

// SampleFile 样本关联的上传文件
type SampleFile struct {
	ID        string         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SampleID  string         `json:"sample_id" gorm:"type:uuid;index;not null"`
	Name      string         `json:"name" gorm:"type:varchar(512);not null"`
	Type      SampleFileType `json:"type" gorm:"type:varchar(32);not null;default:'fastq'"`
	SizeBytes int64          `json:"size_bytes" gorm:"default:0"`
	Path      string         `json:"path" gorm:"type:varchar(1024)"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (SampleFile) TableName() string {
	return "sample_files"
}

// Sample 测序样本实体
type Sample struct {
	ID             string       `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID string       `json:"organization_id" gorm:"type:uuid;index;not null"`
	UploaderID     string       `json:"uploader_id,omitempty" gorm:"type:uuid;index"`
	Name           string       `json:"name" gorm:"type:varchar(255);not null"`
	Description    string       `json:"description,omitempty" gorm:"type:text"`
	Condition      string       `json:"condition,omitempty" gorm:"type:varchar(255)"`
	Organism       string       `json:"organism,omitempty" gorm:"type:varchar(255)"`
	Assay          string       `json:"assay,omitempty" gorm:"type:varchar(255)"`
	Cells          int64        `json:"cells,omitempty" gorm:"default:0"`
	Tags           []string     `json:"tags,omitempty" gorm:"type:jsonb;serializer:json"`
	Files          []SampleFile `json:"files,omitempty" gorm:"foreignKey:SampleID"`
	CreatedAt      time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Sample) TableName() string {
	return "samples"
}

// NewSample 创建新样本
func NewSample(organizationID, uploaderID, name string) *Sample {
	now := time.Now()
	return &Sample{
		OrganizationID: organizationID,
		UploaderID:     uploaderID,
		Name:           name,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// FileIDs 返回样本全部文件 ID
func (s *Sample) FileIDs() []string {
	ids := make([]string, 0, len(s.Files))
	for _, f := range s.Files {
		ids = append(ids, f.ID)
	}
	return ids
}

// Group 分析分组，按样本构建
type Group struct {
	Name  string   `json:"name"`
	Files []string `json:"files"`
}

// GroupsFromSamples 将项目样本转换为分析分组
func GroupsFromSamples(samples []Sample) []Group {
	groups := make([]Group, 0, len(samples))
	for _, s := range samples {
		groups = append(groups, Group{
			Name:  s.Name,
			Files: s.FileIDs(),
		})
	}
	return groups
}
