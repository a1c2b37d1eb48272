// Package entity 定义领域实体
package entity

import (
	"time"
)

// AnalysisStatus 分析任务状态
type AnalysisStatus string

const (
	AnalysisStatusRequested AnalysisStatus = "requested"
	AnalysisStatusStarted   AnalysisStatus = "started"
	AnalysisStatusCompleted AnalysisStatus = "completed"
	AnalysisStatusFailure   AnalysisStatus = "failure"
)

// AnalysisConfig 分析配置，随消息下发给 worker
type AnalysisConfig struct {
	Script string  `json:"script,omitempty"`
	Groups []Group `json:"groups,omitempty"`
}

// Analysis 分析任务实体
type Analysis struct {
	ID             string          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID string          `json:"organization_id" gorm:"type:uuid;index;not null"`
	ProjectID      string          `json:"project_id" gorm:"type:uuid;index;not null"`
	AnalyzerID     string          `json:"analyzer_id" gorm:"type:uuid;index;not null"`
	Status         AnalysisStatus  `json:"status" gorm:"type:varchar(32);not null;default:'requested'"`
	Config         *AnalysisConfig `json:"config,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt      time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

// TableName 指定表名
func (Analysis) TableName() string {
	return "analyses"
}

// NewAnalysis 创建新分析任务
func NewAnalysis(organizationID, projectID, analyzerID string, config *AnalysisConfig) *Analysis {
	now := time.Now()
	return &Analysis{
		OrganizationID: organizationID,
		ProjectID:      projectID,
		AnalyzerID:     analyzerID,
		Status:         AnalysisStatusRequested,
		Config:         config,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Start 标记分析开始执行
func (a *Analysis) Start() {
	now := time.Now()
	a.Status = AnalysisStatusStarted
	a.StartedAt = &now
}

// Complete 标记分析完成
func (a *Analysis) Complete() {
	now := time.Now()
	a.Status = AnalysisStatusCompleted
	a.CompletedAt = &now
}

// Fail 标记分析失败
func (a *Analysis) Fail() {
	now := time.Now()
	a.Status = AnalysisStatusFailure
	a.CompletedAt = &now
}

// IsTerminal 判断分析是否到达终态
func (a *Analysis) IsTerminal() bool {
	return a.Status == AnalysisStatusCompleted || a.Status == AnalysisStatusFailure
}
