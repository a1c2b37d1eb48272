// Package entity 定义领域实体
package entity

import (
	"time"
)

// AnalyzerNamePythonScript Python 脚本执行器的注册名
const AnalyzerNamePythonScript = "execute_python_script"

// Analyzer 分析器实体，描述一种可被调度的分析能力
type Analyzer struct {
	ID             string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID string    `json:"organization_id" gorm:"type:uuid;index;not null"`
	Name           string    `json:"name" gorm:"type:varchar(255);index;not null"`
	Description    string    `json:"description,omitempty" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Analyzer) TableName() string {
	return "analyzers"
}

// NewAnalyzer 创建新分析器
func NewAnalyzer(organizationID, name, description string) *Analyzer {
	now := time.Now()
	return &Analyzer{
		OrganizationID: organizationID,
		Name:           name,
		Description:    description,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
