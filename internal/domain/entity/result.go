// Package entity 定义领域实体
package entity

import (
	"time"
)

// PluginKind 产出结果的 worker 插件类型
type PluginKind string

const (
	PluginKindPython PluginKind = "python"
)

// AnalysisInfo worker 回写的执行信息
type AnalysisInfo struct {
	Errors []string `json:"errors"`
}

// ResultPayload worker 回写的结果内容
type ResultPayload struct {
	Output       string       `json:"output,omitempty"`
	AnalysisInfo AnalysisInfo `json:"analysis_info"`
}

// Result 单个插件针对一次分析的执行结果
type Result struct {
	ID         string         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AnalysisID string         `json:"analysis_id" gorm:"type:uuid;index:idx_results_analysis_plugin,unique;not null"`
	Plugin     PluginKind     `json:"plugin" gorm:"type:varchar(32);index:idx_results_analysis_plugin,unique;not null"`
	Result     *ResultPayload `json:"result,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt  time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Result) TableName() string {
	return "results"
}

// HasErrors 判断结果是否带有执行错误
func (r *Result) HasErrors() bool {
	return r.Result != nil && len(r.Result.AnalysisInfo.Errors) > 0
}
