// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// CollectionKnowledgeChunks 单细胞分析知识库片段集合
	CollectionKnowledgeChunks = "knowledge_chunks"

	// VectorDimension 向量维度
	VectorDimension = 1024
)

// KnowledgeChunksSchema 知识库片段 Collection Schema
func KnowledgeChunksSchema() *entity.Schema {
	return &entity.Schema{
		CollectionName: CollectionKnowledgeChunks,
		Description:    "Single-cell analysis knowledge chunks for semantic search",
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": "1024",
				},
			},
			{
				Name:     "organization_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "topic",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "source",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "256",
				},
			},
			{
				Name:     "text_content",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
		},
	}
}

// KnowledgeChunk 知识库片段数据结构
type KnowledgeChunk struct {
	ID             string    `json:"id"`
	Vector         []float32 `json:"vector"`
	OrganizationID string    `json:"organization_id"`
	Topic          string    `json:"topic"`
	Source         string    `json:"source"`
	TextContent    string    `json:"text_content"`
}

// PartitionName 生成组织分区名称
func PartitionName(organizationID string) string {
	return "org_" + organizationID
}
