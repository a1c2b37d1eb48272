// Package dto 提供 HTTP 层数据传输对象
package dto

// KnowledgeIndexRequest 知识库文档索引请求
type KnowledgeIndexRequest struct {
	Source string `json:"source" binding:"required,max=512"`
	Topic  string `json:"topic" binding:"max=128"`
	Text   string `json:"text" binding:"required,max=1000000"`
}

// KnowledgeIndexResponse 知识库文档索引结果
type KnowledgeIndexResponse struct {
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
}
