// Package handler 提供 HTTP 请求处理器
package handler

import (
	"net/http"

	"parithera-api/internal/application/retrieval"
	"parithera-api/internal/interfaces/http/dto"
	"parithera-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// KnowledgeHandler 知识库管理处理器
type KnowledgeHandler struct {
	engine *retrieval.Engine
}

// NewKnowledgeHandler 创建知识库处理器
func NewKnowledgeHandler(engine *retrieval.Engine) *KnowledgeHandler {
	return &KnowledgeHandler{engine: engine}
}

// Index 索引知识库文档
// @Summary 索引知识库文档
// @Description 将文档切片、向量化后写入组织的知识库。同一来源重复提交时覆盖旧片段。
// @Tags Knowledge
// @Accept json
// @Produce json
// @Param oid path string true "组织 ID"
// @Param body body dto.KnowledgeIndexRequest true "文档内容"
// @Success 200 {object} dto.Response[dto.KnowledgeIndexResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/organizations/{oid}/knowledge [post]
func (h *KnowledgeHandler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	orgID := dto.BindOrganizationID(c)

	var req dto.KnowledgeIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if !h.engine.Enabled() {
		dto.Error(c, http.StatusServiceUnavailable, "knowledge retrieval is not configured")
		return
	}

	count, err := h.engine.Index(ctx, retrieval.IndexInput{
		OrganizationID: orgID,
		Source:         req.Source,
		Topic:          req.Topic,
		Text:           req.Text,
	})
	if err != nil {
		respondError(c, err, "failed to index knowledge document")
		return
	}

	logger.Info(ctx, "knowledge document indexed",
		"organization_id", orgID,
		"source", req.Source,
		"chunks", count,
	)

	dto.Success(c, dto.KnowledgeIndexResponse{Source: req.Source, Chunks: count})
}
