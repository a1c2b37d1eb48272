// Package handler 提供 HTTP 请求处理器
package handler

import (
	"net/http"

	"parithera-api/internal/application/chat"
	"parithera-api/internal/domain/repository"
	"parithera-api/internal/interfaces/http/dto"
	"parithera-api/internal/interfaces/http/middleware"
	"parithera-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ChatHandler 对话处理器
type ChatHandler struct {
	orchestrator *chat.Orchestrator
	service      *chat.Service
	projectRepo  repository.ProjectRepository
	chatRepo     repository.ChatRepository
}

// NewChatHandler 创建对话处理器
func NewChatHandler(orchestrator *chat.Orchestrator, service *chat.Service, projectRepo repository.ProjectRepository, chatRepo repository.ChatRepository) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		service:      service,
		projectRepo:  projectRepo,
		chatRepo:     chatRepo,
	}
}

// Ask 发起一轮对话
// @Summary 发起对话
// @Description 对项目发起一轮分析对话，由智能体选择 RAG 回答或生成并执行分析脚本
// @Tags Chat
// @Accept json
// @Produce json
// @Param oid path string true "组织 ID"
// @Param pid path string true "项目 ID"
// @Param body body dto.ChatAskRequest true "对话请求"
// @Success 200 {object} dto.ChatTurnResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/organizations/{oid}/projects/{pid}/chat/ask [post]
func (h *ChatHandler) Ask(c *gin.Context) {
	ctx := c.Request.Context()
	orgID := dto.BindOrganizationID(c)
	projectID := dto.BindProjectID(c)
	userID := middleware.GetUserIDFromGin(c)

	var req dto.ChatAskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	project, err := h.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		respondError(c, err, "failed to get project")
		return
	}
	if project == nil || project.OrganizationID != orgID {
		dto.NotFound(c, "project not found")
		return
	}

	msg, respType, err := h.orchestrator.HandleTurn(ctx, chat.TurnRequest{
		OrganizationID: orgID,
		ProjectID:      projectID,
		UserID:         userID,
		Request:        req.Request,
	}, chat.NopEmitter{})
	if err != nil {
		respondError(c, err, "failed to handle chat turn")
		return
	}

	c.JSON(http.StatusOK, dto.ChatTurnResponse{
		Data: dto.ToMessageResponse(msg),
		Type: string(respType),
	})
}

// History 获取对话历史
// @Summary 获取对话历史
// @Description 返回项目的完整对话历史，消息按最新在前排列，产物引用解析为内联数据
// @Tags Chat
// @Accept json
// @Produce json
// @Param oid path string true "组织 ID"
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[dto.ChatHistoryResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/organizations/{oid}/projects/{pid}/chat/history [get]
func (h *ChatHandler) History(c *gin.Context) {
	ctx := c.Request.Context()
	orgID := dto.BindOrganizationID(c)
	projectID := dto.BindProjectID(c)

	project, err := h.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		respondError(c, err, "failed to get project")
		return
	}
	if project == nil || project.OrganizationID != orgID {
		dto.NotFound(c, "project not found")
		return
	}

	chatEntity, err := h.chatRepo.GetByProject(ctx, projectID)
	if err != nil {
		respondError(c, err, "failed to get chat history")
		return
	}
	if chatEntity == nil {
		dto.NotFound(c, "chat not found")
		return
	}

	resolved := h.service.ResolveForRead(ctx, orgID, chatEntity)

	logger.Info(ctx, "chat history served",
		"project_id", projectID,
		"messages", len(resolved.Messages),
	)

	dto.Success(c, dto.ToChatHistoryResponse(resolved))
}
