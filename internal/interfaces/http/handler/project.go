// Package handler 提供 HTTP 请求处理器
package handler

import (
	"parithera-api/internal/domain/repository"
	"parithera-api/internal/interfaces/http/dto"
	"parithera-api/internal/interfaces/http/middleware"
	"parithera-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ProjectHandler 项目处理器
type ProjectHandler struct {
	projectRepo repository.ProjectRepository
	sampleRepo  repository.SampleRepository
	chatRepo    repository.ChatRepository
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(projectRepo repository.ProjectRepository, sampleRepo repository.SampleRepository, chatRepo repository.ChatRepository) *ProjectHandler {
	return &ProjectHandler{
		projectRepo: projectRepo,
		sampleRepo:  sampleRepo,
		chatRepo:    chatRepo,
	}
}

// ListProjects 获取项目列表
// @Summary 获取项目列表
// @Description 获取组织内的项目列表
// @Tags Projects
// @Accept json
// @Produce json
// @Param oid path string true "组织 ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[dto.ProjectListResponse]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/organizations/{oid}/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	ctx := c.Request.Context()
	orgID := dto.BindOrganizationID(c)

	pageReq := dto.BindPage(c)

	result, err := h.projectRepo.ListByOrganization(ctx, orgID, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		respondError(c, err, "failed to list projects")
		return
	}

	resp := dto.ToProjectListResponse(result.Items)
	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total))
	dto.SuccessWithPage(c, resp, meta)
}

// CreateProject 创建项目
// @Summary 创建项目
// @Description 在组织内创建新的分析项目
// @Tags Projects
// @Accept json
// @Produce json
// @Param oid path string true "组织 ID"
// @Param body body dto.CreateProjectRequest true "项目信息"
// @Success 201 {object} dto.Response[dto.ProjectResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/organizations/{oid}/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	ctx := c.Request.Context()
	orgID := dto.BindOrganizationID(c)
	userID := middleware.GetUserIDFromGin(c)

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	project := req.ToProjectEntity(orgID, userID)

	if err := h.projectRepo.Create(ctx, project); err != nil {
		respondError(c, err, "failed to create project")
		return
	}

	logger.Info(ctx, "project created",
		"project_id", project.ID,
		"organization_id", orgID,
	)

	resp := dto.ToProjectResponse(project)
	dto.Created(c, resp)
}

// GetProject 获取项目详情
// @Summary 获取项目详情
// @Description 获取指定项目及其关联样本
// @Tags Projects
// @Accept json
// @Produce json
// @Param oid path string true "组织 ID"
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[dto.ProjectResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/organizations/{oid}/projects/{pid} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	ctx := c.Request.Context()
	orgID := dto.BindOrganizationID(c)
	projectID := dto.BindProjectID(c)

	project, err := h.projectRepo.GetByIDWithSamples(ctx, projectID)
	if err != nil {
		respondError(c, err, "failed to get project")
		return
	}
	if project == nil || project.OrganizationID != orgID {
		dto.NotFound(c, "project not found")
		return
	}

	resp := dto.ToProjectResponse(project)
	dto.Success(c, resp)
}

// UpdateProject 更新项目
// @Summary 更新项目
// @Description 更新项目名称或描述
// @Tags Projects
// @Accept json
// @Produce json
// @Param oid path string true "组织 ID"
// @Param pid path string true "项目 ID"
// @Param body body dto.UpdateProjectRequest true "更新内容"
// @Success 200 {object} dto.Response[dto.ProjectResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/organizations/{oid}/projects/{pid} [put]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	ctx := c.Request.Context()
	orgID := dto.BindOrganizationID(c)
	projectID := dto.BindProjectID(c)

	var req dto.UpdateProjectRequest
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

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}

	if err := h.projectRepo.Update(ctx, project); err != nil {
		respondError(c, err, "failed to update project")
		return
	}

	resp := dto.ToProjectResponse(project)
	dto.Success(c, resp)
}

// DeleteProject 删除项目
// @Summary 删除项目
// @Description 删除项目及其对话历史，样本本身保留
// @Tags Projects
// @Accept json
// @Produce json
// @Param oid path string true "组织 ID"
// @Param pid path string true "项目 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/organizations/{oid}/projects/{pid} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
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

	if err := h.chatRepo.DeleteByProject(ctx, projectID); err != nil {
		respondError(c, err, "failed to delete project chat")
		return
	}
	if err := h.projectRepo.Delete(ctx, projectID); err != nil {
		respondError(c, err, "failed to delete project")
		return
	}

	logger.Info(ctx, "project deleted",
		"project_id", projectID,
		"organization_id", orgID,
	)

	dto.NoContent(c)
}

// LinkSample 关联样本到项目
// @Summary 关联样本
// @Description 将组织内的样本关联到项目
// @Tags Projects
// @Accept json
// @Produce json
// @Param oid path string true "组织 ID"
// @Param pid path string true "项目 ID"
// @Param body body dto.LinkSampleRequest true "样本 ID"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/organizations/{oid}/projects/{pid}/samples [post]
func (h *ProjectHandler) LinkSample(c *gin.Context) {
	ctx := c.Request.Context()
	orgID := dto.BindOrganizationID(c)
	projectID := dto.BindProjectID(c)

	var req dto.LinkSampleRequest
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

	sample, err := h.sampleRepo.GetByID(ctx, req.SampleID)
	if err != nil {
		respondError(c, err, "failed to get sample")
		return
	}
	if sample == nil || sample.OrganizationID != orgID {
		dto.NotFound(c, "sample not found")
		return
	}

	if err := h.projectRepo.LinkSample(ctx, projectID, req.SampleID); err != nil {
		respondError(c, err, "failed to link sample")
		return
	}

	dto.NoContent(c)
}

// UnlinkSample 解除样本与项目的关联
// @Summary 解除样本关联
// @Description 将样本从项目中移除，样本本身保留
// @Tags Projects
// @Accept json
// @Produce json
// @Param oid path string true "组织 ID"
// @Param pid path string true "项目 ID"
// @Param sid path string true "样本 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/organizations/{oid}/projects/{pid}/samples/{sid} [delete]
func (h *ProjectHandler) UnlinkSample(c *gin.Context) {
	ctx := c.Request.Context()
	orgID := dto.BindOrganizationID(c)
	projectID := dto.BindProjectID(c)
	sampleID := dto.BindSampleID(c)

	project, err := h.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		respondError(c, err, "failed to get project")
		return
	}
	if project == nil || project.OrganizationID != orgID {
		dto.NotFound(c, "project not found")
		return
	}

	if err := h.projectRepo.UnlinkSample(ctx, projectID, sampleID); err != nil {
		respondError(c, err, "failed to unlink sample")
		return
	}

	dto.NoContent(c)
}
