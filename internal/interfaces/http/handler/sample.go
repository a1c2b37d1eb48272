// Package handler 提供 HTTP 请求处理器
package handler

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"parithera-api/internal/domain/entity"
	"parithera-api/internal/domain/repository"
	"parithera-api/internal/infrastructure/persistence/redis"
	"parithera-api/internal/infrastructure/storage"
	"parithera-api/internal/interfaces/http/dto"
	"parithera-api/internal/interfaces/http/middleware"
	"parithera-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// qcCacheTTL QC 数据缓存时长
const qcCacheTTL = 30 * time.Minute

// SampleHandler 样本处理器
type SampleHandler struct {
	sampleRepo repository.SampleRepository
	store      *storage.Store
	uploader   storage.Uploader
	cache      *redis.Cache
}

// NewSampleHandler 创建样本处理器，cache 可为 nil
func NewSampleHandler(sampleRepo repository.SampleRepository, store *storage.Store, uploader storage.Uploader, cache *redis.Cache) *SampleHandler {
	return &SampleHandler{
		sampleRepo: sampleRepo,
		store:      store,
		uploader:   uploader,
		cache:      cache,
	}
}

// ListSamples 获取样本列表
// @Summary 获取样本列表
// @Description 获取组织内的样本列表
// @Tags Samples
// @Accept json
// @Produce json
// @Param oid path string true "组织 ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[dto.SampleListResponse]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/organizations/{oid}/samples [get]
func (h *SampleHandler) ListSamples(c *gin.Context) {
	ctx := c.Request.Context()
	orgID := dto.BindOrganizationID(c)

	pageReq := dto.BindPage(c)

	result, err := h.sampleRepo.ListByOrganization(ctx, orgID, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		respondError(c, err, "failed to list samples")
		return
	}

	resp := dto.ToSampleListResponse(result.Items)
	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total))
	dto.SuccessWithPage(c, resp, meta)
}

// CreateSample 创建样本
// @Summary 创建样本
// @Description 登记新样本并初始化其存储目录
// @Tags Samples
// @Accept json
// @Produce json
// @Param oid path string true "组织 ID"
// @Param body body dto.CreateSampleRequest true "样本信息"
// @Success 201 {object} dto.Response[dto.SampleResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/organizations/{oid}/samples [post]
func (h *SampleHandler) CreateSample(c *gin.Context) {
	ctx := c.Request.Context()
	orgID := dto.BindOrganizationID(c)
	userID := middleware.GetUserIDFromGin(c)

	var req dto.CreateSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	sample := req.ToSampleEntity(orgID, userID)

	if err := h.sampleRepo.Create(ctx, sample); err != nil {
		respondError(c, err, "failed to create sample")
		return
	}

	if err := h.store.EnsureSampleDirs(ctx, orgID, sample.ID); err != nil {
		respondError(c, err, "failed to prepare sample storage")
		return
	}

	logger.Info(ctx, "sample created",
		"sample_id", sample.ID,
		"organization_id", orgID,
	)

	resp := dto.ToSampleResponse(sample)
	dto.Created(c, resp)
}

// GetSample 获取样本详情
// @Summary 获取样本详情
// @Description 获取指定样本及其文件列表
// @Tags Samples
// @Accept json
// @Produce json
// @Param oid path string true "组织 ID"
// @Param sid path string true "样本 ID"
// @Success 200 {object} dto.Response[dto.SampleResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/organizations/{oid}/samples/{sid} [get]
func (h *SampleHandler) GetSample(c *gin.Context) {
	ctx := c.Request.Context()
	orgID := dto.BindOrganizationID(c)
	sampleID := dto.BindSampleID(c)

	sample, err := h.sampleRepo.GetByID(ctx, sampleID)
	if err != nil {
		respondError(c, err, "failed to get sample")
		return
	}
	if sample == nil || sample.OrganizationID != orgID {
		dto.NotFound(c, "sample not found")
		return
	}

	resp := dto.ToSampleResponse(sample)
	dto.Success(c, resp)
}

// DeleteSample 删除样本
// @Summary 删除样本
// @Description 删除样本记录、存储目录与相关缓存
// @Tags Samples
// @Accept json
// @Produce json
// @Param oid path string true "组织 ID"
// @Param sid path string true "样本 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/organizations/{oid}/samples/{sid} [delete]
func (h *SampleHandler) DeleteSample(c *gin.Context) {
	ctx := c.Request.Context()
	orgID := dto.BindOrganizationID(c)
	sampleID := dto.BindSampleID(c)

	sample, err := h.sampleRepo.GetByID(ctx, sampleID)
	if err != nil {
		respondError(c, err, "failed to get sample")
		return
	}
	if sample == nil || sample.OrganizationID != orgID {
		dto.NotFound(c, "sample not found")
		return
	}

	if err := h.sampleRepo.Delete(ctx, sampleID); err != nil {
		respondError(c, err, "failed to delete sample")
		return
	}

	if err := h.store.RemoveSampleDirs(ctx, orgID, sampleID); err != nil {
		logger.Warn(ctx, "failed to remove sample storage",
			"sample_id", sampleID,
			"error", err.Error(),
		)
	}

	if h.cache != nil {
		if err := h.cache.InvalidateSample(ctx, orgID, sampleID); err != nil {
			logger.Warn(ctx, "failed to invalidate sample cache",
				"sample_id", sampleID,
				"error", err.Error(),
			)
		}
	}

	logger.Info(ctx, "sample deleted",
		"sample_id", sampleID,
		"organization_id", orgID,
	)

	dto.NoContent(c)
}

// UploadFile 上传样本文件
// @Summary 上传样本文件
// @Description 以 multipart 方式上传测序文件并登记到样本
// @Tags Samples
// @Accept multipart/form-data
// @Produce json
// @Param oid path string true "组织 ID"
// @Param sid path string true "样本 ID"
// @Param file formData file true "测序文件"
// @Success 201 {object} dto.Response[dto.SampleFileResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/organizations/{oid}/samples/{sid}/files [post]
func (h *SampleHandler) UploadFile(c *gin.Context) {
	ctx := c.Request.Context()
	orgID := dto.BindOrganizationID(c)
	sampleID := dto.BindSampleID(c)

	sample, err := h.sampleRepo.GetByID(ctx, sampleID)
	if err != nil {
		respondError(c, err, "failed to get sample")
		return
	}
	if sample == nil || sample.OrganizationID != orgID {
		dto.NotFound(c, "sample not found")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		dto.BadRequest(c, "missing file: "+err.Error())
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		dto.BadRequest(c, "failed to open uploaded file: "+err.Error())
		return
	}
	defer src.Close()

	path, err := h.uploader.Upload(ctx, orgID, sampleID, fileHeader.Filename, src)
	if err != nil {
		respondError(c, err, "failed to store uploaded file")
		return
	}

	file := &entity.SampleFile{
		SampleID:  sampleID,
		Name:      filepath.Base(fileHeader.Filename),
		Type:      classifyFileType(fileHeader.Filename),
		SizeBytes: fileHeader.Size,
		Path:      path,
	}
	if err := h.sampleRepo.AddFile(ctx, file); err != nil {
		respondError(c, err, "failed to register uploaded file")
		return
	}

	logger.Info(ctx, "sample file uploaded",
		"sample_id", sampleID,
		"file_name", file.Name,
		"size_bytes", file.SizeBytes,
	)

	dto.Created(c, dto.SampleFileResponse{
		ID:        file.ID,
		Name:      file.Name,
		Type:      string(file.Type),
		SizeBytes: file.SizeBytes,
		CreatedAt: file.CreatedAt,
	})
}

// GetQC 获取样本质控数据
// @Summary 获取质控数据
// @Description 返回样本预处理产出的 QC 图数据，graph 为空时返回全部
// @Tags Samples
// @Accept json
// @Produce json
// @Param oid path string true "组织 ID"
// @Param sid path string true "样本 ID"
// @Param graph query string false "QC 图名称"
// @Success 200 {object} dto.Response[map[string]any]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/organizations/{oid}/samples/{sid}/qc [get]
func (h *SampleHandler) GetQC(c *gin.Context) {
	ctx := c.Request.Context()
	orgID := dto.BindOrganizationID(c)
	sampleID := dto.BindSampleID(c)

	sample, err := h.sampleRepo.GetByID(ctx, sampleID)
	if err != nil {
		respondError(c, err, "failed to get sample")
		return
	}
	if sample == nil || sample.OrganizationID != orgID {
		dto.NotFound(c, "sample not found")
		return
	}

	graph := strings.TrimSpace(c.Query("graph"))

	if graph != "" {
		if !storage.ValidQCGraph(graph) {
			dto.BadRequest(c, "unknown qc graph: "+graph)
			return
		}
		data, err := h.readQCGraph(c, orgID, sampleID, graph)
		if err != nil {
			if os.IsNotExist(err) {
				dto.NotFound(c, "qc data not available for sample")
				return
			}
			respondError(c, err, "failed to read qc data")
			return
		}
		dto.Success(c, map[string]json.RawMessage{graph: data})
		return
	}

	// 无 graph 参数时返回全部可用的 QC 图，缺失的跳过
	out := make(map[string]json.RawMessage, len(storage.QCGraphNames))
	for _, name := range storage.QCGraphNames {
		data, err := h.readQCGraph(c, orgID, sampleID, name)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			respondError(c, err, "failed to read qc data")
			return
		}
		out[name] = data
	}
	if len(out) == 0 {
		dto.NotFound(c, "qc data not available for sample")
		return
	}
	dto.Success(c, out)
}

// readQCGraph 读取单张 QC 图数据，优先走缓存
func (h *SampleHandler) readQCGraph(c *gin.Context, orgID, sampleID, graph string) (json.RawMessage, error) {
	ctx := c.Request.Context()

	if h.cache == nil {
		return h.store.ReadQCGraph(ctx, orgID, sampleID, graph)
	}

	key := redis.BuildQCKey(orgID, sampleID, graph)
	data, err := h.cache.GetOrLoad(ctx, key, qcCacheTTL, func() (interface{}, error) {
		return h.store.ReadQCGraph(ctx, orgID, sampleID, graph)
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// classifyFileType 按文件名推断样本文件类型
func classifyFileType(name string) entity.SampleFileType {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".fastq"), strings.HasSuffix(lower, ".fastq.gz"),
		strings.HasSuffix(lower, ".fq"), strings.HasSuffix(lower, ".fq.gz"):
		return entity.SampleFileTypeFastq
	case strings.HasSuffix(lower, ".h5ad"), strings.HasSuffix(lower, ".mtx"),
		strings.HasSuffix(lower, ".mtx.gz"), strings.HasSuffix(lower, ".h5"):
		return entity.SampleFileTypeMatrix
	default:
		return entity.SampleFileTypeFastq
	}
}
