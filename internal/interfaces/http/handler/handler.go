// Package handler 提供 HTTP 请求处理器
package handler

import (
	"parithera-api/internal/interfaces/http/dto"
	"parithera-api/pkg/errors"
	"parithera-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// respondError 按 AppError 语义返回错误响应
//
// 非 AppError 的底层错误统一记录日志后返回 500，不向客户端泄露细节。
func respondError(c *gin.Context, err error, fallbackMsg string) {
	if errors.IsAppError(err) {
		appErr := errors.AsAppError(err)
		c.JSON(appErr.HTTPStatus, dto.ErrorResponse{
			Code:    appErr.HTTPStatus,
			Message: appErr.Message,
			Detail:  appErr.Detail,
			TraceID: c.GetString("trace_id"),
		})
		return
	}

	logger.Error(c.Request.Context(), fallbackMsg, err)
	dto.InternalError(c, fallbackMsg)
}
