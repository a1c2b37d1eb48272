// Package errors 提供统一的错误定义
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeNotAuthenticated   ErrorCode = "1002"
	CodeNotAuthorized      ErrorCode = "1003"
	CodeNotFound           ErrorCode = "1004"
	CodeConflict           ErrorCode = "1005"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	// 认证授权错误 (2xxx)
	CodeTokenExpired     ErrorCode = "2001"
	CodeTokenInvalid     ErrorCode = "2002"
	CodeTokenMissing     ErrorCode = "2003"
	CodePermissionDenied ErrorCode = "2004"

	// 资源错误 (3xxx)
	CodeOrganizationNotFound ErrorCode = "3001"
	CodeProjectNotFound      ErrorCode = "3002"
	CodeSampleNotFound       ErrorCode = "3003"
	CodeChatNotFound         ErrorCode = "3004"
	CodeAnalysisNotFound     ErrorCode = "3005"
	CodeAnalyzerNotFound     ErrorCode = "3006"
	CodeFileNotFound         ErrorCode = "3007"

	// 对话/代理错误 (4xxx)
	CodeAgentSelectionFailed    ErrorCode = "4001"
	CodeUnknownScriptType       ErrorCode = "4002"
	CodeMalformedScriptResponse ErrorCode = "4003"
	CodeLLMCallFailed           ErrorCode = "4004"
	CodeRetrievalFailed         ErrorCode = "4005"

	// 分析调度错误 (5xxx)
	CodeDispatchError          ErrorCode = "5001"
	CodeAnalysisTimeout        ErrorCode = "5002"
	CodeScriptProducedNoOutput ErrorCode = "5003"

	// 外部服务错误 (6xxx)
	CodeDatabaseError ErrorCode = "6001"
	CodeCacheError    ErrorCode = "6002"
	CodeVectorDBError ErrorCode = "6003"
	CodeStorageError  ErrorCode = "6004"
	CodeQueueError    ErrorCode = "6005"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 支持 errors.Is 按错误码匹配
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail 添加详细信息
func (e *AppError) WithDetail(detail string) *AppError {
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithError 添加底层错误
func (e *AppError) WithError(err error) *AppError {
	clone := *e
	clone.Err = err
	return &clone
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam:
		return http.StatusBadRequest
	case CodeNotAuthenticated, CodeTokenExpired, CodeTokenInvalid, CodeTokenMissing:
		return http.StatusUnauthorized
	case CodeNotAuthorized, CodePermissionDenied:
		return http.StatusForbidden
	case CodeNotFound, CodeOrganizationNotFound, CodeProjectNotFound, CodeSampleNotFound,
		CodeChatNotFound, CodeAnalysisNotFound, CodeAnalyzerNotFound, CodeFileNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrNotAuthenticated   = New(CodeNotAuthenticated, "not authenticated")
	ErrNotAuthorized      = New(CodeNotAuthorized, "not authorized")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrConflict           = New(CodeConflict, "resource conflict")
	ErrTooManyRequests    = New(CodeTooManyRequests, "too many requests")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")

	ErrTokenExpired = New(CodeTokenExpired, "token expired")
	ErrTokenInvalid = New(CodeTokenInvalid, "token invalid")
	ErrTokenMissing = New(CodeTokenMissing, "token missing")

	ErrOrganizationNotFound = New(CodeOrganizationNotFound, "organization not found")
	ErrProjectNotFound      = New(CodeProjectNotFound, "project not found")
	ErrSampleNotFound       = New(CodeSampleNotFound, "sample not found")
	ErrChatNotFound         = New(CodeChatNotFound, "no history")
	ErrAnalysisNotFound     = New(CodeAnalysisNotFound, "analysis not found")
	ErrAnalyzerNotFound     = New(CodeAnalyzerNotFound, "analyzer not found")

	ErrAgentSelectionFailed    = New(CodeAgentSelectionFailed, "cannot choose which agent to launch")
	ErrUnknownScriptType       = New(CodeUnknownScriptType, "error during LLM script decision")
	ErrMalformedScriptResponse = New(CodeMalformedScriptResponse, "no code block found in LLM answer")
	ErrLLMCallFailed           = New(CodeLLMCallFailed, "call to LLM failed")

	ErrDispatchError          = New(CodeDispatchError, "failed to dispatch analysis")
	ErrAnalysisTimeout        = New(CodeAnalysisTimeout, "script failed to execute")
	ErrScriptProducedNoOutput = New(CodeScriptProducedNoOutput, "no output generated by script")
)

// IsAppError 检查是否为 AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}
