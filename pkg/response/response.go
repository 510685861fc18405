package response

import (
	"net/http"

	apperrors "oasis/pkg/errors"
	"oasis/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CodeOK 成功时的业务码
const CodeOK = "OK"

// Response 统一响应结构
type Response struct {
	Code    string      `json:"code"`            // 业务码：OK 表示成功，其他为错误码
	Message string      `json:"message"`         // 响应消息
	Field   string      `json:"field,omitempty"` // 校验失败的请求字段
	Data    interface{} `json:"data,omitempty"`  // 响应数据
	Error   string      `json:"error,omitempty"` // 错误详情（仅在开发环境显示）
}

// PageData 分页响应数据
type PageData struct {
	Items    interface{} `json:"items"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Total    int64       `json:"total"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeOK,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带自定义消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeOK,
		Message: message,
		Data:    data,
	})
}

// Created 201响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    CodeOK,
		Message: "created",
		Data:    data,
	})
}

// Page 分页成功响应
func Page(c *gin.Context, items interface{}, page, pageSize int, total int64) {
	Success(c, PageData{Items: items, Page: page, PageSize: pageSize, Total: total})
}

// FromError 按业务错误码映射HTTP状态并输出错误响应
func FromError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = &apperrors.AppError{Code: apperrors.CodeInternal, Message: "internal server error", Cause: err}
	}

	status := StatusOf(appErr.Code)
	if status >= http.StatusInternalServerError {
		logger.Error("请求处理失败",
			zap.String("request_id", logger.GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}

	resp := Response{
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Field:   appErr.Field,
	}
	// 在开发环境下显示错误详情
	if gin.Mode() == gin.DebugMode && appErr.Cause != nil {
		resp.Error = appErr.Cause.Error()
	}
	c.AbortWithStatusJSON(status, resp)
}

// StatusOf 业务错误码对应的HTTP状态码
func StatusOf(code apperrors.Code) int {
	switch code {
	case apperrors.CodeInvalidArgument:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeAlreadyExists, apperrors.CodeAlreadyFriends, apperrors.CodeAlreadyProcessed:
		return http.StatusConflict
	case apperrors.CodePermissionDenied:
		return http.StatusForbidden
	case apperrors.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// BadRequest 400错误
func BadRequest(c *gin.Context, message string) {
	FromError(c, apperrors.InvalidArg(message))
}

// BadField 400错误（指明字段）
func BadField(c *gin.Context, field, message string) {
	FromError(c, apperrors.InvalidField(field, message))
}

// Unauthorized 401错误
func Unauthorized(c *gin.Context, message string) {
	FromError(c, apperrors.Unauthenticated(message))
}

// Forbidden 403错误
func Forbidden(c *gin.Context, message string) {
	FromError(c, apperrors.Forbidden(message))
}

// NotFound 404错误
func NotFound(c *gin.Context, message string) {
	FromError(c, apperrors.NotFound(message))
}
