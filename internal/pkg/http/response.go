package http

import (
	"github.com/gin-gonic/gin"
)

// 业务错误码，前三位与 HTTP 状态码一致
const (
	CodeOK            = 0
	CodeBadRequest    = 40001 // 请求体无法解析
	CodeInvalidInput  = 40002 // 参数校验失败
	CodeStateConflict = 40003 // 会话或订单当前状态不允许该操作
	CodeUnauthorized  = 40101 // 缺少 Authorization 或格式错误
	CodeInvalidToken  = 40102 // Token 无效或过期
	CodeNotFound      = 40401
	CodeConflict      = 40901 // 并发修改冲突或会话繁忙
	CodeInternal      = 50001
)

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// SuccessResponse 成功响应，Code 恒为 0
type SuccessResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(message string, data any) *SuccessResponse {
	return &SuccessResponse{Code: CodeOK, Message: message, Data: data}
}

// NewErrorResponse 创建错误响应，detail 只取第一个非空值
func NewErrorResponse(code int, message string, detail ...string) *ErrorResponse {
	resp := &ErrorResponse{Code: code, Message: message}
	if len(detail) > 0 && detail[0] != "" {
		resp.Detail = detail[0]
	}
	return resp
}

// OK 写入成功响应
func OK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, NewSuccessResponse(message, data))
}

// Fail 写入错误响应并终止后续中间件
func Fail(c *gin.Context, status, code int, message string, detail ...string) {
	c.AbortWithStatusJSON(status, NewErrorResponse(code, message, detail...))
}
