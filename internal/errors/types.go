package errors

import (
	"errors"
	"fmt"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 配置错误：索引/元数据对缺失或不匹配，缺少必要配置，启动时致命
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// 摄取错误
	ErrCodeExtraction ErrorCode = "EXTRACTION_ERROR" // 单个文档解析失败，跳过不中断
	ErrCodeEmbedding  ErrorCode = "EMBEDDING_ERROR"  // 向量化失败

	// 检索错误：位置越界等索引/元数据错位的防御性信号
	ErrCodeRetrievalIndex ErrorCode = "RETRIEVAL_INDEX_ERROR"

	// 生成错误：模型调用失败，向调用方透传
	ErrCodeGeneration ErrorCode = "GENERATION_ERROR"

	// 通用错误
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeDatabaseError    ErrorCode = "DATABASE_ERROR"
)

// ErrorType 错误类型
type ErrorType int

const (
	ErrorTypeSystem ErrorType = iota
	ErrorTypeBusiness
	ErrorTypeValidation
	ErrorTypeExternal
)

// AppError 应用错误结构体
type AppError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Type    ErrorType   `json:"type"`
	Details interface{} `json:"details,omitempty"`
	Cause   error       `json:"-"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause 添加错误原因
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails 添加错误详情
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// NewConfigurationError 创建配置错误（启动时致命，不重试）
func NewConfigurationError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConfiguration,
		Message: message,
		Type:    ErrorTypeSystem,
	}
}

// NewExtractionError 创建文档解析错误
func NewExtractionError(source string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeExtraction,
		Message: fmt.Sprintf("failed to extract text from %s", source),
		Type:    ErrorTypeExternal,
		Cause:   cause,
	}
}

// NewEmbeddingError 创建向量化错误
func NewEmbeddingError(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeEmbedding,
		Message: "embedding provider call failed",
		Type:    ErrorTypeExternal,
		Cause:   cause,
	}
}

// NewGenerationError 创建生成错误
func NewGenerationError(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeGeneration,
		Message: "generation provider call failed",
		Type:    ErrorTypeExternal,
		Cause:   cause,
	}
}

// NewValidationError 创建验证错误
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidationFailed,
		Message: message,
		Type:    ErrorTypeValidation,
	}
}

// NewNotFoundError 创建资源未找到错误
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Type:    ErrorTypeBusiness,
	}
}

// IsCode 检查错误链中是否包含指定错误码
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetAppError 获取AppError，如果不是则包装为系统错误
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    ErrCodeDatabaseError,
		Message: "internal error",
		Type:    ErrorTypeSystem,
		Cause:   err,
	}
}
