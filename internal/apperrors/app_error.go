package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// 错误标识，客户端依赖这些稳定的 key 区分错误类型
const (
	KeyInvalidRequest         = "invalid_request"
	KeyInvalidURL             = "invalid_url"
	KeyAliasFormat            = "alias_format_error"
	KeyAliasTaken             = "alias_taken_error"
	KeyGroupNotOwned          = "group_not_owned"
	KeyGroupNotFound          = "group_not_found"
	KeyGroupLinkQuotaExceeded = "group_link_quota_exceeded"
	KeyGroupQuotaExceeded     = "group_quota_exceeded"
	KeyCodeSpaceExhausted     = "code_space_exhausted"
	KeyNotFound               = "not_found"
	KeyNameTaken              = "name_taken_for_owner"
	KeyNameTooLong            = "name_too_long"
	KeyNameEmpty              = "name_empty"
	KeyColor                  = "color_error"
	KeyUnauthorized           = "unauthorized"
	KeySystem                 = "system_error"
)

// AppError 自定义错误类型
type AppError struct {
	Code    int
	Key     string
	Message string
	// Data 填充 i18n 模板，例如配额上限
	Data  map[string]interface{}
	Cause error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is 按 Key 比较，errors.Is(err, apperrors.NotFound()) 即可判断类型
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Key == t.Key
}

// WithCause 附带底层错误
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

// WithCode 创建通用业务错误
func WithCode(code int, key, message string) *AppError {
	return &AppError{
		Code:    code,
		Key:     key,
		Message: message,
	}
}

// KeyOf 返回错误的 key，非 AppError 返回 system_error
func KeyOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Key
	}
	return KeySystem
}

// InvalidRequestError 封装参数校验错误
func InvalidRequestError(message string) *AppError {
	return WithCode(http.StatusBadRequest, KeyInvalidRequest, message)
}

// InvalidRequestErrorDefault 默认参数校验错误
func InvalidRequestErrorDefault() *AppError {
	return InvalidRequestError("Parameter verification failed")
}

// SystemError 封装系统内部错误
func SystemError(cause error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Key:     KeySystem,
		Message: "System error",
		Cause:   cause,
	}
}

func InvalidURL() *AppError {
	return WithCode(http.StatusBadRequest, KeyInvalidURL, "Original link is not a valid URL")
}

func AliasFormat(min, max int) *AppError {
	e := WithCode(http.StatusBadRequest, KeyAliasFormat,
		fmt.Sprintf("Alias must be %d-%d latin letters or digits", min, max))
	e.Data = map[string]interface{}{"Min": min, "Max": max}
	return e
}

func AliasTaken() *AppError {
	return WithCode(http.StatusConflict, KeyAliasTaken, "This code is already taken")
}

func GroupNotOwned() *AppError {
	return WithCode(http.StatusBadRequest, KeyGroupNotOwned, "You are not the owner of this group")
}

func GroupNotFound() *AppError {
	return WithCode(http.StatusBadRequest, KeyGroupNotFound, "Group does not exist")
}

func GroupLinkQuotaExceeded(limit int) *AppError {
	e := WithCode(http.StatusBadRequest, KeyGroupLinkQuotaExceeded,
		fmt.Sprintf("Maximum number of links for this group exceeded: %d", limit))
	e.Data = map[string]interface{}{"Limit": limit}
	return e
}

func GroupQuotaExceeded(limit int) *AppError {
	e := WithCode(http.StatusBadRequest, KeyGroupQuotaExceeded,
		fmt.Sprintf("Maximum number of groups exceeded: %d", limit))
	e.Data = map[string]interface{}{"Limit": limit}
	return e
}

func CodeSpaceExhausted() *AppError {
	return WithCode(http.StatusServiceUnavailable, KeyCodeSpaceExhausted, "Could not allocate a free short code, try again")
}

func NotFound() *AppError {
	return WithCode(http.StatusNotFound, KeyNotFound, "Not found")
}

func NameTaken() *AppError {
	return WithCode(http.StatusConflict, KeyNameTaken, "You already have a group with this name")
}

func NameTooLong(limit int) *AppError {
	e := WithCode(http.StatusBadRequest, KeyNameTooLong, fmt.Sprintf("Group name is longer than %d characters", limit))
	e.Data = map[string]interface{}{"Limit": limit}
	return e
}

func NameEmpty() *AppError {
	return WithCode(http.StatusBadRequest, KeyNameEmpty, "Group name must not be empty")
}

func NoColorsAvailable() *AppError {
	return WithCode(http.StatusConflict, KeyColor, "No colors available for the group")
}

func Unauthorized() *AppError {
	return WithCode(http.StatusUnauthorized, KeyUnauthorized, "Authentication credentials were not provided")
}
