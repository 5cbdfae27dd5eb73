package repository

import (
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("[repository]: record not found")
	ErrDuplicateKey = errors.New("[repository]: duplicate key")
)

// ConvertError 把驱动/gorm 错误转换为仓储层错误，其他错误附带调用栈返回
func ConvertError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return ErrDuplicateKey
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	default:
		return errors.WithStack(err)
	}
}

// 驱动未做翻译时的兜底判断
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
