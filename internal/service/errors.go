package service

import (
	"errors"

	"go.uber.org/zap"

	"grouplink-go/internal/apperrors"
)

// internalError 业务错误原样返回，其余错误记录日志后转换为 system_error
func internalError(logger *zap.Logger, msg string, err error, fields ...zap.Field) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	logger.Error(msg, append(fields, zap.Error(err))...)
	return apperrors.SystemError(err)
}
