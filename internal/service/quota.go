package service

import (
	"context"

	"grouplink-go/internal/apperrors"
	"grouplink-go/internal/repository"
)

// QuotaGuard 在写入前检查配额。调用方必须已在同一事务中锁住父记录
// （分组行或 owner 行），计数与写入之间才不会被并发请求插入。
type QuotaGuard struct {
	MaxGroupsPerOwner int
	MaxLinksPerGroup  int
}

// CheckGroupCount 用户已有分组数达到上限时拒绝
func (q QuotaGuard) CheckGroupCount(ctx context.Context, tx *repository.Store, ownerID string) error {
	count, err := tx.Groups.CountByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	if count >= int64(q.MaxGroupsPerOwner) {
		return apperrors.GroupQuotaExceeded(q.MaxGroupsPerOwner)
	}
	return nil
}

// CheckGroupCapacity 分组内链接数达到上限时拒绝
func (q QuotaGuard) CheckGroupCapacity(ctx context.Context, tx *repository.Store, groupID uint) error {
	count, err := tx.Links.CountByGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if count >= int64(q.MaxLinksPerGroup) {
		return apperrors.GroupLinkQuotaExceeded(q.MaxLinksPerGroup)
	}
	return nil
}
