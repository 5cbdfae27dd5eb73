package service

import (
	"grouplink-go/internal/apperrors"
	"grouplink-go/internal/auth"
	"grouplink-go/internal/model"
)

// OwnershipGuard 所有权检查。对非所有者一律返回 not_found，不暴露资源是否存在
type OwnershipGuard struct{}

// AssertGroupOwnedBy 链接只能放入同一 owner 的分组，ownerID 为空（匿名链接）时总是拒绝
func (OwnershipGuard) AssertGroupOwnedBy(group *model.Group, ownerID string) error {
	if !group.IsOwnedBy(ownerID) {
		return apperrors.GroupNotOwned()
	}
	return nil
}

// AssertLinkMutableBy 只有 owner 或 staff 可以修改链接，匿名请求者不能修改任何链接
func (OwnershipGuard) AssertLinkMutableBy(link *model.Link, r auth.Requester) error {
	if r.IsAnonymous() {
		return apperrors.NotFound()
	}
	if r.IsStaff || link.IsOwnedBy(r.UserID) {
		return nil
	}
	return apperrors.NotFound()
}

func (OwnershipGuard) AssertGroupMutableBy(group *model.Group, r auth.Requester) error {
	if r.IsAnonymous() {
		return apperrors.NotFound()
	}
	if r.IsStaff || group.IsOwnedBy(r.UserID) {
		return nil
	}
	return apperrors.NotFound()
}
