package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"grouplink-go/internal/apperrors"
	"grouplink-go/internal/auth"
	"grouplink-go/internal/config"
	"grouplink-go/internal/model"
	"grouplink-go/internal/repository"
	"grouplink-go/pkg/utils"
)

type GroupService struct {
	store     *repository.Store
	colors    *ColorService
	quota     QuotaGuard
	ownership OwnershipGuard
	limits    config.Limits
	logger    *zap.Logger
}

func NewGroupService(store *repository.Store, colors *ColorService, settings *config.Settings, logger *zap.Logger) *GroupService {
	l := settings.Limits
	return &GroupService{
		store:  store,
		colors: colors,
		quota: QuotaGuard{
			MaxGroupsPerOwner: l.MaxGroupsPerOwner,
			MaxLinksPerGroup:  l.MaxLinksPerGroup,
		},
		limits: l,
		logger: logger,
	}
}

func (s *GroupService) normalizeName(name string) (string, error) {
	name, err := utils.NormalizeGroupName(name, s.limits.MaxGroupNameLength)
	switch {
	case errors.Is(err, utils.ErrNameEmpty):
		return "", apperrors.NameEmpty()
	case errors.Is(err, utils.ErrNameTooLong):
		return "", apperrors.NameTooLong(s.limits.MaxGroupNameLength)
	}
	return name, err
}

// Create 创建分组并分配颜色。owner 行锁保证同一用户的配额检查与插入串行执行，
// 不同用户并发抢到同一颜色时由唯一索引兜底并重试。
func (s *GroupService) Create(ctx context.Context, r auth.Requester, name string) (*model.Group, error) {
	if r.IsAnonymous() {
		return nil, apperrors.Unauthorized()
	}
	name, err := s.normalizeName(name)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < s.limits.CodeRetryLimit; attempt++ {
		group, err := s.createOnce(ctx, r.UserID, name)
		if errors.Is(err, repository.ErrDuplicateKey) {
			s.logger.Info("Group insert conflict, retrying",
				zap.String("owner", r.UserID),
				zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, internalError(s.logger, "Failed to create group", err,
				zap.String("owner", r.UserID),
				zap.String("name", name))
		}
		return group, nil
	}
	return nil, apperrors.NoColorsAvailable()
}

func (s *GroupService) createOnce(ctx context.Context, ownerID, name string) (*model.Group, error) {
	var group *model.Group
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Owners.Lock(ctx, ownerID); err != nil {
			return err
		}
		if err := s.quota.CheckGroupCount(ctx, tx, ownerID); err != nil {
			return err
		}
		taken, err := tx.Groups.NameTaken(ctx, ownerID, name, 0)
		if err != nil {
			return err
		}
		if taken {
			return apperrors.NameTaken()
		}
		color, err := s.colors.Assign(ctx, tx)
		if err != nil {
			return err
		}

		group = &model.Group{Name: name, OwnerID: ownerID, Color: color}
		return tx.Groups.Create(ctx, group)
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// Rename 重命名分组，名称未变化时返回 changed=false
func (s *GroupService) Rename(ctx context.Context, r auth.Requester, id uint, name string) (*model.Group, bool, error) {
	name, err := s.normalizeName(name)
	if err != nil {
		return nil, false, err
	}

	var (
		group   *model.Group
		changed bool
	)
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if group, err = s.findMutable(ctx, tx, r, id); err != nil {
			return err
		}
		if group.Name == name {
			return nil
		}
		taken, err := tx.Groups.NameTaken(ctx, group.OwnerID, name, group.ID)
		if err != nil {
			return err
		}
		if taken {
			return apperrors.NameTaken()
		}
		if err := tx.Groups.Rename(ctx, group.ID, name); err != nil {
			return err
		}
		group.Name = name
		changed = true
		return nil
	})
	if errors.Is(err, repository.ErrDuplicateKey) {
		return nil, false, apperrors.NameTaken()
	}
	if err != nil {
		return nil, false, internalError(s.logger, "Failed to rename group", err, zap.Uint("id", id))
	}
	return group, changed, nil
}

// Delete 删除分组，组内链接保留并移出分组
func (s *GroupService) Delete(ctx context.Context, r auth.Requester, id uint) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		group, err := s.findMutable(ctx, tx, r, id)
		if err != nil {
			return err
		}
		if err := tx.Links.DetachGroup(ctx, group.ID); err != nil {
			return err
		}
		return tx.Groups.Delete(ctx, group.ID)
	})
	if err != nil {
		return internalError(s.logger, "Failed to delete group", err, zap.Uint("id", id))
	}
	return nil
}

func (s *GroupService) Get(ctx context.Context, r auth.Requester, id uint) (*model.Group, error) {
	group, err := s.findMutable(ctx, s.store, r, id)
	if err != nil {
		return nil, internalError(s.logger, "Failed to find group", err, zap.Uint("id", id))
	}
	return group, nil
}

// List 请求者自己的分组，staff 返回全部
func (s *GroupService) List(ctx context.Context, r auth.Requester) ([]model.Group, error) {
	if r.IsAnonymous() {
		return nil, apperrors.Unauthorized()
	}
	var owner *string
	if !r.IsStaff {
		owner = r.OwnerID()
	}
	groups, err := s.store.Groups.List(ctx, owner)
	if err != nil {
		return nil, internalError(s.logger, "Failed to list groups", err)
	}
	return groups, nil
}

func (s *GroupService) findMutable(ctx context.Context, tx *repository.Store, r auth.Requester, id uint) (*model.Group, error) {
	if r.IsAnonymous() {
		return nil, apperrors.NotFound()
	}
	group, err := tx.Groups.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound()
	}
	if err != nil {
		return nil, err
	}
	if err := s.ownership.AssertGroupMutableBy(group, r); err != nil {
		return nil, err
	}
	return group, nil
}
