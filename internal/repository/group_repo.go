package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"grouplink-go/internal/model"
)

type GroupRepo struct {
	db *gorm.DB
}

func (r *GroupRepo) Create(ctx context.Context, group *model.Group) error {
	return ConvertError(r.db.WithContext(ctx).Create(group).Error)
}

func (r *GroupRepo) FindByID(ctx context.Context, id uint) (*model.Group, error) {
	var group model.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, ConvertError(err)
	}
	return &group, nil
}

// LockByID SELECT ... FOR UPDATE，事务结束前其他挂载到该分组的请求会阻塞
func (r *GroupRepo) LockByID(ctx context.Context, id uint) (*model.Group, error) {
	var group model.Group
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&group, id).Error; err != nil {
		return nil, ConvertError(err)
	}
	return &group, nil
}

func (r *GroupRepo) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Group{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
		return 0, ConvertError(err)
	}
	return count, nil
}

// NameTaken excludeID 为 0 时不排除任何分组
func (r *GroupRepo) NameTaken(ctx context.Context, ownerID, name string, excludeID uint) (bool, error) {
	db := r.db.WithContext(ctx).Model(&model.Group{}).Where("owner_id = ? AND name = ?", ownerID, name)
	if excludeID != 0 {
		db = db.Where("id <> ?", excludeID)
	}
	var count int64
	if err := db.Count(&count).Error; err != nil {
		return false, ConvertError(err)
	}
	return count > 0, nil
}

func (r *GroupRepo) Rename(ctx context.Context, id uint, name string) error {
	res := r.db.WithContext(ctx).Model(&model.Group{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return ConvertError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GroupRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Group{}, id)
	if res.Error != nil {
		return ConvertError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List ownerID 为 nil 时返回全部分组
func (r *GroupRepo) List(ctx context.Context, ownerID *string) ([]model.Group, error) {
	db := r.db.WithContext(ctx).Order("id ASC")
	if ownerID != nil {
		db = db.Where("owner_id = ?", *ownerID)
	}
	var groups []model.Group
	if err := db.Find(&groups).Error; err != nil {
		return nil, ConvertError(err)
	}
	return groups, nil
}

type OwnerRepo struct {
	db *gorm.DB
}

// Lock 确保 owner 行存在并加行锁，同一用户的分组创建因此串行执行
func (r *OwnerRepo) Lock(ctx context.Context, ownerID string) error {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Owner{ID: ownerID}).Error; err != nil {
		return ConvertError(err)
	}
	var owner model.Owner
	return ConvertError(db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", ownerID).
		First(&owner).Error)
}
