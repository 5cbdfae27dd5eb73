package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"grouplink-go/internal/model"
)

type LinkRepo struct {
	db *gorm.DB
}

// LinkFilter OwnerID 为 nil 时不按 owner 过滤（管理员视角）
type LinkFilter struct {
	OwnerID *string
	GroupID *uint
	Offset  int
	Limit   int
}

func (r *LinkRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Link{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, ConvertError(err)
	}
	return count > 0, nil
}

// ActiveCodeExists 短码存在且处于启用状态
func (r *LinkRepo) ActiveCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Link{}).
		Where("code = ? AND is_active = ?", code, true).
		Count(&count).Error; err != nil {
		return false, ConvertError(err)
	}
	return count > 0, nil
}

func (r *LinkRepo) Create(ctx context.Context, link *model.Link) error {
	return ConvertError(r.db.WithContext(ctx).Create(link).Error)
}

func (r *LinkRepo) FindByCode(ctx context.Context, code string) (*model.Link, error) {
	var link model.Link
	if err := r.db.WithContext(ctx).Preload("Group").Where("code = ?", code).First(&link).Error; err != nil {
		return nil, ConvertError(err)
	}
	return &link, nil
}

// FindAnonymous 按匿名去重键查找链接
func (r *LinkRepo) FindAnonymous(ctx context.Context, anonKey string) (*model.Link, error) {
	var link model.Link
	if err := r.db.WithContext(ctx).Where("anon_url_key = ?", anonKey).First(&link).Error; err != nil {
		return nil, ConvertError(err)
	}
	return &link, nil
}

// IncrementClicks 在数据库侧原子自增，返回 false 表示短码不存在或已停用
func (r *LinkRepo) IncrementClicks(ctx context.Context, code string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("code = ? AND is_active = ?", code, true).
		Updates(map[string]interface{}{
			"clicks_count":    gorm.Expr("clicks_count + ?", 1),
			"last_clicked_at": at,
		})
	if res.Error != nil {
		return false, ConvertError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *LinkRepo) SetActive(ctx context.Context, id uint, active bool) error {
	return r.updateColumn(ctx, id, "is_active", active)
}

// SetGroup groupID 为 nil 时解除分组
func (r *LinkRepo) SetGroup(ctx context.Context, id uint, groupID *uint) error {
	return r.updateColumn(ctx, id, "group_id", groupID)
}

func (r *LinkRepo) updateColumn(ctx context.Context, id uint, column string, value interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Link{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return ConvertError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *LinkRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Link{}, id)
	if res.Error != nil {
		return ConvertError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *LinkRepo) CountByGroup(ctx context.Context, groupID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Link{}).Where("group_id = ?", groupID).Count(&count).Error; err != nil {
		return 0, ConvertError(err)
	}
	return count, nil
}

// DetachGroup 删除分组前把其下链接的 group_id 置空
func (r *LinkRepo) DetachGroup(ctx context.Context, groupID uint) error {
	return ConvertError(r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("group_id = ?", groupID).
		Update("group_id", nil).Error)
}

// List 返回按创建时间倒序的链接与总数
func (r *LinkRepo) List(ctx context.Context, f LinkFilter) ([]model.Link, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.Link{})
	if f.OwnerID != nil {
		db = db.Where("owner_id = ?", *f.OwnerID)
	}
	if f.GroupID != nil {
		db = db.Where("group_id = ?", *f.GroupID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, ConvertError(err)
	}
	if total == 0 {
		return []model.Link{}, 0, nil
	}

	var links []model.Link
	q := db.Preload("Group").Order("id DESC").Offset(f.Offset)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Find(&links).Error; err != nil {
		return nil, 0, ConvertError(err)
	}
	return links, total, nil
}

// EachActive 分批遍历启用中的链接
func (r *LinkRepo) EachActive(ctx context.Context, batchSize int, fn func(link model.Link) error) error {
	var batch []model.Link
	res := r.db.WithContext(ctx).
		Select("id", "code").
		Where("is_active = ?", true).
		FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			for _, link := range batch {
				if err := fn(link); err != nil {
					return err
				}
			}
			return nil
		})
	return ConvertError(res.Error)
}
