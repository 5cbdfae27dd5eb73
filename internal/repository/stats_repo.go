package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"grouplink-go/internal/model"
)

type StatsRepo struct {
	db *gorm.DB
}

var dailyStatKey = []clause.Column{{Name: "link_id"}, {Name: "date"}}

// IncrementDaily 当日点击数 +1（不存在则插入）
func (r *StatsRepo) IncrementDaily(ctx context.Context, linkID uint, date string) error {
	return ConvertError(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: dailyStatKey,
			DoUpdates: clause.Assignments(map[string]interface{}{
				"clicks": gorm.Expr("daily_stats.clicks + ?", 1),
			}),
		}).
		Create(&model.DailyStat{LinkID: linkID, Date: date, Clicks: 1}).Error)
}

// SetUV 覆盖当日独立访客数
func (r *StatsRepo) SetUV(ctx context.Context, linkID uint, date string, uv int64) error {
	return ConvertError(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   dailyStatKey,
			DoUpdates: clause.AssignmentColumns([]string{"uv"}),
		}).
		Create(&model.DailyStat{LinkID: linkID, Date: date, UV: uv}).Error)
}

func (r *StatsRepo) ListByLink(ctx context.Context, linkID uint) ([]model.DailyStat, error) {
	var stats []model.DailyStat
	if err := r.db.WithContext(ctx).Where("link_id = ?", linkID).Order("date DESC").Find(&stats).Error; err != nil {
		return nil, ConvertError(err)
	}
	return stats, nil
}

func (r *StatsRepo) DeleteByLink(ctx context.Context, linkID uint) error {
	return ConvertError(r.db.WithContext(ctx).Where("link_id = ?", linkID).Delete(&model.DailyStat{}).Error)
}
