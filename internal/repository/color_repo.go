package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"grouplink-go/internal/model"
)

type ColorRepo struct {
	db *gorm.DB
}

// Seed 插入调色板中缺失的颜色，返回新增数量
func (r *ColorRepo) Seed(ctx context.Context, colors []model.Color) (int64, error) {
	var created int64
	for i := range colors {
		res := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "color_hex"}}, DoNothing: true}).
			Create(&colors[i])
		if res.Error != nil {
			return created, ConvertError(res.Error)
		}
		created += res.RowsAffected
	}
	return created, nil
}

func (r *ColorRepo) List(ctx context.Context) ([]model.Color, error) {
	var colors []model.Color
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&colors).Error; err != nil {
		return nil, ConvertError(err)
	}
	return colors, nil
}

// Available 调色板减去所有分组已使用的颜色，在同一查询中完成
func (r *ColorRepo) Available(ctx context.Context) ([]string, error) {
	db := r.db.WithContext(ctx)
	used := db.Model(&model.Group{}).Select("color")

	var hexes []string
	if err := db.Model(&model.Color{}).
		Where("color_hex NOT IN (?)", used).
		Order("id ASC").
		Pluck("color_hex", &hexes).Error; err != nil {
		return nil, ConvertError(err)
	}
	return hexes, nil
}
