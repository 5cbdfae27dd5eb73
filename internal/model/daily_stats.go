package model

type DailyStat struct {
	BaseModel
	LinkID uint   `gorm:"not null;uniqueIndex:idx_daily_stat_link_date" json:"linkId"`
	Date   string `gorm:"size:10;not null;uniqueIndex:idx_daily_stat_link_date" json:"date"` // YYYY-MM-DD
	Clicks int64  `gorm:"not null;default:0" json:"clicks"`
	UV     int64  `gorm:"not null;default:0" json:"uv"`
}
