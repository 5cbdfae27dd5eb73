package model

import "time"

// Owner 每个拥有分组的用户一行，创建分组时对其加行锁以串行化配额检查
type Owner struct {
	ID        string `gorm:"primaryKey;size:64"`
	CreatedAt time.Time
}
