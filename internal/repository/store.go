package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store 聚合所有仓储，Transaction 内的仓储共享同一个事务
type Store struct {
	db     *gorm.DB
	Links  *LinkRepo
	Groups *GroupRepo
	Owners *OwnerRepo
	Colors *ColorRepo
	Stats  *StatsRepo
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:     db,
		Links:  &LinkRepo{db: db},
		Groups: &GroupRepo{db: db},
		Owners: &OwnerRepo{db: db},
		Colors: &ColorRepo{db: db},
		Stats:  &StatsRepo{db: db},
	}
}

// Transaction fn 返回错误时整体回滚，错误原样返回
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return ConvertError(err)
	}
	return ConvertError(sqlDB.PingContext(ctx))
}
