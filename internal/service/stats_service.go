package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"grouplink-go/constant"
	"grouplink-go/internal/cache/cacher"
	"grouplink-go/internal/model"
	"grouplink-go/internal/repository"
)

const flushBatchSize = 500

// StatsService 把缓存中的每日独立访客数刷入 daily_stats
type StatsService struct {
	store  *repository.Store
	cache  cacher.Engine
	logger *zap.Logger
	now    func() time.Time
}

func NewStatsService(store *repository.Store, cache cacher.Engine, logger *zap.Logger) *StatsService {
	return &StatsService{store: store, cache: cache, logger: logger, now: time.Now}
}

// FlushUniqueVisitors 同步今天和昨天的 UV，昨天的数据在跨天后还会被补齐一次
func (s *StatsService) FlushUniqueVisitors(ctx context.Context) error {
	s.logger.Info("FlushUniqueVisitors start")
	now := s.now()
	dates := []string{
		constant.GetStatDate(now),
		constant.GetStatDate(now.AddDate(0, 0, -1)),
	}

	var flushed int
	err := s.store.Links.EachActive(ctx, flushBatchSize, func(link model.Link) error {
		for _, date := range dates {
			key := constant.GetDailyUVKey(link.Code, date)
			uv, err := s.cache.CountUnique(ctx, key)
			if err != nil {
				s.logger.Error("Failed to get daily UV",
					zap.String("key", key),
					zap.Error(err))
				continue
			}
			if uv == 0 {
				continue
			}
			if err := s.store.Stats.SetUV(ctx, link.ID, date, uv); err != nil {
				s.logger.Error("Failed to update daily UV",
					zap.Uint("link_id", link.ID),
					zap.String("date", date),
					zap.Int64("uv", uv),
					zap.Error(err))
				continue
			}
			flushed++
		}
		return nil
	})
	if err != nil {
		s.logger.Error("获取短链列表失败", zap.Error(err))
		return err
	}

	s.logger.Info("FlushUniqueVisitors end", zap.Int("flushed", flushed))
	return nil
}

// StartCron 按 cron 表达式定时执行 FlushUniqueVisitors，返回已启动的调度器
func (s *StatsService) StartCron(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		_ = s.FlushUniqueVisitors(ctx)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
