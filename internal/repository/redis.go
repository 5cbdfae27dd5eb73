package repository

import (
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"

	"grouplink-go/internal/config"
)

var RedisPool *redis.Pool

// NewRedisPool 创建连接池，连接在首次使用时建立
func NewRedisPool(cfg config.RedisConfig, logger *zap.Logger) *redis.Pool {
	options := []redis.DialOption{
		redis.DialConnectTimeout(5 * time.Second),
		redis.DialReadTimeout(3 * time.Second),
		redis.DialWriteTimeout(3 * time.Second),
		redis.DialDatabase(cfg.Database),
	}
	if cfg.Password != "" {
		options = append(options, redis.DialPassword(cfg.Password))
	}

	return &redis.Pool{
		MaxIdle:     10,
		MaxActive:   cfg.PoolSize,
		Wait:        cfg.PoolSize > 0,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			conn, err := redis.Dial("tcp", cfg.Addr, options...)
			if err != nil {
				logger.Error("Failed to connect Redis",
					zap.String("addr", cfg.Addr),
					zap.Int("db", cfg.Database),
					zap.Error(err),
				)
				return nil, err
			}
			logger.Debug("Redis connection established", zap.String("addr", cfg.Addr))
			return conn, nil
		},
		// 空闲超过一分钟的连接在借出前 PING 一次
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			if err != nil {
				logger.Warn("Redis connection health check failed",
					zap.String("addr", cfg.Addr),
					zap.Error(err),
				)
			}
			return err
		},
	}
}

// InitRedis 未配置 redis.addr 时返回 false，调用方退回进程内缓存
func InitRedis(cfg config.RedisConfig, logger *zap.Logger) bool {
	if cfg.Addr == "" {
		return false
	}
	RedisPool = NewRedisPool(cfg, logger)
	return true
}
