// Package cacher 定义缓存引擎接口，redis 与进程内实现都满足它。
package cacher

import (
	"context"
	"errors"
	"time"
)

var ErrEntryNotFound = errors.New("[cacher]: entry not found")

type Engine interface {
	// Get 键不存在时返回 ErrEntryNotFound
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, expiration time.Duration) error
	// Delete 删除不存在的键不算错误
	Delete(ctx context.Context, key string) error

	// AddUnique 把 member 加入 key 对应的去重集合，并刷新过期时间
	AddUnique(ctx context.Context, key, member string, expiration time.Duration) error
	// CountUnique 返回去重集合的基数，集合不存在时为 0
	CountUnique(ctx context.Context, key string) (int64, error)
}
