package redis

import (
	"context"
	"fmt"
	"time"

	redigo "github.com/gomodule/redigo/redis"

	"grouplink-go/internal/cache/cacher"
)

type redis struct {
	pool *redigo.Pool
}

// New 基于已有连接池创建缓存引擎
func New(pool *redigo.Pool) cacher.Engine {
	return &redis{pool: pool}
}

func (r *redis) Get(ctx context.Context, key string) (string, error) {
	value, err := redigo.String(r.do(ctx, "GET", key))
	if err == redigo.ErrNil {
		return "", cacher.ErrEntryNotFound
	}
	if err != nil {
		return "", fmt.Errorf("call GET: %w", err)
	}
	return value, nil
}

func (r *redis) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	if _, err := r.do(ctx, "SET", key, value, "PX", expiration.Milliseconds()); err != nil {
		return fmt.Errorf("call SET: %w", err)
	}
	return nil
}

func (r *redis) Delete(ctx context.Context, key string) error {
	if _, err := r.do(ctx, "DEL", key); err != nil {
		return fmt.Errorf("call DEL: %w", err)
	}
	return nil
}

// AddUnique 使用 HyperLogLog 统计独立访客
func (r *redis) AddUnique(ctx context.Context, key, member string, expiration time.Duration) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Send("MULTI"); err != nil {
		return err
	}
	if err := conn.Send("PFADD", key, member); err != nil {
		return err
	}
	if err := conn.Send("PEXPIRE", key, expiration.Milliseconds()); err != nil {
		return err
	}
	if _, err := conn.Do("EXEC"); err != nil {
		return fmt.Errorf("call PFADD: %w", err)
	}
	return nil
}

func (r *redis) CountUnique(ctx context.Context, key string) (int64, error) {
	count, err := redigo.Int64(r.do(ctx, "PFCOUNT", key))
	if err != nil {
		return 0, fmt.Errorf("call PFCOUNT: %w", err)
	}
	return count, nil
}

func (r *redis) do(ctx context.Context, commandName string, args ...interface{}) (interface{}, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return redigo.DoContext(conn, ctx, commandName, args...)
}
