package inmemory

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"grouplink-go/internal/cache/cacher"
)

// New returns an in-memory cache for single-instance deployments and tests.
func New(defaultExp, cleanupInterval time.Duration) cacher.Engine {
	return &inMemory{
		engine: gocache.New(defaultExp, cleanupInterval),
	}
}

type inMemory struct {
	engine *gocache.Cache
	// 保护集合的读改写，go-cache 只保证单次操作的原子性
	mu sync.Mutex
}

type uniqueSet map[string]struct{}

func (i *inMemory) Get(_ context.Context, key string) (string, error) {
	data, found := i.engine.Get(key)
	if !found {
		return "", cacher.ErrEntryNotFound
	}
	value, ok := data.(string)
	if !ok {
		return "", cacher.ErrEntryNotFound
	}
	return value, nil
}

func (i *inMemory) Set(_ context.Context, key, value string, expiration time.Duration) error {
	i.engine.Set(key, value, expiration)
	return nil
}

func (i *inMemory) Delete(_ context.Context, key string) error {
	i.engine.Delete(key)
	return nil
}

func (i *inMemory) AddUnique(_ context.Context, key, member string, expiration time.Duration) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	set := uniqueSet{}
	if data, found := i.engine.Get(key); found {
		if existing, ok := data.(uniqueSet); ok {
			set = existing
		}
	}
	set[member] = struct{}{}
	i.engine.Set(key, set, expiration)
	return nil
}

func (i *inMemory) CountUnique(_ context.Context, key string) (int64, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	data, found := i.engine.Get(key)
	if !found {
		return 0, nil
	}
	set, ok := data.(uniqueSet)
	if !ok {
		return 0, nil
	}
	return int64(len(set)), nil
}
