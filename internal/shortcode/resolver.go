package shortcode

import (
	"context"
	"errors"
	"regexp"
)

// DefaultMaxAttempts 碰撞重试上限
const DefaultMaxAttempts = 50

var (
	ErrExhausted   = errors.New("shortcode: no free code found within retry limit")
	ErrAliasFormat = errors.New("shortcode: alias has invalid format")
	ErrAliasTaken  = errors.New("shortcode: alias is already taken")
)

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// ExistsFunc 报告短码是否已被持久化（不区分短码类型）
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Resolver 在已持久化的短码空间中分配空闲短码，并校验用户别名
type Resolver struct {
	gen         *Generator
	maxAttempts int
	aliasMin    int
	aliasMax    int
}

func NewResolver(gen *Generator, maxAttempts, aliasMin, aliasMax int) *Resolver {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Resolver{
		gen:         gen,
		maxAttempts: maxAttempts,
		aliasMin:    aliasMin,
		aliasMax:    aliasMax,
	}
}

// Allocate 反复生成短码直到 exists 报告未被占用，超过重试上限返回 ErrExhausted
func (r *Resolver) Allocate(ctx context.Context, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code, err := r.gen.Generate()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// ValidateAlias 只检查别名格式：字母数字，长度在配置范围内
func (r *Resolver) ValidateAlias(alias string) error {
	if len(alias) < r.aliasMin || len(alias) > r.aliasMax {
		return ErrAliasFormat
	}
	if !aliasPattern.MatchString(alias) {
		return ErrAliasFormat
	}
	return nil
}

// ResolveAlias 校验别名格式和唯一性
func (r *Resolver) ResolveAlias(ctx context.Context, alias string, exists ExistsFunc) (string, error) {
	if err := r.ValidateAlias(alias); err != nil {
		return "", err
	}
	taken, err := exists(ctx, alias)
	if err != nil {
		return "", err
	}
	if taken {
		return "", ErrAliasTaken
	}
	return alias, nil
}

// MaxAttempts 返回碰撞重试上限
func (r *Resolver) MaxAttempts() int {
	return r.maxAttempts
}
