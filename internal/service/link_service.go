package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"

	"grouplink-go/constant"
	"grouplink-go/internal/apperrors"
	"grouplink-go/internal/auth"
	"grouplink-go/internal/cache/cacher"
	"grouplink-go/internal/config"
	"grouplink-go/internal/model"
	"grouplink-go/internal/repository"
	"grouplink-go/internal/shortcode"
	"grouplink-go/pkg/utils"
	"grouplink-go/response"
)

// 独立访客集合保留 3 天，足够定时任务把前一天的数据刷入数据库
const uniqueVisitorTTL = 3 * 24 * time.Hour

// CreateLinkInput 创建链接参数，Alias 为空时由系统生成短码
type CreateLinkInput struct {
	OriginalURL string
	Alias       string
	GroupID     *uint
}

type LinkService struct {
	store     *repository.Store
	cache     cacher.Engine
	resolver  *shortcode.Resolver
	quota     QuotaGuard
	ownership OwnershipGuard
	limits    config.Limits
	missTTL   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewLinkService(store *repository.Store, cache cacher.Engine, settings *config.Settings, logger *zap.Logger) *LinkService {
	l := settings.Limits
	gen := shortcode.NewGenerator(l.CodeLength)
	return &LinkService{
		store:    store,
		cache:    cache,
		resolver: shortcode.NewResolver(gen, l.CodeRetryLimit, l.AliasMinLength, l.AliasMaxLength),
		quota: QuotaGuard{
			MaxGroupsPerOwner: l.MaxGroupsPerOwner,
			MaxLinksPerGroup:  l.MaxLinksPerGroup,
		},
		limits:  l,
		missTTL: settings.Cache.MissTTL,
		logger:  logger,
		now:     time.Now,
	}
}

// WithResolver 替换短码分配器
func (s *LinkService) WithResolver(r *shortcode.Resolver) *LinkService {
	s.resolver = r
	return s
}

// Create 创建链接，返回的 bool 表示是否新建。
// 匿名且未指定别名时按原始链接幂等，已存在则直接返回旧记录。
func (s *LinkService) Create(ctx context.Context, r auth.Requester, in CreateLinkInput) (*model.Link, bool, error) {
	if err := utils.ValidateOriginalURL(in.OriginalURL, s.limits.MaxURLLength); err != nil {
		return nil, false, apperrors.InvalidURL().WithCause(err)
	}
	if in.Alias != "" {
		if err := s.resolver.ValidateAlias(in.Alias); err != nil {
			return nil, false, apperrors.AliasFormat(s.limits.AliasMinLength, s.limits.AliasMaxLength)
		}
	}

	// 唯一索引冲突会使事务中止，整个创建过程重新执行
	for attempt := 0; attempt < s.resolver.MaxAttempts(); attempt++ {
		link, created, err := s.createOnce(ctx, r, in)
		if errors.Is(err, repository.ErrDuplicateKey) {
			if in.Alias != "" {
				return nil, false, apperrors.AliasTaken()
			}
			s.logger.Info("Short code conflict on insert, retrying",
				zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, false, internalError(s.logger, "Failed to create link", err,
				zap.String("original_url", in.OriginalURL),
				zap.String("alias", in.Alias))
		}
		if created {
			s.forgetMissing(ctx, link.Code)
		}
		return link, created, nil
	}
	return nil, false, apperrors.CodeSpaceExhausted()
}

func (s *LinkService) createOnce(ctx context.Context, r auth.Requester, in CreateLinkInput) (*model.Link, bool, error) {
	var (
		link    *model.Link
		created bool
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var group *model.Group
		if in.GroupID != nil {
			g, err := tx.Groups.LockByID(ctx, *in.GroupID)
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.GroupNotFound()
			}
			if err != nil {
				return err
			}
			if err := s.ownership.AssertGroupOwnedBy(g, r.UserID); err != nil {
				return err
			}
			if err := s.quota.CheckGroupCapacity(ctx, tx, g.ID); err != nil {
				return err
			}
			group = g
		}

		var anonKey *string
		if r.IsAnonymous() && in.Alias == "" {
			key := anonymousURLKey(in.OriginalURL)
			existing, err := tx.Links.FindAnonymous(ctx, key)
			if err == nil {
				link = existing
				return nil
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			anonKey = &key
		}

		kind := model.LinkKindGenerated
		var code string
		var err error
		if in.Alias != "" {
			kind = model.LinkKindAlias
			code, err = s.resolver.ResolveAlias(ctx, in.Alias, tx.Links.CodeExists)
		} else {
			code, err = s.resolver.Allocate(ctx, tx.Links.CodeExists)
		}
		switch {
		case errors.Is(err, shortcode.ErrAliasTaken):
			return apperrors.AliasTaken()
		case errors.Is(err, shortcode.ErrAliasFormat):
			return apperrors.AliasFormat(s.limits.AliasMinLength, s.limits.AliasMaxLength)
		case errors.Is(err, shortcode.ErrExhausted):
			return apperrors.CodeSpaceExhausted()
		case err != nil:
			return err
		}

		link = &model.Link{
			Kind:        kind,
			OriginalURL: in.OriginalURL,
			Code:        code,
			AnonURLKey:  anonKey,
			OwnerID:     r.OwnerID(),
			IsActive:    true,
		}
		if group != nil {
			link.GroupID = &group.ID
		}
		if err := tx.Links.Create(ctx, link); err != nil {
			return err
		}
		link.Group = group
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return link, created, nil
}

// RecordClick 重定向路径：短码不存在或已停用都返回 not_found，否则原子地累加点击数
func (s *LinkService) RecordClick(ctx context.Context, code, clientIP string) (*model.Link, error) {
	missingKey := constant.GetMissingCodeKey(code)
	if _, err := s.cache.Get(ctx, missingKey); err == nil {
		return nil, apperrors.NotFound()
	} else if !errors.Is(err, cacher.ErrEntryNotFound) {
		s.logger.Warn("Error getting from cache",
			zap.String("cache_key", missingKey),
			zap.Error(err))
	}

	now := s.now()
	date := constant.GetStatDate(now)

	var link *model.Link
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		ok, err := tx.Links.IncrementClicks(ctx, code, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.NotFound()
		}
		if link, err = tx.Links.FindByCode(ctx, code); err != nil {
			return err
		}
		return tx.Stats.IncrementDaily(ctx, link.ID, date)
	})
	if errors.Is(err, apperrors.NotFound()) {
		s.rememberMissing(ctx, code)
		return nil, err
	}
	if err != nil {
		return nil, internalError(s.logger, "Failed to record click", err, zap.String("code", code))
	}

	if clientIP != "" {
		uvKey := constant.GetDailyUVKey(code, date)
		if err := s.cache.AddUnique(ctx, uvKey, clientIP, uniqueVisitorTTL); err != nil {
			s.logger.Error("Failed to record daily UV",
				zap.String("key", uvKey),
				zap.String("ip", clientIP),
				zap.Error(err))
		}
	}
	return link, nil
}

// SetActive 启用/停用链接，目标状态与当前一致时返回 changed=false
func (s *LinkService) SetActive(ctx context.Context, r auth.Requester, code string, active bool) (*model.Link, bool, error) {
	var (
		link    *model.Link
		changed bool
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if link, err = s.findMutable(ctx, tx, r, code); err != nil {
			return err
		}
		if link.IsActive == active {
			return nil
		}
		if err := tx.Links.SetActive(ctx, link.ID, active); err != nil {
			return err
		}
		link.IsActive = active
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, internalError(s.logger, "Failed to update link status", err,
			zap.String("code", code),
			zap.Bool("active", active))
	}
	if changed {
		s.forgetMissing(ctx, code)
	}
	return link, changed, nil
}

// Regroup 移动链接到另一个分组，groupID 为 nil 表示移出分组
func (s *LinkService) Regroup(ctx context.Context, r auth.Requester, code string, groupID *uint) (*model.Link, bool, error) {
	var (
		link    *model.Link
		changed bool
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		// 目标分组必须是事务中的第一条语句：先加锁，之后的读取（链接、组内计数）都在拿到锁之后发生
		var (
			group    *model.Group
			groupErr error
		)
		if groupID != nil {
			group, groupErr = tx.Groups.LockByID(ctx, *groupID)
			if groupErr != nil && !errors.Is(groupErr, repository.ErrNotFound) {
				return groupErr
			}
		}

		var err error
		if link, err = s.findMutable(ctx, tx, r, code); err != nil {
			return err
		}
		if sameGroup(link.GroupID, groupID) {
			return nil
		}

		if groupID != nil {
			if groupErr != nil {
				return apperrors.GroupNotFound()
			}
			owner := ""
			if link.OwnerID != nil {
				owner = *link.OwnerID
			}
			if err := s.ownership.AssertGroupOwnedBy(group, owner); err != nil {
				return err
			}
			if err := s.quota.CheckGroupCapacity(ctx, tx, group.ID); err != nil {
				return err
			}
		}

		if err := tx.Links.SetGroup(ctx, link.ID, groupID); err != nil {
			return err
		}
		link.GroupID = groupID
		link.Group = group
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, internalError(s.logger, "Failed to regroup link", err, zap.String("code", code))
	}
	return link, changed, nil
}

// Delete 删除链接及其每日统计
func (s *LinkService) Delete(ctx context.Context, r auth.Requester, code string) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		link, err := s.findMutable(ctx, tx, r, code)
		if err != nil {
			return err
		}
		if err := tx.Stats.DeleteByLink(ctx, link.ID); err != nil {
			return err
		}
		return tx.Links.Delete(ctx, link.ID)
	})
	if err != nil {
		return internalError(s.logger, "Failed to delete link", err, zap.String("code", code))
	}
	s.forgetMissing(ctx, code)
	return nil
}

// List 分页查询请求者自己的链接，staff 可以看到全部
func (s *LinkService) List(ctx context.Context, r auth.Requester, groupID *uint, page, size int) (*response.PageResponse[model.Link], error) {
	if r.IsAnonymous() {
		return nil, apperrors.Unauthorized()
	}
	page, size = normalizePage(page, size)

	filter := repository.LinkFilter{
		GroupID: groupID,
		Offset:  (page - 1) * size,
		Limit:   size,
	}
	if !r.IsStaff {
		filter.OwnerID = r.OwnerID()
	}

	links, total, err := s.store.Links.List(ctx, filter)
	if err != nil {
		return nil, internalError(s.logger, "Failed to list links", err)
	}
	return &response.PageResponse[model.Link]{
		Page:      page,
		Size:      size,
		Total:     int(total),
		TotalPage: (int(total) + size - 1) / size,
		List:      links,
	}, nil
}

// Stats 返回链接的每日统计，可见性与修改权限一致
func (s *LinkService) Stats(ctx context.Context, r auth.Requester, code string) ([]model.DailyStat, error) {
	link, err := s.findMutable(ctx, s.store, r, code)
	if err != nil {
		return nil, internalError(s.logger, "Failed to find link", err, zap.String("code", code))
	}
	stats, err := s.store.Stats.ListByLink(ctx, link.ID)
	if err != nil {
		return nil, internalError(s.logger, "Failed to list daily stats", err, zap.String("code", code))
	}
	return stats, nil
}

func (s *LinkService) findMutable(ctx context.Context, tx *repository.Store, r auth.Requester, code string) (*model.Link, error) {
	if r.IsAnonymous() {
		return nil, apperrors.NotFound()
	}
	link, err := tx.Links.FindByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound()
	}
	if err != nil {
		return nil, err
	}
	if err := s.ownership.AssertLinkMutableBy(link, r); err != nil {
		return nil, err
	}
	return link, nil
}

// rememberMissing 缓存空值，防止缓存穿透。
// 写入后再确认一次短码仍不可用：并发的 Create / SetActive 可能在查询与写缓存之间提交并已清过缓存，
// 此时删除刚写入的空值。
func (s *LinkService) rememberMissing(ctx context.Context, code string) {
	key := constant.GetMissingCodeKey(code)
	if err := s.cache.Set(ctx, key, "1", s.missTTL); err != nil {
		s.logger.Error("设置缓存失败",
			zap.String("cache_key", key),
			zap.Error(err))
		return
	}

	active, err := s.store.Links.ActiveCodeExists(ctx, code)
	if err != nil {
		s.logger.Warn("Failed to recheck missing code, dropping cache entry",
			zap.String("code", code),
			zap.Error(err))
		s.forgetMissing(ctx, code)
		return
	}
	if active {
		s.forgetMissing(ctx, code)
	}
}

// forgetMissing 删除负缓存，失败只记录日志
func (s *LinkService) forgetMissing(ctx context.Context, code string) {
	key := constant.GetMissingCodeKey(code)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn("Cache delete failed",
			zap.String("cache_key", key),
			zap.Error(err))
	}
}

func anonymousURLKey(originalURL string) string {
	sum := sha256.Sum256([]byte(originalURL))
	return hex.EncodeToString(sum[:])
}

func sameGroup(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10 // 默认每页10条，最大100条
	}
	return page, size
}
