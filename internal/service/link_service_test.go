package service

import (
	"context"
	"fmt"
	"math/big"
	"regexp"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"

	"grouplink-go/internal/apperrors"
	"grouplink-go/internal/auth"
	"grouplink-go/internal/cache/cacher"
	"grouplink-go/internal/model"
	"grouplink-go/internal/shortcode"
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

func (suite *serviceTestSuite) TestCreate_generated_code_conforms() {
	link := suite.createLink(alice, CreateLinkInput{OriginalURL: "https://example.com/a"})

	suite.Equal(model.LinkKindGenerated, link.Kind)
	suite.Len(link.Code, suite.settings.Limits.CodeLength)
	suite.Regexp(codePattern, link.Code)
	suite.Require().NotNil(link.OwnerID)
	suite.Equal("alice", *link.OwnerID)
	suite.True(link.IsActive)
	suite.Zero(link.ClicksCount)
	suite.Nil(link.LastClickedAt)
	suite.Nil(link.AnonURLKey)
}

func (suite *serviceTestSuite) TestCreate_anonymous_is_idempotent() {
	in := CreateLinkInput{OriginalURL: "https://example.com/same"}

	first, created, err := suite.links.Create(suite.ctx, auth.Anonymous, in)
	suite.Require().NoError(err)
	suite.True(created)
	suite.Nil(first.OwnerID)

	second, created, err := suite.links.Create(suite.ctx, auth.Anonymous, in)
	suite.Require().NoError(err)
	suite.False(created)
	suite.Equal(first.ID, second.ID)
	suite.Equal(first.Code, second.Code)
	suite.EqualValues(1, suite.countLinks())
}

func (suite *serviceTestSuite) TestCreate_authenticated_is_not_idempotent() {
	in := CreateLinkInput{OriginalURL: "https://example.com/same"}

	first := suite.createLink(alice, in)
	second := suite.createLink(alice, in)
	suite.NotEqual(first.Code, second.Code)

	// 匿名路径不受已登录用户记录的影响
	anon, created, err := suite.links.Create(suite.ctx, auth.Anonymous, in)
	suite.Require().NoError(err)
	suite.True(created)
	suite.NotEqual(first.Code, anon.Code)
	suite.EqualValues(3, suite.countLinks())
}

func (suite *serviceTestSuite) TestCreate_anonymous_alias_skips_idempotency() {
	url := "https://example.com/alias"
	aliased := suite.createLink(auth.Anonymous, CreateLinkInput{OriginalURL: url, Alias: "mine1"})
	suite.Equal(model.LinkKindAlias, aliased.Kind)
	suite.Equal("mine1", aliased.Code)

	generated := suite.createLink(auth.Anonymous, CreateLinkInput{OriginalURL: url})
	suite.NotEqual(aliased.ID, generated.ID)
}

func (suite *serviceTestSuite) TestCreate_alias_collision() {
	suite.createLink(alice, CreateLinkInput{Alias: "promo2026"})

	_, _, err := suite.links.Create(suite.ctx, bob, CreateLinkInput{OriginalURL: gofakeit.URL(), Alias: "promo2026"})
	suite.assertKey(err, apperrors.KeyAliasTaken)

	_, _, err = suite.links.Create(suite.ctx, auth.Anonymous, CreateLinkInput{OriginalURL: gofakeit.URL(), Alias: "promo2026"})
	suite.assertKey(err, apperrors.KeyAliasTaken)
	suite.EqualValues(1, suite.countLinks())
}

func (suite *serviceTestSuite) TestCreate_alias_collides_with_generated_code() {
	generated := suite.createLink(alice, CreateLinkInput{})

	_, _, err := suite.links.Create(suite.ctx, bob, CreateLinkInput{OriginalURL: gofakeit.URL(), Alias: generated.Code})
	suite.assertKey(err, apperrors.KeyAliasTaken)
}

func (suite *serviceTestSuite) TestCreate_validation_errors_write_nothing() {
	tests := []struct {
		name string
		in   CreateLinkInput
		key  string
	}{
		{"bad url", CreateLinkInput{OriginalURL: "not a url"}, apperrors.KeyInvalidURL},
		{"no scheme", CreateLinkInput{OriginalURL: "example.com"}, apperrors.KeyInvalidURL},
		{"alias too short", CreateLinkInput{OriginalURL: "https://a.example", Alias: "abc"}, apperrors.KeyAliasFormat},
		{"alias with dash", CreateLinkInput{OriginalURL: "https://a.example", Alias: "my-link"}, apperrors.KeyAliasFormat},
		{"alias too long", CreateLinkInput{OriginalURL: "https://a.example", Alias: "a1234567890123456789012345678901"}, apperrors.KeyAliasFormat},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, _, err := suite.links.Create(suite.ctx, alice, tt.in)
			suite.assertKey(err, tt.key)
		})
	}
	suite.Zero(suite.countLinks())
}

func (suite *serviceTestSuite) TestCreate_group_checks() {
	bobs := suite.createGroup(bob, "bob's")
	missing := uint(9999)

	_, _, err := suite.links.Create(suite.ctx, alice, CreateLinkInput{OriginalURL: gofakeit.URL(), GroupID: &missing})
	suite.assertKey(err, apperrors.KeyGroupNotFound)

	_, _, err = suite.links.Create(suite.ctx, alice, CreateLinkInput{OriginalURL: gofakeit.URL(), GroupID: &bobs.ID})
	suite.assertKey(err, apperrors.KeyGroupNotOwned)

	_, _, err = suite.links.Create(suite.ctx, auth.Anonymous, CreateLinkInput{OriginalURL: gofakeit.URL(), GroupID: &bobs.ID})
	suite.assertKey(err, apperrors.KeyGroupNotOwned)
	suite.Zero(suite.countLinks())

	link := suite.createLink(bob, CreateLinkInput{GroupID: &bobs.ID})
	suite.Require().NotNil(link.GroupID)
	suite.Equal(bobs.ID, *link.GroupID)
	suite.Require().NotNil(link.Group)
	suite.Equal(bobs.Color, link.Group.Color)
}

func (suite *serviceTestSuite) TestCreate_group_link_quota_boundary() {
	group := suite.createGroup(alice, "full")
	for i := 0; i < suite.settings.Limits.MaxLinksPerGroup; i++ {
		suite.createLink(alice, CreateLinkInput{GroupID: &group.ID})
	}

	_, _, err := suite.links.Create(suite.ctx, alice, CreateLinkInput{OriginalURL: gofakeit.URL(), GroupID: &group.ID})
	suite.assertKey(err, apperrors.KeyGroupLinkQuotaExceeded)
	suite.EqualValues(suite.settings.Limits.MaxLinksPerGroup, suite.countLinks())

	// 不带分组仍然可以创建
	suite.createLink(alice, CreateLinkInput{})
}

func (suite *serviceTestSuite) TestCreate_concurrent_codes_are_unique() {
	const n = 40
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[string]struct{}{}
		errs  []error
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			r := alice
			if i%2 == 0 {
				r = auth.Anonymous
			}
			link, _, err := suite.links.Create(suite.ctx, r, CreateLinkInput{
				OriginalURL: fmt.Sprintf("https://example.com/%d", i),
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			codes[link.Code] = struct{}{}
		}(i)
	}
	wg.Wait()

	suite.Empty(errs)
	suite.Len(codes, n)
}

func (suite *serviceTestSuite) TestCreate_concurrent_attachments_respect_quota() {
	group := suite.createGroup(alice, "race")
	const n = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, _, err := suite.links.Create(suite.ctx, alice, CreateLinkInput{
				OriginalURL: gofakeit.URL(),
				GroupID:     &group.ID,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if apperrors.KeyOf(err) == apperrors.KeyGroupLinkQuotaExceeded {
				rejected++
			}
		}()
	}
	wg.Wait()

	suite.Equal(suite.settings.Limits.MaxLinksPerGroup, succeeded)
	suite.Equal(n-suite.settings.Limits.MaxLinksPerGroup, rejected)
}

func (suite *serviceTestSuite) TestCreate_code_space_exhausted() {
	// 随机源固定返回 1，第二次分配必然碰撞
	gen := shortcode.NewGeneratorWithEntropy(7, func() (*big.Int, error) { return big.NewInt(1), nil })
	suite.links.WithResolver(shortcode.NewResolver(gen, 3, 4, 30))

	first := suite.createLink(alice, CreateLinkInput{})
	suite.Equal("000000G", first.Code)

	_, _, err := suite.links.Create(suite.ctx, alice, CreateLinkInput{OriginalURL: gofakeit.URL()})
	suite.assertKey(err, apperrors.KeyCodeSpaceExhausted)
	suite.EqualValues(1, suite.countLinks())
}

func (suite *serviceTestSuite) TestRecordClick_counts_and_hides_inactive() {
	link := suite.createLink(alice, CreateLinkInput{})

	t1 := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	suite.links.now = func() time.Time { return t1 }

	clicked, err := suite.links.RecordClick(suite.ctx, link.Code, "10.0.0.1")
	suite.Require().NoError(err)
	suite.EqualValues(1, clicked.ClicksCount)
	suite.Require().NotNil(clicked.LastClickedAt)
	suite.True(clicked.LastClickedAt.Equal(t1))

	suite.links.now = func() time.Time { return t2 }
	clicked, err = suite.links.RecordClick(suite.ctx, link.Code, "10.0.0.2")
	suite.Require().NoError(err)
	suite.EqualValues(2, clicked.ClicksCount)
	suite.True(clicked.LastClickedAt.Equal(t2))

	_, changed, err := suite.links.SetActive(suite.ctx, alice, link.Code, false)
	suite.Require().NoError(err)
	suite.True(changed)

	_, err = suite.links.RecordClick(suite.ctx, link.Code, "10.0.0.3")
	suite.assertKey(err, apperrors.KeyNotFound)

	stored, err := suite.store.Links.FindByCode(suite.ctx, link.Code)
	suite.Require().NoError(err)
	suite.EqualValues(2, stored.ClicksCount)

	// 重新启用后负缓存失效
	_, changed, err = suite.links.SetActive(suite.ctx, alice, link.Code, true)
	suite.Require().NoError(err)
	suite.True(changed)
	clicked, err = suite.links.RecordClick(suite.ctx, link.Code, "10.0.0.3")
	suite.Require().NoError(err)
	suite.EqualValues(3, clicked.ClicksCount)
}

func (suite *serviceTestSuite) TestRecordClick_missing_code_is_cached_until_created() {
	_, err := suite.links.RecordClick(suite.ctx, "later01", "")
	suite.assertKey(err, apperrors.KeyNotFound)

	suite.createLink(alice, CreateLinkInput{Alias: "later01"})

	clicked, err := suite.links.RecordClick(suite.ctx, "later01", "")
	suite.Require().NoError(err)
	suite.EqualValues(1, clicked.ClicksCount)
}

func (suite *serviceTestSuite) TestRecordClick_concurrent_increments_are_not_lost() {
	link := suite.createLink(alice, CreateLinkInput{})
	const n = 25
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, _ = suite.links.RecordClick(suite.ctx, link.Code, gofakeit.IPv4Address())
		}()
	}
	wg.Wait()

	stored, err := suite.store.Links.FindByCode(suite.ctx, link.Code)
	suite.Require().NoError(err)
	suite.EqualValues(n, stored.ClicksCount)
}

func (suite *serviceTestSuite) TestMutations_are_opaque_to_non_owners() {
	group := suite.createGroup(alice, "work")
	link := suite.createLink(alice, CreateLinkInput{})

	for _, r := range []auth.Requester{bob, auth.Anonymous} {
		_, _, err := suite.links.SetActive(suite.ctx, r, link.Code, false)
		suite.assertKey(err, apperrors.KeyNotFound)

		_, _, err = suite.links.Regroup(suite.ctx, r, link.Code, &group.ID)
		suite.assertKey(err, apperrors.KeyNotFound)

		err = suite.links.Delete(suite.ctx, r, link.Code)
		suite.assertKey(err, apperrors.KeyNotFound)

		_, err = suite.links.Stats(suite.ctx, r, link.Code)
		suite.assertKey(err, apperrors.KeyNotFound)
	}

	// 不存在的短码与无权限得到同样的结果
	_, _, err := suite.links.SetActive(suite.ctx, bob, "nothere", false)
	suite.assertKey(err, apperrors.KeyNotFound)

	updated, changed, err := suite.links.SetActive(suite.ctx, admin, link.Code, false)
	suite.Require().NoError(err)
	suite.True(changed)
	suite.False(updated.IsActive)
}

func (suite *serviceTestSuite) TestSetActive_no_change() {
	link := suite.createLink(alice, CreateLinkInput{})

	same, changed, err := suite.links.SetActive(suite.ctx, alice, link.Code, true)
	suite.Require().NoError(err)
	suite.False(changed)
	suite.True(same.IsActive)
}

func (suite *serviceTestSuite) TestRegroup() {
	first := suite.createGroup(alice, "first")
	second := suite.createGroup(alice, "second")
	bobs := suite.createGroup(bob, "bob")
	link := suite.createLink(alice, CreateLinkInput{GroupID: &first.ID})

	_, changed, err := suite.links.Regroup(suite.ctx, alice, link.Code, &first.ID)
	suite.Require().NoError(err)
	suite.False(changed, "same group is a no-op")

	moved, changed, err := suite.links.Regroup(suite.ctx, alice, link.Code, &second.ID)
	suite.Require().NoError(err)
	suite.True(changed)
	suite.Equal(second.ID, *moved.GroupID)

	_, _, err = suite.links.Regroup(suite.ctx, alice, link.Code, &bobs.ID)
	suite.assertKey(err, apperrors.KeyGroupNotOwned)

	missing := uint(4242)
	_, _, err = suite.links.Regroup(suite.ctx, alice, link.Code, &missing)
	suite.assertKey(err, apperrors.KeyGroupNotFound)

	ungrouped, changed, err := suite.links.Regroup(suite.ctx, alice, link.Code, nil)
	suite.Require().NoError(err)
	suite.True(changed)
	suite.Nil(ungrouped.GroupID)

	_, changed, err = suite.links.Regroup(suite.ctx, alice, link.Code, nil)
	suite.Require().NoError(err)
	suite.False(changed)

	// staff 也不能把链接放进别人的分组
	_, _, err = suite.links.Regroup(suite.ctx, admin, link.Code, &bobs.ID)
	suite.assertKey(err, apperrors.KeyGroupNotOwned)
}

func (suite *serviceTestSuite) TestRegroup_respects_quota() {
	full := suite.createGroup(alice, "full")
	for i := 0; i < suite.settings.Limits.MaxLinksPerGroup; i++ {
		suite.createLink(alice, CreateLinkInput{GroupID: &full.ID})
	}
	loose := suite.createLink(alice, CreateLinkInput{})

	_, _, err := suite.links.Regroup(suite.ctx, alice, loose.Code, &full.ID)
	suite.assertKey(err, apperrors.KeyGroupLinkQuotaExceeded)

	stored, err := suite.store.Links.FindByCode(suite.ctx, loose.Code)
	suite.Require().NoError(err)
	suite.Nil(stored.GroupID)
}

func (suite *serviceTestSuite) TestRegroup_anonymous_link_cannot_join_group() {
	group := suite.createGroup(alice, "g")
	anon := suite.createLink(auth.Anonymous, CreateLinkInput{})

	_, _, err := suite.links.Regroup(suite.ctx, admin, anon.Code, &group.ID)
	suite.assertKey(err, apperrors.KeyGroupNotOwned)
}

func (suite *serviceTestSuite) TestDelete_link() {
	link := suite.createLink(alice, CreateLinkInput{})
	_, err := suite.links.RecordClick(suite.ctx, link.Code, "10.0.0.1")
	suite.Require().NoError(err)

	suite.Require().NoError(suite.links.Delete(suite.ctx, alice, link.Code))

	_, err = suite.links.RecordClick(suite.ctx, link.Code, "")
	suite.assertKey(err, apperrors.KeyNotFound)
	err = suite.links.Delete(suite.ctx, alice, link.Code)
	suite.assertKey(err, apperrors.KeyNotFound)

	stats, err := suite.store.Stats.ListByLink(suite.ctx, link.ID)
	suite.Require().NoError(err)
	suite.Empty(stats)
}

func (suite *serviceTestSuite) TestList_is_owner_scoped() {
	group := suite.createGroup(alice, "g")
	suite.createLink(alice, CreateLinkInput{GroupID: &group.ID})
	suite.createLink(alice, CreateLinkInput{})
	suite.createLink(bob, CreateLinkInput{})
	suite.createLink(auth.Anonymous, CreateLinkInput{})

	page, err := suite.links.List(suite.ctx, alice, nil, 1, 10)
	suite.Require().NoError(err)
	suite.Equal(2, page.Total)
	for _, l := range page.List {
		suite.Equal("alice", *l.OwnerID)
	}

	page, err = suite.links.List(suite.ctx, alice, &group.ID, 1, 10)
	suite.Require().NoError(err)
	suite.Equal(1, page.Total)

	page, err = suite.links.List(suite.ctx, admin, nil, 1, 3)
	suite.Require().NoError(err)
	suite.Equal(4, page.Total)
	suite.Equal(2, page.TotalPage)
	suite.Len(page.List, 3)

	_, err = suite.links.List(suite.ctx, auth.Anonymous, nil, 1, 10)
	suite.assertKey(err, apperrors.KeyUnauthorized)
}

func (suite *serviceTestSuite) TestStats_daily_clicks_and_unique_visitors() {
	link := suite.createLink(alice, CreateLinkInput{})
	now := time.Now()
	suite.links.now = func() time.Time { return now }
	suite.stats.now = func() time.Time { return now }

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.1"} {
		_, err := suite.links.RecordClick(suite.ctx, link.Code, ip)
		suite.Require().NoError(err)
	}
	suite.Require().NoError(suite.stats.FlushUniqueVisitors(suite.ctx))

	stats, err := suite.links.Stats(suite.ctx, alice, link.Code)
	suite.Require().NoError(err)
	suite.Require().Len(stats, 1)
	suite.Equal(now.Format("2006-01-02"), stats[0].Date)
	suite.EqualValues(3, stats[0].Clicks)
	suite.EqualValues(2, stats[0].UV)
}

// beforeSetCache 在第一次 Set 之前执行 hook，用来模拟查询与写缓存之间插入的并发请求
type beforeSetCache struct {
	cacher.Engine
	once sync.Once
	hook func()
}

func (c *beforeSetCache) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	c.once.Do(c.hook)
	return c.Engine.Set(ctx, key, value, expiration)
}

func (suite *serviceTestSuite) TestRecordClick_miss_racing_create_does_not_hide_link() {
	cache := &beforeSetCache{Engine: suite.cache}
	svc := NewLinkService(suite.store, cache, suite.settings, zap.NewNop())
	cache.hook = func() {
		_, created, err := svc.Create(suite.ctx, alice, CreateLinkInput{
			OriginalURL: "https://example.com/promo",
			Alias:       "promo1",
		})
		suite.Require().NoError(err)
		suite.Require().True(created)
	}

	_, err := svc.RecordClick(suite.ctx, "promo1", "10.0.0.1")
	suite.assertKey(err, apperrors.KeyNotFound)

	link, err := svc.RecordClick(suite.ctx, "promo1", "10.0.0.1")
	suite.Require().NoError(err)
	suite.Equal(int64(1), link.ClicksCount)
}

func (suite *serviceTestSuite) TestRecordClick_miss_racing_reactivation_does_not_hide_link() {
	link := suite.createLink(alice, CreateLinkInput{Alias: "paused1"})
	_, _, err := suite.links.SetActive(suite.ctx, alice, link.Code, false)
	suite.Require().NoError(err)

	cache := &beforeSetCache{Engine: suite.cache}
	svc := NewLinkService(suite.store, cache, suite.settings, zap.NewNop())
	cache.hook = func() {
		_, changed, err := svc.SetActive(suite.ctx, alice, link.Code, true)
		suite.Require().NoError(err)
		suite.Require().True(changed)
	}

	_, err = svc.RecordClick(suite.ctx, link.Code, "10.0.0.1")
	suite.assertKey(err, apperrors.KeyNotFound)

	got, err := svc.RecordClick(suite.ctx, link.Code, "10.0.0.1")
	suite.Require().NoError(err)
	suite.True(got.IsActive)
}
