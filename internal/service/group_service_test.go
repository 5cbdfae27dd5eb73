package service

import (
	"fmt"
	"strings"
	"sync"

	"grouplink-go/internal/apperrors"
	"grouplink-go/internal/auth"
	"grouplink-go/internal/config"
)

func (suite *serviceTestSuite) TestGroupCreate_assigns_palette_color() {
	group := suite.createGroup(alice, "  work  ")
	suite.Equal("work", group.Name)
	suite.Equal("alice", group.OwnerID)
	suite.Regexp(`^#[0-9A-F]{6}$`, group.Color)

	var palette []string
	for _, c := range suite.settings.Palette {
		palette = append(palette, c.Hex)
	}
	suite.Contains(palette, group.Color)
}

func (suite *serviceTestSuite) TestGroupCreate_validation() {
	_, err := suite.groups.Create(suite.ctx, alice, "   ")
	suite.assertKey(err, apperrors.KeyNameEmpty)

	_, err = suite.groups.Create(suite.ctx, alice, strings.Repeat("x", suite.settings.Limits.MaxGroupNameLength+1))
	suite.assertKey(err, apperrors.KeyNameTooLong)

	_, err = suite.groups.Create(suite.ctx, auth.Anonymous, "anon")
	suite.assertKey(err, apperrors.KeyUnauthorized)
}

func (suite *serviceTestSuite) TestGroupCreate_name_unique_per_owner() {
	suite.createGroup(alice, "work")

	_, err := suite.groups.Create(suite.ctx, alice, "work")
	suite.assertKey(err, apperrors.KeyNameTaken)

	suite.createGroup(bob, "work")
}

func (suite *serviceTestSuite) TestGroupCreate_quota_boundary() {
	for i := 0; i < suite.settings.Limits.MaxGroupsPerOwner; i++ {
		suite.createGroup(alice, fmt.Sprintf("g%d", i))
	}
	_, err := suite.groups.Create(suite.ctx, alice, "one too many")
	suite.assertKey(err, apperrors.KeyGroupQuotaExceeded)

	groups, err := suite.groups.List(suite.ctx, alice)
	suite.Require().NoError(err)
	suite.Len(groups, suite.settings.Limits.MaxGroupsPerOwner)
}

func (suite *serviceTestSuite) TestGroupCreate_color_exhaustion() {
	used := map[string]struct{}{}
	for i := range suite.settings.Palette {
		group := suite.createGroup(auth.User(fmt.Sprintf("user%d", i)), "g")
		used[group.Color] = struct{}{}
	}
	suite.Len(used, len(suite.settings.Palette), "colors are globally unique")

	_, err := suite.groups.Create(suite.ctx, alice, "late")
	suite.assertKey(err, apperrors.KeyColor)

	// 删除分组后颜色重新可用
	groups, err := suite.groups.List(suite.ctx, admin)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.groups.Delete(suite.ctx, admin, groups[0].ID))

	late := suite.createGroup(alice, "late")
	suite.Equal(groups[0].Color, late.Color)
}

func (suite *serviceTestSuite) TestGroupRename() {
	group := suite.createGroup(alice, "old")
	suite.createGroup(alice, "taken")

	same, changed, err := suite.groups.Rename(suite.ctx, alice, group.ID, "old")
	suite.Require().NoError(err)
	suite.False(changed)
	suite.Equal("old", same.Name)

	_, _, err = suite.groups.Rename(suite.ctx, alice, group.ID, "taken")
	suite.assertKey(err, apperrors.KeyNameTaken)

	_, _, err = suite.groups.Rename(suite.ctx, alice, group.ID, "")
	suite.assertKey(err, apperrors.KeyNameEmpty)

	_, _, err = suite.groups.Rename(suite.ctx, bob, group.ID, "mine now")
	suite.assertKey(err, apperrors.KeyNotFound)

	_, _, err = suite.groups.Rename(suite.ctx, alice, 9999, "ghost")
	suite.assertKey(err, apperrors.KeyNotFound)

	renamed, changed, err := suite.groups.Rename(suite.ctx, admin, group.ID, "new")
	suite.Require().NoError(err)
	suite.True(changed)
	suite.Equal("new", renamed.Name)
	suite.Equal(group.Color, renamed.Color, "color is immutable")
}

func (suite *serviceTestSuite) TestGroupDelete_detaches_links() {
	group := suite.createGroup(alice, "tmp")
	link := suite.createLink(alice, CreateLinkInput{GroupID: &group.ID})

	err := suite.groups.Delete(suite.ctx, bob, group.ID)
	suite.assertKey(err, apperrors.KeyNotFound)

	suite.Require().NoError(suite.groups.Delete(suite.ctx, alice, group.ID))

	stored, err := suite.store.Links.FindByCode(suite.ctx, link.Code)
	suite.Require().NoError(err)
	suite.Nil(stored.GroupID)
	suite.True(stored.IsActive)

	_, err = suite.groups.Get(suite.ctx, alice, group.ID)
	suite.assertKey(err, apperrors.KeyNotFound)
}

func (suite *serviceTestSuite) TestGroupGet_and_List() {
	group := suite.createGroup(alice, "mine")
	suite.createGroup(bob, "his")

	got, err := suite.groups.Get(suite.ctx, alice, group.ID)
	suite.Require().NoError(err)
	suite.Equal("mine", got.Name)

	_, err = suite.groups.Get(suite.ctx, bob, group.ID)
	suite.assertKey(err, apperrors.KeyNotFound)

	all, err := suite.groups.List(suite.ctx, admin)
	suite.Require().NoError(err)
	suite.Len(all, 2)

	_, err = suite.groups.List(suite.ctx, auth.Anonymous)
	suite.assertKey(err, apperrors.KeyUnauthorized)
}

func (suite *serviceTestSuite) TestSeedPalette() {
	created, err := suite.colors.SeedPalette(suite.ctx, suite.settings.Palette)
	suite.Require().NoError(err)
	suite.Zero(created, "seeding is idempotent")

	created, err = suite.colors.SeedPalette(suite.ctx, []config.PaletteColor{{Name: "Short", Hex: "#abc"}})
	suite.Require().NoError(err)
	suite.EqualValues(1, created)

	for _, bad := range []string{"abc", "#abcd", "#GGGGGG", ""} {
		_, err = suite.colors.SeedPalette(suite.ctx, []config.PaletteColor{{Name: "Bad", Hex: bad}})
		suite.Error(err, bad)
	}
}

func (suite *serviceTestSuite) TestGroupCreate_concurrent_creates_respect_quota() {
	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := suite.groups.Create(suite.ctx, alice, fmt.Sprintf("parallel-%d", i))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if apperrors.KeyOf(err) == apperrors.KeyGroupQuotaExceeded {
				rejected++
			}
		}(i)
	}
	wg.Wait()

	suite.Equal(suite.settings.Limits.MaxGroupsPerOwner, succeeded)
	suite.Equal(n-suite.settings.Limits.MaxGroupsPerOwner, rejected)

	groups, err := suite.groups.List(suite.ctx, alice)
	suite.Require().NoError(err)
	suite.Len(groups, suite.settings.Limits.MaxGroupsPerOwner)
}
