package service

import (
	"context"
	"math/rand"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"grouplink-go/internal/apperrors"
	"grouplink-go/internal/config"
	"grouplink-go/internal/model"
	"grouplink-go/internal/repository"
)

// #RGB 或 #RRGGBB
var colorHexPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}){1,2}$`)

type paletteEntry struct {
	Name string `validate:"required,max=64"`
	Hex  string `validate:"required,colorhex"`
}

// ColorService 从调色板中为新分组挑选未被使用的颜色
type ColorService struct {
	store    *repository.Store
	validate *validator.Validate
	intn     func(n int) int
	logger   *zap.Logger
}

func NewColorService(store *repository.Store, logger *zap.Logger) *ColorService {
	v := validator.New()
	_ = v.RegisterValidation("colorhex", func(fl validator.FieldLevel) bool {
		return colorHexPattern.MatchString(fl.Field().String())
	})
	return &ColorService{
		store:    store,
		validate: v,
		intn:     rand.Intn,
		logger:   logger,
	}
}

// Assign 在调用方事务内计算 调色板 - 已用颜色，并从中均匀随机选一个
func (s *ColorService) Assign(ctx context.Context, tx *repository.Store) (string, error) {
	available, err := tx.Colors.Available(ctx)
	if err != nil {
		return "", err
	}
	if len(available) == 0 {
		return "", apperrors.NoColorsAvailable()
	}
	return available[s.intn(len(available))], nil
}

// SeedPalette 写入调色板中尚不存在的颜色，返回新增数量
func (s *ColorService) SeedPalette(ctx context.Context, palette []config.PaletteColor) (int64, error) {
	colors := make([]model.Color, 0, len(palette))
	for _, c := range palette {
		if err := s.validate.Struct(paletteEntry{Name: c.Name, Hex: c.Hex}); err != nil {
			return 0, errors.Wrapf(err, "invalid palette color %q", c.Hex)
		}
		colors = append(colors, model.Color{Name: c.Name, ColorHex: c.Hex})
	}

	created, err := s.store.Colors.Seed(ctx, colors)
	if err != nil {
		return created, errors.Wrap(err, "seed palette")
	}
	s.logger.Info("Palette seeded",
		zap.Int("palette_size", len(colors)),
		zap.Int64("created", created))
	return created, nil
}
