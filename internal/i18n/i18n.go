package i18n

import (
	"context"
	"embed"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

// SupportedLanguages 已加载的语言列表，由 InitI18n 填充
var SupportedLanguages []string

type localizerKey struct{}

// InitI18n 加载内置的语言文件（locales/<lang>.toml）
func InitI18n(defaultLang string) (*i18n.Bundle, error) {
	bundle := i18n.NewBundle(language.MustParse(defaultLang))
	// 注册 TOML 解析器
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	SupportedLanguages = make([]string, 0) // 清空旧列表

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		filePath := path.Join("locales", entry.Name())
		file, err := localeFS.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		if _, err := bundle.ParseMessageFileBytes(file, filePath); err != nil {
			return nil, err
		}
		SupportedLanguages = append(SupportedLanguages, extractLanguageFromPath(filePath))
	}
	return bundle, nil
}

// 从文件路径中提取语言标签（假设文件名格式为 <lang>.toml）
func extractLanguageFromPath(filePath string) string {
	baseName := path.Base(filePath)
	return strings.TrimSuffix(baseName, path.Ext(baseName))
}

func WithLocalizer(ctx context.Context, localizer *i18n.Localizer) context.Context {
	return context.WithValue(ctx, localizerKey{}, localizer)
}

// T 翻译 key；没有 Localizer 或缺少翻译时返回 fallback
func T(ctx context.Context, key string, data map[string]interface{}, fallback string) string {
	localizer, ok := ctx.Value(localizerKey{}).(*i18n.Localizer)
	if !ok {
		return fallback
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil || msg == "" {
		return fallback
	}
	return msg
}
