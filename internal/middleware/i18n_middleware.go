package middleware

import (
	"github.com/gin-gonic/gin"
	thirdPartyI18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"grouplink-go/internal/i18n"
)

func I18nMiddleware(bundle *thirdPartyI18n.Bundle) gin.HandlerFunc {
	return func(c *gin.Context) {
		acceptLanguage := c.GetHeader("Accept-Language")
		tags, _, _ := language.ParseAcceptLanguage(acceptLanguage)
		lang := "en" // 默认语言
		for _, tag := range tags {
			base, _ := tag.Base()
			if contains(i18n.SupportedLanguages, base.String()) {
				lang = base.String()
				break
			}
		}

		localizer := thirdPartyI18n.NewLocalizer(bundle, lang)
		c.Request = c.Request.WithContext(i18n.WithLocalizer(c.Request.Context(), localizer))
		c.Next()
	}
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
