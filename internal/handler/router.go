package handler

import (
	"github.com/gin-gonic/gin"
	thirdPartyI18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"

	"grouplink-go/internal/config"
	"grouplink-go/internal/middleware"
)

// Handlers 路由依赖
type Handlers struct {
	Links  *LinkHandler
	Groups *GroupHandler
	Health *HealthHandler
}

// NewRouter 注册中间件与全部路由
func NewRouter(settings *config.Settings, bundle *thirdPartyI18n.Bundle, h Handlers, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.ZapGinLogger(logger))
	r.Use(middleware.CorsMiddleware(settings.Server.AllowOrigin))
	r.Use(middleware.I18nMiddleware(bundle))
	// 必须在 AuthMiddleware 之前注册，才能渲染认证失败
	r.Use(middleware.GlobalErrorMiddleware())
	r.Use(middleware.AuthMiddleware([]byte(settings.Auth.JWTSecret), logger))

	r.GET("/health", h.Health.Health)

	api := r.Group("/api")
	{
		api.POST("/links", h.Links.Create)
		api.GET("/links/:code", h.Links.Get)

		user := api.Group("", middleware.RequireUser())
		user.GET("/links", h.Links.List)
		user.GET("/links/:code/stats", h.Links.Stats)
		user.PUT("/links/:code/status", h.Links.SetActive)
		user.PUT("/links/:code/group", h.Links.Regroup)
		user.DELETE("/links/:code", h.Links.Delete)

		user.POST("/groups", h.Groups.Create)
		user.GET("/groups", h.Groups.List)
		user.GET("/groups/:id", h.Groups.Get)
		user.PUT("/groups/:id", h.Groups.Rename)
		user.DELETE("/groups/:id", h.Groups.Delete)
	}

	// 其余 GET /<code> 为重定向
	r.NoRoute(h.Links.Redirect)
	return r
}
