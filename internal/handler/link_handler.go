package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"grouplink-go/internal/apperrors"
	"grouplink-go/internal/auth"
	"grouplink-go/internal/dto"
	"grouplink-go/internal/service"
	"grouplink-go/response"
)

type LinkHandler struct {
	links  *service.LinkService
	logger *zap.Logger
}

func NewLinkHandler(links *service.LinkService, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{links: links, logger: logger}
}

// Create 新建返回 201，匿名重复提交同一链接返回 200 与已有记录
func (h *LinkHandler) Create(c *gin.Context) {
	var req dto.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Request body binding failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		_ = c.Error(apperrors.InvalidRequestErrorDefault())
		return
	}

	ctx := c.Request.Context()
	link, created, err := h.links.Create(ctx, auth.FromContext(ctx), service.CreateLinkInput{
		OriginalURL: req.OriginalURL,
		Alias:       req.Alias,
		GroupID:     req.GroupID,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	if created {
		c.JSON(http.StatusCreated, response.OK(link, "Link created"))
		return
	}
	c.JSON(http.StatusOK, response.OK(link, "Link already exists"))
}

// Get 读取链接并计一次点击
func (h *LinkHandler) Get(c *gin.Context) {
	link, err := h.links.RecordClick(c.Request.Context(), c.Param("code"), c.ClientIP())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response.OK(link, "success"))
}

// Redirect 处理 GET /<code>，挂在 NoRoute 上避免与 /api 路由冲突
func (h *LinkHandler) Redirect(c *gin.Context) {
	code := strings.TrimPrefix(c.Request.URL.Path, "/")
	if c.Request.Method != http.MethodGet || code == "" || strings.Contains(code, "/") {
		_ = c.Error(apperrors.NotFound())
		return
	}

	link, err := h.links.RecordClick(c.Request.Context(), code, c.ClientIP())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Redirect(http.StatusFound, link.OriginalURL)
}

// SetActive 状态未变化时返回 204
func (h *LinkHandler) SetActive(c *gin.Context) {
	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidRequestError("isActive must be one of true, false, 1, 0"))
		return
	}

	ctx := c.Request.Context()
	link, changed, err := h.links.SetActive(ctx, auth.FromContext(ctx), c.Param("code"), req.IsActive.Bool())
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !changed {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, response.OK(link, "Link status updated"))
}

// Regroup 分组未变化时返回 204
func (h *LinkHandler) Regroup(c *gin.Context) {
	var req dto.RegroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidRequestErrorDefault())
		return
	}

	ctx := c.Request.Context()
	link, changed, err := h.links.Regroup(ctx, auth.FromContext(ctx), c.Param("code"), req.GroupID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !changed {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, response.OK(link, "Link group updated"))
}

func (h *LinkHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.links.Delete(ctx, auth.FromContext(ctx), c.Param("code")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response.OK(struct{}{}, "Link deleted"))
}

// List 分页查询链接列表
func (h *LinkHandler) List(c *gin.Context) {
	var q dto.ListLinksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(apperrors.InvalidRequestError("page must be positive and size must be between 1 and 100"))
		return
	}

	ctx := c.Request.Context()
	page, err := h.links.List(ctx, auth.FromContext(ctx), q.GroupID, q.Page, q.Size)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response.OK(page, "success"))
}

func (h *LinkHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := h.links.Stats(ctx, auth.FromContext(ctx), c.Param("code"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response.OK(stats, "success"))
}
