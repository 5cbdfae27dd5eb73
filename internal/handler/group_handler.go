package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"grouplink-go/internal/apperrors"
	"grouplink-go/internal/auth"
	"grouplink-go/internal/dto"
	"grouplink-go/internal/service"
	"grouplink-go/response"
)

type GroupHandler struct {
	groups *service.GroupService
	logger *zap.Logger
}

func NewGroupHandler(groups *service.GroupService, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{groups: groups, logger: logger}
}

func (h *GroupHandler) Create(c *gin.Context) {
	var req dto.GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidRequestErrorDefault())
		return
	}

	ctx := c.Request.Context()
	group, err := h.groups.Create(ctx, auth.FromContext(ctx), req.Name)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, response.OK(group, "Group created"))
}

// Rename 名称未变化时返回 204
func (h *GroupHandler) Rename(c *gin.Context) {
	id, ok := groupID(c)
	if !ok {
		return
	}
	var req dto.GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidRequestErrorDefault())
		return
	}

	ctx := c.Request.Context()
	group, changed, err := h.groups.Rename(ctx, auth.FromContext(ctx), id, req.Name)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !changed {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, response.OK(group, "Group renamed"))
}

func (h *GroupHandler) Delete(c *gin.Context) {
	id, ok := groupID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.groups.Delete(ctx, auth.FromContext(ctx), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response.OK(struct{}{}, "Group deleted"))
}

func (h *GroupHandler) Get(c *gin.Context) {
	id, ok := groupID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	group, err := h.groups.Get(ctx, auth.FromContext(ctx), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response.OK(group, "success"))
}

func (h *GroupHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	groups, err := h.groups.List(ctx, auth.FromContext(ctx))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response.OK(groups, "success"))
}

// groupID 非法 id 按不存在处理
func groupID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		_ = c.Error(apperrors.NotFound())
		return 0, false
	}
	return uint(id), true
}
