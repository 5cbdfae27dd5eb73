package dto

// CreateLinkRequest 创建链接，alias 为空时由系统生成短码
type CreateLinkRequest struct {
	OriginalURL string `json:"originalUrl" binding:"required"`
	Alias       string `json:"alias"`
	GroupID     *uint  `json:"groupId" binding:"omitempty,min=1"`
}

// SetActiveRequest isActive 只接受 true/false/1/0 及其字符串形式
type SetActiveRequest struct {
	IsActive *ActiveFlag `json:"isActive" binding:"required"`
}

// RegroupRequest groupId 为 null 表示移出分组
type RegroupRequest struct {
	GroupID *uint `json:"groupId" binding:"omitempty,min=1"`
}

// ListLinksQuery 分页查询参数
type ListLinksQuery struct {
	GroupID *uint `form:"group_id" binding:"omitempty,min=1"`
	Page    int   `form:"page,default=1" binding:"min=1"`
	Size    int   `form:"size,default=10" binding:"min=1,max=100"`
}
