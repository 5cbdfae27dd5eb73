package model

import "time"

// LinkKind 区分系统生成的短码与用户别名，两者共享同一个短码命名空间
type LinkKind string

const (
	LinkKindGenerated LinkKind = "generated"
	LinkKindAlias     LinkKind = "alias"
)

// 列宽，配置中的长度上限不能超过这些值
const (
	CodeMaxSize        = 32
	OriginalURLMaxSize = 2000
)

type Link struct {
	BaseModel
	Kind        LinkKind `gorm:"size:16;not null" json:"kind"`
	OriginalURL string   `gorm:"size:2000;not null" json:"originalUrl"`
	Code        string   `gorm:"uniqueIndex;size:32;not null" json:"code"`
	// AnonURLKey 仅匿名生成链接填写（原始 URL 的 sha256），其他链接为 NULL
	AnonURLKey    *string    `gorm:"uniqueIndex;size:64" json:"-"`
	OwnerID       *string    `gorm:"size:64;index" json:"owner"`
	GroupID       *uint      `gorm:"index" json:"groupId"`
	Group         *Group     `gorm:"constraint:OnDelete:SET NULL" json:"group,omitempty"`
	ClicksCount   int64      `gorm:"not null;default:0" json:"clicksCount"`
	LastClickedAt *time.Time `json:"lastClickedAt"`
	IsActive      bool       `gorm:"not null;default:true" json:"isActive"`
}

// IsOwnedBy 匿名链接不属于任何人
func (l *Link) IsOwnedBy(userID string) bool {
	return l.OwnerID != nil && userID != "" && *l.OwnerID == userID
}
