package model

// GroupNameMaxSize link_groups.name 的列宽
const GroupNameMaxSize = 64

// Group 用户的链接分组；名称按 owner 唯一，颜色全局唯一且创建后不可变
type Group struct {
	BaseModel
	Name    string `gorm:"size:64;not null;uniqueIndex:idx_group_owner_name" json:"name"`
	OwnerID string `gorm:"size:64;not null;uniqueIndex:idx_group_owner_name" json:"owner"`
	Color   string `gorm:"size:7;not null;uniqueIndex" json:"color"`
}

func (g *Group) IsOwnedBy(userID string) bool {
	return userID != "" && g.OwnerID == userID
}

// TableName groups 在 MySQL 8 中是保留字
func (Group) TableName() string {
	return "link_groups"
}
