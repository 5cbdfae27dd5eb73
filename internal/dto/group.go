package dto

// GroupRequest 创建或重命名分组，名称的空值与长度由服务层校验
type GroupRequest struct {
	Name string `json:"name"`
}
