package constant

import (
	"fmt"
	"time"
)

// 常量定义
const (
	BasePrefix = "redirect:"
	Separator  = ":"
)

// 缓存键模板
const (
	MissingCode = BasePrefix + "missing" + Separator + "%s"                // redirect:missing:code
	DailyUV     = BasePrefix + "uv" + Separator + "%s" + Separator + "%s" // redirect:uv:yyyy-MM-dd:code
)

// StatDateLayout daily_stats.date 与 UV 键共用的日期格式
const StatDateLayout = "2006-01-02"

// GetMissingCodeKey 生成短码不存在/已停用的负缓存 key
func GetMissingCodeKey(code string) string {
	return fmt.Sprintf(MissingCode, code)
}

// GetStatDate 生成日期（格式：yyyy-MM-dd）
func GetStatDate(t time.Time) string {
	return t.Format(StatDateLayout)
}

// GetDailyUVKey 生成每日 UV 键（格式：redirect:uv:yyyy-MM-dd:code）
func GetDailyUVKey(code, date string) string {
	return fmt.Sprintf(DailyUV, date, code)
}
