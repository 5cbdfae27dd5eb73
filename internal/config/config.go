// Package config 把 viper 中的配置转换为强类型的 Settings。
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"grouplink-go/internal/model"
	"grouplink-go/pkg/logging"
)

type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	AllowOrigin string `mapstructure:"allow_origin"`
	// Mode gin 运行模式：debug | release | test
	Mode string `mapstructure:"mode"`
}

type DBConfig struct {
	// Driver: mysql | postgres | sqlite
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
	// PoolSize 最大活跃连接数，0 表示不限制
	PoolSize int `mapstructure:"pool_size"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type CacheConfig struct {
	MissTTL time.Duration `mapstructure:"miss_ttl"`
}

type StatsConfig struct {
	FlushSpec string `mapstructure:"flush_spec"`
}

// Limits 业务可调参数
type Limits struct {
	CodeLength         int `mapstructure:"code_length"`
	AliasMinLength     int `mapstructure:"alias_min_length"`
	AliasMaxLength     int `mapstructure:"alias_max_length"`
	MaxURLLength       int `mapstructure:"max_url_length"`
	MaxGroupNameLength int `mapstructure:"max_group_name_length"`
	MaxGroupsPerOwner  int `mapstructure:"max_groups_per_owner"`
	MaxLinksPerGroup   int `mapstructure:"max_links_per_group"`
	CodeRetryLimit     int `mapstructure:"code_retry_limit"`
}

type PaletteColor struct {
	Name string `mapstructure:"name"`
	Hex  string `mapstructure:"hex"`
}

type Settings struct {
	Server  ServerConfig    `mapstructure:"server"`
	DB      DBConfig        `mapstructure:"db"`
	Redis   RedisConfig     `mapstructure:"redis"`
	Auth    AuthConfig      `mapstructure:"auth"`
	Cache   CacheConfig     `mapstructure:"cache"`
	Stats   StatsConfig     `mapstructure:"stats"`
	Limits  Limits          `mapstructure:"limits"`
	Palette []PaletteColor  `mapstructure:"palette"`
	Log     logging.Options `mapstructure:"log"`
}

// DefaultPalette 内置的 20 种分组颜色
func DefaultPalette() []PaletteColor {
	return []PaletteColor{
		{Name: "Pink", Hex: "#FF579F"},
		{Name: "Sky", Hex: "#34E5FF"},
		{Name: "Azure", Hex: "#3185FC"},
		{Name: "Magenta", Hex: "#FF49FF"},
		{Name: "Yellow", Hex: "#FFFF00"},
		{Name: "Lime", Hex: "#80FF00"},
		{Name: "Spring", Hex: "#37FF8B"},
		{Name: "Orange Red", Hex: "#FE5A1D"},
		{Name: "Royal Blue", Hex: "#273BE2"},
		{Name: "Crimson", Hex: "#ED254E"},
		{Name: "Sunflower", Hex: "#FEE440"},
		{Name: "Tangerine", Hex: "#FF7F11"},
		{Name: "Teal", Hex: "#177E89"},
		{Name: "Violet", Hex: "#8000FF"},
		{Name: "Lavender", Hex: "#7765E3"},
		{Name: "Cobalt", Hex: "#3B60E4"},
		{Name: "Amber", Hex: "#FFC914"},
		{Name: "Flame", Hex: "#E4572E"},
		{Name: "Raspberry", Hex: "#CE1483"},
		{Name: "Green", Hex: "#31CB00"},
	}
}

// SetDefaults 注册所有默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allow_origin", "*")
	v.SetDefault("server.mode", "release")
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "file:grouplink.db?_foreign_keys=on")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.pool_size", 50)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("cache.miss_ttl", "30s")
	v.SetDefault("stats.flush_spec", "*/10 * * * *")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "logs/grouplink.log")
	v.SetDefault("log.console", true)

	v.SetDefault("limits.code_length", 7)
	v.SetDefault("limits.alias_min_length", 4)
	v.SetDefault("limits.alias_max_length", 30)
	v.SetDefault("limits.max_url_length", 2000)
	v.SetDefault("limits.max_group_name_length", 50)
	v.SetDefault("limits.max_groups_per_owner", 10)
	v.SetDefault("limits.max_links_per_group", 100)
	v.SetDefault("limits.code_retry_limit", 50)
}

// Load 读取 viper（包括环境变量，例如 LIMITS_CODE_LENGTH）并校验
func Load(v *viper.Viper) (*Settings, error) {
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(s.Palette) == 0 {
		s.Palette = DefaultPalette()
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Default 返回只包含默认值的配置
func Default() *Settings {
	s, err := Load(viper.New())
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Settings) Validate() error {
	l := s.Limits
	switch {
	case l.CodeLength < 1:
		return fmt.Errorf("limits.code_length must be positive, got %d", l.CodeLength)
	case l.AliasMinLength < 1 || l.AliasMaxLength < l.AliasMinLength:
		return fmt.Errorf("invalid alias bounds [%d, %d]", l.AliasMinLength, l.AliasMaxLength)
	case l.MaxURLLength < 1:
		return fmt.Errorf("limits.max_url_length must be positive, got %d", l.MaxURLLength)
	case l.MaxGroupNameLength < 1:
		return fmt.Errorf("limits.max_group_name_length must be positive, got %d", l.MaxGroupNameLength)
	case l.MaxGroupsPerOwner < 0 || l.MaxLinksPerGroup < 0:
		return fmt.Errorf("quota limits must not be negative")
	case l.CodeRetryLimit < 1:
		return fmt.Errorf("limits.code_retry_limit must be positive, got %d", l.CodeRetryLimit)
	case l.CodeLength > model.CodeMaxSize || l.AliasMaxLength > model.CodeMaxSize:
		return fmt.Errorf("code and alias length must not exceed %d", model.CodeMaxSize)
	case l.MaxURLLength > model.OriginalURLMaxSize:
		return fmt.Errorf("limits.max_url_length must not exceed %d, got %d", model.OriginalURLMaxSize, l.MaxURLLength)
	case l.MaxGroupNameLength > model.GroupNameMaxSize:
		return fmt.Errorf("limits.max_group_name_length must not exceed %d, got %d", model.GroupNameMaxSize, l.MaxGroupNameLength)
	}
	switch s.DB.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported db.driver %q", s.DB.Driver)
	}
	return nil
}
