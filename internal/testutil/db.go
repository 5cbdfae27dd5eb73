// Package testutil 测试用的数据库与请求者构造工具
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"grouplink-go/internal/config"
	"grouplink-go/internal/repository"
)

// NewSQLiteDB 每个测试独立的内存数据库，测试结束时关闭
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := repository.OpenDB(config.DBConfig{Driver: "sqlite", DSN: dsn}, gormlogger.Discard)
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
