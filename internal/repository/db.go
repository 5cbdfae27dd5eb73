package repository

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"grouplink-go/internal/config"
	"grouplink-go/internal/model"
	"grouplink-go/pkg/logging"
)

var DB *gorm.DB

// OpenDB 按驱动名打开数据库并迁移表结构
func OpenDB(cfg config.DBConfig, gormLogger gormlogger.Interface) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Driver == "sqlite" {
		// SQLite 只允许一个写入者，单连接避免 "database is locked"
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Color{},
		&model.Owner{},
		&model.Group{},
		&model.Link{},
		&model.DailyStat{},
	); err != nil {
		return err
	}
	return caseSensitiveCodes(db)
}

// caseSensitiveCodes 短码区分大小写。MySQL 默认的 *_ci 排序规则不区分，改为二进制排序；
// SQLite 与 Postgres 的字符串比较本身区分大小写
func caseSensitiveCodes(db *gorm.DB) error {
	if db.Dialector.Name() != "mysql" {
		return nil
	}
	return db.Exec(fmt.Sprintf(
		"ALTER TABLE `links` MODIFY `code` varchar(%d) NOT NULL COLLATE utf8mb4_bin",
		model.CodeMaxSize,
	)).Error
}

func InitDB(cfg config.DBConfig, logger *zap.Logger, atomicLogLevel zap.AtomicLevel) {
	db, err := OpenDB(cfg, logging.NewGormLogger(logger, logging.ToGormLogLevel(atomicLogLevel.Level())))
	if err != nil {
		logger.Fatal("Failed to open database",
			zap.String("driver", cfg.Driver),
			zap.Error(err))
	}

	DB = db
}
