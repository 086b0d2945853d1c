// internal/pkg/database/mysql.go
package database

import (
	"time"

	appconfig "fixflow/internal/pkg/config"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open 按统一配置建立 MySQL 连接池并返回 gorm 句柄。
func Open(cfg *appconfig.Config) (*gorm.DB, error) {
	dsnCfg := mysql.NewConfig()
	dsnCfg.User = cfg.Infra.Mysql.User
	dsnCfg.Passwd = cfg.Infra.Mysql.Password
	dsnCfg.Net = "tcp"
	dsnCfg.Addr = cfg.Infra.Mysql.Addr
	dsnCfg.DBName = cfg.Infra.Mysql.Database
	dsnCfg.ParseTime = true
	dsnCfg.Loc = time.UTC
	dsnCfg.Params = map[string]string{"charset": "utf8mb4"}

	db, err := gorm.Open(gormmysql.Open(dsnCfg.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open mysql connection")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to access underlying sql.DB")
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}
