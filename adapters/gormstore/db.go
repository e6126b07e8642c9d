package gormstore

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver string
	// DSN 是完整的連線字串，sqlite 為檔案路徑
	DSN string
	// Schema 只用於 postgres，作為資料表前綴
	Schema string
}

// Open 依設定建立 gorm 連線
func Open(cfg Config) (*gorm.DB, error) {
	const op = "Open"
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("[%s] unsupported driver %q", op, cfg.Driver)
	}

	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	}
	if cfg.Driver == DriverPostgres && cfg.Schema != "" {
		gormCfg.NamingStrategy = schema.NamingStrategy{TablePrefix: cfg.Schema + "."}
	}
	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to connect to database, err=%w", op, err)
	}
	return db, nil
}
