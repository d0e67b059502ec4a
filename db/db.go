package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ai_recommendation/config"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

var (
	DB *sql.DB // 数据库连接
)

// Open 按驱动打开连接，sqlite 使用 modernc 纯 Go 驱动
func Open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	return sql.Open(driver, dsn)
}

// InitWithConfig 使用配置初始化数据库连接池
func InitWithConfig(cfg *config.Config) error {
	conn, err := Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return err
	}

	// 从配置读取连接池参数，提供默认值保护
	maxOpenConns := cfg.DB.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = 50 // 默认最大连接数
	}

	maxIdleConns := cfg.DB.MaxIdleConns
	if maxIdleConns <= 0 {
		maxIdleConns = 10 // 默认最大空闲连接数
	}

	connMaxLifetime := cfg.DB.ConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = 60 // 默认连接最大生命周期（分钟）
	}

	if cfg.DB.Driver == "sqlite" {
		// sqlite 单写者
		maxOpenConns = 1
		maxIdleConns = 1
	}

	conn.SetMaxOpenConns(maxOpenConns)
	conn.SetMaxIdleConns(maxIdleConns)
	conn.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return err
	}
	if cfg.DB.Driver == "sqlite" {
		if err := EnsureSQLiteSchema(context.Background(), conn); err != nil {
			conn.Close()
			return err
		}
	}
	DB = conn
	return nil
}

// Close 关闭连接
func Close() error {
	if DB == nil {
		return nil
	}
	return DB.Close()
}
