package db

import (
	"context"
	"database/sql"
	"fmt"
)

// sqliteSchema 本地运行和测试使用的表结构，与线上 MySQL 表字段一致
const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		content TEXT,
		category TEXT,
		tags TEXT,
		view_count INTEGER NOT NULL DEFAULT 0,
		like_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_activity (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		action_type TEXT NOT NULL,
		target_id INTEGER,
		target_keyword TEXT,
		action_detail TEXT,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_preferences (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		category_name TEXT NOT NULL,
		preference_score REAL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS post_likes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		post_id INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bookmarks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		post_id INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_user_activity_user_created ON user_activity(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_user_activity_created ON user_activity(created_at);
	CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);
	CREATE INDEX IF NOT EXISTS idx_post_likes_created ON post_likes(created_at);
	CREATE INDEX IF NOT EXISTS idx_bookmarks_created ON bookmarks(created_at);
`

// EnsureSQLiteSchema 创建 sqlite 表结构（幂等）
func EnsureSQLiteSchema(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
