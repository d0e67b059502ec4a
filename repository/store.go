package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ai_recommendation/models"
)

// Store 推荐所需的只读查询。时间窗口的截止时间在 Go 侧计算，SQL 同时兼容 MySQL 和 sqlite
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore 创建 Store
func NewStore(conn *sql.DB) *Store {
	return &Store{db: conn, now: time.Now}
}

// cutoff 窗口起点，统一使用 UTC
func (s *Store) cutoff(days int) time.Time {
	return s.now().AddDate(0, 0, -days).UTC()
}

const postColumns = `p.id, p.title, p.content, p.category, p.tags, p.view_count, p.like_count, p.created_at`

// GetActivities 用户最近 days 天的行为日志，关联帖子信息，按时间倒序
func (s *Store) GetActivities(ctx context.Context, userID int64, days int) ([]models.ActivityEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			ua.user_id,
			ua.action_type,
			ua.target_id,
			ua.target_keyword,
			ua.action_detail,
			ua.created_at,
			p.category,
			p.tags,
			p.title
		FROM user_activity ua
		LEFT JOIN posts p ON ua.target_id = p.id
		WHERE ua.user_id = ?
		  AND ua.created_at >= ?
		ORDER BY ua.created_at DESC
	`, userID, s.cutoff(days))
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	events := make([]models.ActivityEvent, 0)
	for rows.Next() {
		var (
			ev                                     models.ActivityEvent
			actionType                             string
			targetID                               sql.NullInt64
			keyword, detail, category, tags, title sql.NullString
		)
		if err := rows.Scan(&ev.UserID, &actionType, &targetID, &keyword, &detail, dbTime{&ev.CreatedAt},
			&category, &tags, &title); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		ev.ActionType = models.ActionType(strings.ToUpper(strings.TrimSpace(actionType)))
		if targetID.Valid {
			id := targetID.Int64
			ev.TargetPostID = &id
		}
		ev.TargetKeyword = strings.TrimSpace(keyword.String)
		ev.ActionDetail = detail.String
		ev.PostCategory = strings.TrimSpace(category.String)
		ev.PostTags = tags.String
		ev.PostTitle = title.String
		events = append(events, ev)
	}
	return events, rows.Err()
}

// GetExplicitPreferences 用户主动选择的分类，score 为空或0时按1.0处理
func (s *Store) GetExplicitPreferences(ctx context.Context, userID int64) ([]models.ExplicitPreference, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, category_name, preference_score, created_at
		FROM user_preferences
		WHERE user_id = ?
		ORDER BY preference_score DESC, created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query preferences: %w", err)
	}
	defer rows.Close()

	prefs := make([]models.ExplicitPreference, 0)
	for rows.Next() {
		var (
			p     models.ExplicitPreference
			score sql.NullFloat64
		)
		if err := rows.Scan(&p.UserID, &p.CategoryName, &score, dbTime{&p.CreatedAt}); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		p.CategoryName = strings.TrimSpace(p.CategoryName)
		p.PreferenceScore = 1.0
		if score.Valid && score.Float64 > 0 {
			p.PreferenceScore = score.Float64
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

// GetProfileResetTime 最近一次写入主动偏好的时间，没有偏好时返回 nil
func (s *Store) GetProfileResetTime(ctx context.Context, userID int64) (*time.Time, error) {
	var t time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(created_at)
		FROM user_preferences
		WHERE user_id = ?
	`, userID).Scan(dbTime{&t})
	if err != nil {
		return nil, fmt.Errorf("query profile reset time: %w", err)
	}
	if t.IsZero() {
		return nil, nil
	}
	return &t, nil
}

// GetViewedPosts 用户最近 days 天点击/点赞/收藏/AI点击过的帖子，同一帖子可能出现多次
func (s *Store) GetViewedPosts(ctx context.Context, userID int64, days int) ([]models.ViewedPost, error) {
	cutoff := s.cutoff(days)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postColumns+`, ua.action_type
		FROM user_activity ua
		JOIN posts p ON ua.target_id = p.id
		WHERE ua.user_id = ?
		  AND ua.created_at >= ?
		  AND ua.action_type IN ('CLICK', 'LIKE', 'BOOKMARK', 'AI_CLICK')
		UNION ALL
		SELECT `+postColumns+`, 'LIKE'
		FROM post_likes pl
		JOIN posts p ON pl.post_id = p.id
		WHERE pl.user_id = ?
		  AND pl.created_at >= ?
		UNION ALL
		SELECT `+postColumns+`, 'BOOKMARK'
		FROM bookmarks b
		JOIN posts p ON b.post_id = p.id
		WHERE b.user_id = ?
		  AND b.created_at >= ?
	`, userID, cutoff, userID, cutoff, userID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query viewed posts: %w", err)
	}
	defer rows.Close()

	viewed := make([]models.ViewedPost, 0)
	for rows.Next() {
		var (
			v          models.ViewedPost
			actionType string
		)
		if err := scanPost(rows, &v.Post, &actionType); err != nil {
			return nil, fmt.Errorf("scan viewed post: %w", err)
		}
		v.ActionType = models.ActionType(actionType)
		viewed = append(viewed, v)
	}
	return viewed, rows.Err()
}

// GetPostsByIDs 按ID批量查询帖子
func (s *Store) GetPostsByIDs(ctx context.Context, ids []int64) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	return s.queryPosts(ctx, `
		SELECT `+postColumns+`
		FROM posts p
		WHERE p.id IN (`+placeholders(len(ids))+`)
		ORDER BY p.created_at DESC, p.id DESC
	`, args...)
}

// GetRecentPosts 最新帖子
func (s *Store) GetRecentPosts(ctx context.Context, limit int) ([]models.Post, error) {
	return s.queryPosts(ctx, `
		SELECT `+postColumns+`
		FROM posts p
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT ?
	`, limit)
}

// GetCandidatePosts 用户从未互动过的最新帖子，作为内容推荐的候选集。
// filter 非空时在 SQL 中按分类字段或关键词预筛，候选集不会被其他分类的新帖子挤占
func (s *Store) GetCandidatePosts(ctx context.Context, userID int64, filter models.CandidateFilter, limit int) ([]models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		WHERE p.id NOT IN (
			SELECT DISTINCT target_id
			FROM user_activity
			WHERE user_id = ? AND target_id IS NOT NULL
		)`
	args := []any{userID}

	if !filter.IsEmpty() {
		var conds []string
		if len(filter.Categories) > 0 {
			conds = append(conds, "p.category IN ("+placeholders(len(filter.Categories))+")")
			for _, c := range filter.Categories {
				args = append(args, c)
			}
		}
		for _, kw := range filter.Keywords {
			conds = append(conds, `LOWER(p.title) LIKE ? ESCAPE '!' OR LOWER(p.content) LIKE ? ESCAPE '!' OR LOWER(p.tags) LIKE ? ESCAPE '!'`)
			pattern := "%" + escapeLike(kw) + "%"
			args = append(args, pattern, pattern, pattern)
		}
		query += "\n\t\t  AND (" + strings.Join(conds, " OR ") + ")"
	}

	query += `
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT ?`
	args = append(args, limit)
	return s.queryPosts(ctx, query, args...)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// escapeLike 转义 LIKE 通配符，转义字符为 '!'（MySQL 和 sqlite 都支持）
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// GetActionCountsByUserItem 按 (用户, 帖子, 行为) 聚合的行为次数
func (s *Store) GetActionCountsByUserItem(ctx context.Context, days int) ([]models.UserItemCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ua.user_id, ua.target_id, ua.action_type, COUNT(*)
		FROM user_activity ua
		WHERE ua.target_id IS NOT NULL
		  AND ua.created_at >= ?
		GROUP BY ua.user_id, ua.target_id, ua.action_type
	`, s.cutoff(days))
	if err != nil {
		return nil, fmt.Errorf("query action counts: %w", err)
	}
	defer rows.Close()

	counts := make([]models.UserItemCount, 0)
	for rows.Next() {
		var (
			c          models.UserItemCount
			actionType string
		)
		if err := rows.Scan(&c.UserID, &c.PostID, &actionType, &c.Count); err != nil {
			return nil, fmt.Errorf("scan action count: %w", err)
		}
		c.ActionType = models.ActionType(strings.ToUpper(actionType))
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// GetLikesByUserItem 按 (用户, 帖子) 聚合的点赞次数
func (s *Store) GetLikesByUserItem(ctx context.Context, days int) ([]models.UserItemCount, error) {
	return s.countByUserItem(ctx, "post_likes", models.ActionLike, days)
}

// GetBookmarksByUserItem 按 (用户, 帖子) 聚合的收藏次数
func (s *Store) GetBookmarksByUserItem(ctx context.Context, days int) ([]models.UserItemCount, error) {
	return s.countByUserItem(ctx, "bookmarks", models.ActionBookmark, days)
}

// table 只来自内部常量
func (s *Store) countByUserItem(ctx context.Context, table string, action models.ActionType, days int) ([]models.UserItemCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, post_id, COUNT(*)
		FROM `+table+`
		WHERE created_at >= ?
		GROUP BY user_id, post_id
	`, s.cutoff(days))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	counts := make([]models.UserItemCount, 0)
	for rows.Next() {
		c := models.UserItemCount{ActionType: action}
		if err := rows.Scan(&c.UserID, &c.PostID, &c.Count); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// ListActiveUsers 最近 days 天有行为记录的用户
func (s *Store) ListActiveUsers(ctx context.Context, days int) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT user_id
		FROM user_activity
		WHERE created_at >= ?
		ORDER BY user_id
	`, s.cutoff(days))
	if err != nil {
		return nil, fmt.Errorf("query active users: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan active user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Ping 检查数据库连通性
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) queryPosts(ctx context.Context, query string, args ...any) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		var p models.Post
		if err := scanPost(rows, &p); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// scanPost 按 postColumns 的顺序扫描，extra 追加在后面
func scanPost(rows *sql.Rows, p *models.Post, extra ...any) error {
	var (
		content, category, tags sql.NullString
		views, likes            sql.NullInt64
	)
	dest := []any{&p.ID, &p.Title, &content, &category, &tags, &views, &likes, dbTime{&p.CreatedAt}}
	dest = append(dest, extra...)
	if err := rows.Scan(dest...); err != nil {
		return err
	}
	p.Content = content.String
	p.Category = strings.TrimSpace(category.String)
	p.Tags = tags.String
	p.ViewCount = int(views.Int64)
	p.LikeCount = int(likes.Int64)
	return nil
}
