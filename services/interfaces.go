package services

import (
	"context"
	"time"

	"ai_recommendation/models"
)

// ActivityStore 推荐引擎依赖的只读数据源
type ActivityStore interface {
	GetActivities(ctx context.Context, userID int64, days int) ([]models.ActivityEvent, error)
	GetExplicitPreferences(ctx context.Context, userID int64) ([]models.ExplicitPreference, error)
	GetViewedPosts(ctx context.Context, userID int64, days int) ([]models.ViewedPost, error)
	GetPostsByIDs(ctx context.Context, ids []int64) ([]models.Post, error)
	GetRecentPosts(ctx context.Context, limit int) ([]models.Post, error)
	GetCandidatePosts(ctx context.Context, userID int64, filter models.CandidateFilter, limit int) ([]models.Post, error)
	GetActionCountsByUserItem(ctx context.Context, days int) ([]models.UserItemCount, error)
	GetLikesByUserItem(ctx context.Context, days int) ([]models.UserItemCount, error)
	GetBookmarksByUserItem(ctx context.Context, days int) ([]models.UserItemCount, error)
	GetProfileResetTime(ctx context.Context, userID int64) (*time.Time, error)
}

// ActiveUserLister 缓存预热用
type ActiveUserLister interface {
	ListActiveUsers(ctx context.Context, days int) ([]int64, error)
}

// ResultCache 候选池缓存，按 (user_id, 偏好重置时间, limit) 区分，未命中时返回 nil, nil
type ResultCache interface {
	GetSlate(ctx context.Context, userID int64, limit int, resetAt *time.Time) (*models.Slate, error)
	SetSlate(ctx context.Context, userID int64, limit int, resetAt *time.Time, slate *models.Slate) error
}
