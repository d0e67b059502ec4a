package models

import "time"

// ActionType 用户行为类型
type ActionType string

const (
	ActionSearch    ActionType = "SEARCH"
	ActionClick     ActionType = "CLICK"
	ActionLike      ActionType = "LIKE"
	ActionBookmark  ActionType = "BOOKMARK"
	ActionComment   ActionType = "COMMENT"
	ActionAIClick   ActionType = "AI_CLICK"
	ActionRecommend ActionType = "RECOMMEND"
)

var actionWeights = map[ActionType]float64{
	ActionSearch:    1.0,
	ActionClick:     2.0,
	ActionRecommend: 2.5,
	ActionLike:      3.0,
	ActionComment:   3.5,
	ActionBookmark:  4.0,
	ActionAIClick:   5.0,
}

// ActionWeight 返回行为权重，未知类型默认为1.0
func ActionWeight(t ActionType) float64 {
	if w, ok := actionWeights[t]; ok {
		return w
	}
	return 1.0
}

// IsRealActivity 是否为真实互动（SEARCH 和 AI_CLICK 不计入）
func IsRealActivity(t ActionType) bool {
	switch t {
	case ActionClick, ActionLike, ActionBookmark, ActionComment, ActionRecommend:
		return true
	}
	return false
}

// ActivityEvent 用户行为日志，关联帖子时附带帖子的分类/标签/标题
type ActivityEvent struct {
	UserID        int64      `db:"user_id" json:"user_id"`
	ActionType    ActionType `db:"action_type" json:"action_type"`
	TargetPostID  *int64     `db:"target_id" json:"target_post_id,omitempty"`
	TargetKeyword string     `db:"target_keyword" json:"target_keyword,omitempty"`
	ActionDetail  string     `db:"action_detail" json:"action_detail,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`

	PostCategory string `db:"category" json:"post_category,omitempty"`
	PostTags     string `db:"tags" json:"post_tags,omitempty"`
	PostTitle    string `db:"title" json:"post_title,omitempty"`
}

// ExplicitPreference 用户主动选择的分类偏好
type ExplicitPreference struct {
	UserID          int64     `db:"user_id" json:"user_id"`
	CategoryName    string    `db:"category_name" json:"category_name"`
	PreferenceScore float64   `db:"preference_score" json:"preference_score"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// UserItemCount 按 (用户, 帖子, 行为) 聚合的计数
type UserItemCount struct {
	UserID     int64
	PostID     int64
	ActionType ActionType
	Count      int
}
