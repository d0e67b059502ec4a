package models

// RecommendationResult 推荐结果，CLI 和 HTTP 接口共用
type RecommendationResult struct {
	UserID           int64              `json:"user_id"`
	Preferences      *PreferenceProfile `json:"preferences"`
	RecommendedPosts []Post             `json:"recommended_posts"`
	TotalRecommended int                `json:"total_recommended"`
}

// NewRecommendationResult 组装推荐结果
func NewRecommendationResult(userID int64, profile *PreferenceProfile, posts []Post) *RecommendationResult {
	if posts == nil {
		posts = []Post{}
	}
	return &RecommendationResult{
		UserID:           userID,
		Preferences:      profile,
		RecommendedPosts: posts,
		TotalRecommended: len(posts),
	}
}

// CategoryInferenceResult 分类推断接口返回
type CategoryInferenceResult struct {
	Text   string   `json:"text"`
	Single string   `json:"single"`
	Multi  []string `json:"multi"`
}

// ErrorPayload CLI 错误输出
type ErrorPayload struct {
	Error string `json:"error"`
}

// Slate 打乱前的候选池（按推荐分降序，最多 max(2×limit, limit) 篇），缓存的是它而不是最终结果，每次读取重新打乱
type Slate struct {
	UserID      int64              `json:"user_id"`
	Limit       int                `json:"limit"`
	Preferences *PreferenceProfile `json:"preferences"`
	Pool        []Post             `json:"pool"`
	Shuffle     bool               `json:"shuffle"` // 最新帖子兜底时按时间顺序返回，不打乱
}
