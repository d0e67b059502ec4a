package models

import "time"

// Post 社区帖子
type Post struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Category  string    `db:"category" json:"category"`
	Tags      string    `db:"tags" json:"tags"` // 逗号分隔
	Content   string    `db:"content" json:"-"`
	ViewCount int       `db:"view_count" json:"view_count"`
	LikeCount int       `db:"like_count" json:"like_count"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	RecommendationScore float64 `json:"recommendation_score"`
	CFScore             float64 `json:"cf_score"`
	ContentScore        float64 `json:"content_score"`
}

// Text 标题+正文+标签，用于关键词推断和相似度计算
func (p *Post) Text() string {
	return p.Title + " " + p.Content + " " + p.Tags
}

// ViewedPost 用户浏览/点赞/收藏过的帖子
type ViewedPost struct {
	Post
	ActionType ActionType `json:"action_type"`
}

// CandidateFilter 内容推荐候选集的分类限制：分类字段命中任一取值，或标题/正文/标签包含任一关键词。两者都为空时不限制
type CandidateFilter struct {
	Categories []string
	Keywords   []string // 小写
}

// IsEmpty 不限制分类
func (f CandidateFilter) IsEmpty() bool {
	return len(f.Categories) == 0 && len(f.Keywords) == 0
}
