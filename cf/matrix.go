package cf

import (
	"ai_recommendation/models"
)

const (
	// MaxRating 归一化后的评分上限
	MaxRating = 5.0
	// LikeRating 每次点赞的隐式评分
	LikeRating = 3.0
	// BookmarkRating 每次收藏的隐式评分
	BookmarkRating = 4.0
)

// Matrix 用户 -> 帖子 -> 隐式评分
type Matrix map[int64]map[int64]float64

// BuildMatrix 由行为计数、点赞和收藏构建用户-帖子矩阵，并按用户归一化到 0-5
func BuildMatrix(actions, likes, bookmarks []models.UserItemCount) Matrix {
	m := make(Matrix)

	add := func(userID, postID int64, v float64) {
		row, ok := m[userID]
		if !ok {
			row = make(map[int64]float64)
			m[userID] = row
		}
		row[postID] += v
	}

	for _, a := range actions {
		add(a.UserID, a.PostID, models.ActionWeight(a.ActionType)*float64(a.Count))
	}
	for _, l := range likes {
		add(l.UserID, l.PostID, LikeRating*float64(l.Count))
	}
	for _, b := range bookmarks {
		add(b.UserID, b.PostID, BookmarkRating*float64(b.Count))
	}

	m.normalize()
	return m
}

// normalize 每个用户除以自身最大值后放大到 MaxRating
func (m Matrix) normalize() {
	for _, row := range m {
		maxScore := 0.0
		for _, v := range row {
			if v > maxScore {
				maxScore = v
			}
		}
		if maxScore <= 0 {
			continue
		}
		for postID, v := range row {
			r := v / maxScore * MaxRating
			if r > MaxRating {
				r = MaxRating
			}
			if r < 0 {
				r = 0
			}
			row[postID] = r
		}
	}
}

// Transpose 帖子 -> 用户 -> 评分
func (m Matrix) Transpose() Matrix {
	t := make(Matrix)
	for userID, row := range m {
		for postID, v := range row {
			col, ok := t[postID]
			if !ok {
				col = make(map[int64]float64)
				t[postID] = col
			}
			col[userID] = v
		}
	}
	return t
}
