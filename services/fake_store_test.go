package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"ai_recommendation/models"
)

var errFakeDown = errors.New("connection refused")

// fakeStore 内存实现的 ActivityStore
type fakeStore struct {
	activities map[int64][]models.ActivityEvent
	prefs      map[int64][]models.ExplicitPreference
	viewed     map[int64][]models.ViewedPost
	posts      []models.Post

	actionCounts []models.UserItemCount
	likes        []models.UserItemCount
	bookmarks    []models.UserItemCount

	// 方法名 -> 返回的错误
	fail map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		activities: make(map[int64][]models.ActivityEvent),
		prefs:      make(map[int64][]models.ExplicitPreference),
		viewed:     make(map[int64][]models.ViewedPost),
		fail:       make(map[string]error),
	}
}

func (f *fakeStore) post(id int64) models.Post {
	for _, p := range f.posts {
		if p.ID == id {
			return p
		}
	}
	return models.Post{ID: id}
}

// click 记录一次点击，同时加入浏览记录
func (f *fakeStore) click(userID, postID int64, at time.Time) {
	p := f.post(postID)
	id := postID
	f.activities[userID] = append(f.activities[userID], models.ActivityEvent{
		UserID:       userID,
		ActionType:   models.ActionClick,
		TargetPostID: &id,
		CreatedAt:    at,
		PostCategory: p.Category,
		PostTags:     p.Tags,
		PostTitle:    p.Title,
	})
	f.viewed[userID] = append(f.viewed[userID], models.ViewedPost{Post: p, ActionType: models.ActionClick})
}

func (f *fakeStore) GetActivities(_ context.Context, userID int64, _ int) ([]models.ActivityEvent, error) {
	if err := f.fail["GetActivities"]; err != nil {
		return nil, err
	}
	return f.activities[userID], nil
}

func (f *fakeStore) GetExplicitPreferences(_ context.Context, userID int64) ([]models.ExplicitPreference, error) {
	if err := f.fail["GetExplicitPreferences"]; err != nil {
		return nil, err
	}
	return f.prefs[userID], nil
}

func (f *fakeStore) GetViewedPosts(_ context.Context, userID int64, _ int) ([]models.ViewedPost, error) {
	if err := f.fail["GetViewedPosts"]; err != nil {
		return nil, err
	}
	return f.viewed[userID], nil
}

func (f *fakeStore) GetPostsByIDs(_ context.Context, ids []int64) ([]models.Post, error) {
	if err := f.fail["GetPostsByIDs"]; err != nil {
		return nil, err
	}
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Post
	for _, p := range f.posts {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) GetRecentPosts(_ context.Context, limit int) ([]models.Post, error) {
	if err := f.fail["GetRecentPosts"]; err != nil {
		return nil, err
	}
	out := append([]models.Post(nil), f.posts...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) GetCandidatePosts(_ context.Context, userID int64, filter models.CandidateFilter, limit int) ([]models.Post, error) {
	if err := f.fail["GetCandidatePosts"]; err != nil {
		return nil, err
	}
	touched := make(map[int64]bool)
	for _, ev := range f.activities[userID] {
		if ev.TargetPostID != nil {
			touched[*ev.TargetPostID] = true
		}
	}
	var out []models.Post
	for _, p := range f.posts {
		if touched[p.ID] || !matchesFilter(p, filter) {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func matchesFilter(p models.Post, filter models.CandidateFilter) bool {
	if filter.IsEmpty() {
		return true
	}
	for _, c := range filter.Categories {
		if p.Category == c {
			return true
		}
	}
	for _, kw := range filter.Keywords {
		for _, field := range []string{p.Title, p.Content, p.Tags} {
			if strings.Contains(strings.ToLower(field), kw) {
				return true
			}
		}
	}
	return false
}

func (f *fakeStore) GetProfileResetTime(_ context.Context, userID int64) (*time.Time, error) {
	if err := f.fail["GetProfileResetTime"]; err != nil {
		return nil, err
	}
	var latest *time.Time
	for _, p := range f.prefs[userID] {
		if latest == nil || p.CreatedAt.After(*latest) {
			t := p.CreatedAt
			latest = &t
		}
	}
	return latest, nil
}

func (f *fakeStore) GetActionCountsByUserItem(_ context.Context, _ int) ([]models.UserItemCount, error) {
	if err := f.fail["GetActionCountsByUserItem"]; err != nil {
		return nil, err
	}
	return f.actionCounts, nil
}

func (f *fakeStore) GetLikesByUserItem(_ context.Context, _ int) ([]models.UserItemCount, error) {
	if err := f.fail["GetLikesByUserItem"]; err != nil {
		return nil, err
	}
	return f.likes, nil
}

func (f *fakeStore) GetBookmarksByUserItem(_ context.Context, _ int) ([]models.UserItemCount, error) {
	if err := f.fail["GetBookmarksByUserItem"]; err != nil {
		return nil, err
	}
	return f.bookmarks, nil
}

func (f *fakeStore) ListActiveUsers(_ context.Context, _ int) ([]int64, error) {
	if err := f.fail["ListActiveUsers"]; err != nil {
		return nil, err
	}
	var ids []int64
	for id := range f.activities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
