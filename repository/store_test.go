package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"ai_recommendation/db"
	"ai_recommendation/models"
)

func newTestStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	conn, err := db.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// 内存库每个连接独立
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.EnsureSQLiteSchema(context.Background(), conn); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return NewStore(conn), conn
}

func mustExec(t *testing.T, conn *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := conn.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func seed(t *testing.T, conn *sql.DB) {
	now := time.Now().UTC()
	day := 24 * time.Hour

	mustExec(t, conn, `INSERT INTO posts (id, title, content, category, tags, view_count, like_count, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		1, "스프링 입문", "자바 백엔드", "개발", "java,spring", 10, 2, now.Add(-1*day))
	mustExec(t, conn, `INSERT INTO posts (id, title, content, category, tags, view_count, like_count, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		2, "토익 900", "리스닝 팁", "영어", "toeic", 5, 1, now.Add(-2*day))
	mustExec(t, conn, `INSERT INTO posts (id, title, content, category, tags, view_count, like_count, created_at) VALUES (?, ?, ?, NULL, NULL, ?, ?, ?)`,
		3, "독서 모임", "이번 달 책", 0, 0, now.Add(-40*day))

	mustExec(t, conn, `INSERT INTO user_activity (user_id, action_type, target_id, target_keyword, created_at) VALUES (?, ?, ?, NULL, ?)`,
		1, "CLICK", 1, now.Add(-1*time.Hour))
	mustExec(t, conn, `INSERT INTO user_activity (user_id, action_type, target_id, target_keyword, created_at) VALUES (?, ?, NULL, ?, ?)`,
		1, "SEARCH", "토익", now.Add(-2*time.Hour))
	mustExec(t, conn, `INSERT INTO user_activity (user_id, action_type, target_id, target_keyword, created_at) VALUES (?, ?, ?, NULL, ?)`,
		1, "CLICK", 2, now.Add(-40*day))

	mustExec(t, conn, `INSERT INTO user_preferences (user_id, category_name, preference_score, created_at) VALUES (?, ?, NULL, ?)`,
		1, "영어", now.Add(-10*day))

	mustExec(t, conn, `INSERT INTO post_likes (user_id, post_id, created_at) VALUES (?, ?, ?)`, 2, 1, now.Add(-1*day))
	mustExec(t, conn, `INSERT INTO post_likes (user_id, post_id, created_at) VALUES (?, ?, ?)`, 2, 1, now.Add(-1*day))
	mustExec(t, conn, `INSERT INTO bookmarks (user_id, post_id, created_at) VALUES (?, ?, ?)`, 2, 2, now.Add(-1*day))
}

func TestStoreActivitiesAndPreferences(t *testing.T) {
	store, conn := newTestStore(t)
	seed(t, conn)
	ctx := context.Background()

	events, err := store.GetActivities(ctx, 1, 30)
	if err != nil {
		t.Fatalf("GetActivities: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	click := events[0]
	if click.ActionType != models.ActionClick || click.TargetPostID == nil || *click.TargetPostID != 1 {
		t.Errorf("first event = %+v, want CLICK on post 1", click)
	}
	if click.PostCategory != "개발" || click.PostTags != "java,spring" || click.PostTitle != "스프링 입문" {
		t.Errorf("joined post fields missing: %+v", click)
	}
	search := events[1]
	if search.ActionType != models.ActionSearch || search.TargetPostID != nil || search.TargetKeyword != "토익" {
		t.Errorf("second event = %+v, want SEARCH 토익", search)
	}

	prefs, err := store.GetExplicitPreferences(ctx, 1)
	if err != nil {
		t.Fatalf("GetExplicitPreferences: %v", err)
	}
	if len(prefs) != 1 || prefs[0].CategoryName != "영어" || prefs[0].PreferenceScore != 1.0 {
		t.Errorf("prefs = %+v", prefs)
	}
	if prefs[0].CreatedAt.IsZero() {
		t.Error("preference created_at not scanned")
	}
}

func TestStoreViewedPosts(t *testing.T) {
	store, conn := newTestStore(t)
	seed(t, conn)
	ctx := context.Background()

	viewed, err := store.GetViewedPosts(ctx, 1, 30)
	if err != nil {
		t.Fatalf("GetViewedPosts: %v", err)
	}
	if len(viewed) != 1 || viewed[0].ID != 1 || viewed[0].ActionType != models.ActionClick {
		t.Errorf("viewed(1) = %+v", viewed)
	}

	viewed, err = store.GetViewedPosts(ctx, 2, 30)
	if err != nil {
		t.Fatalf("GetViewedPosts: %v", err)
	}
	actions := map[models.ActionType]int{}
	for _, v := range viewed {
		actions[v.ActionType]++
	}
	if actions[models.ActionLike] != 2 || actions[models.ActionBookmark] != 1 {
		t.Errorf("viewed(2) actions = %v", actions)
	}
}

func TestStorePosts(t *testing.T) {
	store, conn := newTestStore(t)
	seed(t, conn)
	ctx := context.Background()

	posts, err := store.GetPostsByIDs(ctx, []int64{3, 1})
	if err != nil {
		t.Fatalf("GetPostsByIDs: %v", err)
	}
	if len(posts) != 2 || posts[0].ID != 1 || posts[1].ID != 3 {
		t.Errorf("GetPostsByIDs = %+v", posts)
	}
	if posts[1].Category != "" || posts[1].Tags != "" {
		t.Errorf("NULL columns should scan as empty: %+v", posts[1])
	}

	empty, err := store.GetPostsByIDs(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("GetPostsByIDs(nil) = %v, %v", empty, err)
	}

	recent, err := store.GetRecentPosts(ctx, 2)
	if err != nil {
		t.Fatalf("GetRecentPosts: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != 1 || recent[1].ID != 2 {
		t.Errorf("GetRecentPosts = %+v", recent)
	}

	candidates, err := store.GetCandidatePosts(ctx, 1, models.CandidateFilter{}, 10)
	if err != nil {
		t.Fatalf("GetCandidatePosts: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ID != 3 {
		t.Errorf("GetCandidatePosts = %+v, want only post 3", candidates)
	}
}

func TestStoreUserItemCounts(t *testing.T) {
	store, conn := newTestStore(t)
	seed(t, conn)
	ctx := context.Background()

	actions, err := store.GetActionCountsByUserItem(ctx, 90)
	if err != nil {
		t.Fatalf("GetActionCountsByUserItem: %v", err)
	}
	if len(actions) != 2 {
		t.Errorf("len(actions) = %d, want 2: %+v", len(actions), actions)
	}

	recentOnly, err := store.GetActionCountsByUserItem(ctx, 30)
	if err != nil {
		t.Fatalf("GetActionCountsByUserItem: %v", err)
	}
	if len(recentOnly) != 1 || recentOnly[0].PostID != 1 {
		t.Errorf("30-day counts = %+v", recentOnly)
	}

	likes, err := store.GetLikesByUserItem(ctx, 90)
	if err != nil {
		t.Fatalf("GetLikesByUserItem: %v", err)
	}
	if len(likes) != 1 || likes[0].UserID != 2 || likes[0].PostID != 1 || likes[0].Count != 2 {
		t.Errorf("likes = %+v", likes)
	}

	bookmarks, err := store.GetBookmarksByUserItem(ctx, 90)
	if err != nil {
		t.Fatalf("GetBookmarksByUserItem: %v", err)
	}
	if len(bookmarks) != 1 || bookmarks[0].PostID != 2 || bookmarks[0].ActionType != models.ActionBookmark {
		t.Errorf("bookmarks = %+v", bookmarks)
	}

	users, err := store.ListActiveUsers(ctx, 1)
	if err != nil {
		t.Fatalf("ListActiveUsers: %v", err)
	}
	if len(users) != 1 || users[0] != 1 {
		t.Errorf("active users = %v", users)
	}
}

func TestStoreCandidatePostsFilteredByCategory(t *testing.T) {
	store, conn := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// 8 篇较新的개발帖子会占满不带过滤的候选集
	for i := 0; i < 8; i++ {
		mustExec(t, conn, `INSERT INTO posts (title, content, category, tags, view_count, like_count, created_at) VALUES (?, '', '개발', 'java', 0, 0, ?)`,
			"스프링 스터디", now.Add(-time.Duration(i)*time.Hour))
	}
	older := now.Add(-72 * time.Hour)
	mustExec(t, conn, `INSERT INTO posts (id, title, content, category, tags, view_count, like_count, created_at) VALUES (101, '회화 스터디', '', '영어', '', 0, 0, ?)`, older)
	mustExec(t, conn, `INSERT INTO posts (id, title, content, category, tags, view_count, like_count, created_at) VALUES (102, '주말 모임', 'TOEIC 800 목표', '기타', '', 0, 0, ?)`, older.Add(-time.Hour))
	mustExec(t, conn, `INSERT INTO posts (id, title, content, category, tags, view_count, like_count, created_at) VALUES (103, '100% 합격 후기', '', '언어', NULL, 0, 0, ?)`, older.Add(-2*time.Hour))
	mustExec(t, conn, `INSERT INTO posts (id, title, content, category, tags, view_count, like_count, created_at) VALUES (104, '독서 모임', '', '독서', NULL, 0, 0, ?)`, older.Add(-3*time.Hour))

	unfiltered, err := store.GetCandidatePosts(ctx, 1, models.CandidateFilter{}, 5)
	if err != nil {
		t.Fatalf("GetCandidatePosts: %v", err)
	}
	for _, p := range unfiltered {
		if p.Category != "개발" {
			t.Fatalf("unfiltered pool should be all newer 개발 posts, got %+v", p)
		}
	}

	filter := models.CandidateFilter{
		Categories: []string{"언어", "영어"},
		Keywords:   []string{"toeic", "100%"},
	}
	got, err := store.GetCandidatePosts(ctx, 1, filter, 5)
	if err != nil {
		t.Fatalf("GetCandidatePosts filtered: %v", err)
	}
	var gotIDs []int64
	for _, p := range got {
		gotIDs = append(gotIDs, p.ID)
	}
	want := []int64{101, 102, 103}
	if len(gotIDs) != len(want) {
		t.Fatalf("filtered = %v, want %v", gotIDs, want)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("filtered = %v, want %v", gotIDs, want)
		}
	}
}

func TestStoreProfileResetTime(t *testing.T) {
	store, conn := newTestStore(t)
	ctx := context.Background()

	reset, err := store.GetProfileResetTime(ctx, 1)
	if err != nil {
		t.Fatalf("GetProfileResetTime: %v", err)
	}
	if reset != nil {
		t.Fatalf("reset = %v, want nil without preferences", reset)
	}

	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	latest := first.Add(36 * time.Hour)
	mustExec(t, conn, `INSERT INTO user_preferences (user_id, category_name, preference_score, created_at) VALUES (1, '개발', 1, ?)`, first)
	mustExec(t, conn, `INSERT INTO user_preferences (user_id, category_name, preference_score, created_at) VALUES (1, '영어', 1, ?)`, latest)
	mustExec(t, conn, `INSERT INTO user_preferences (user_id, category_name, preference_score, created_at) VALUES (2, '독서', 1, ?)`, latest.Add(time.Hour))

	reset, err = store.GetProfileResetTime(ctx, 1)
	if err != nil {
		t.Fatalf("GetProfileResetTime: %v", err)
	}
	if reset == nil || !reset.Equal(latest) {
		t.Errorf("reset = %v, want %v", reset, latest)
	}
}
