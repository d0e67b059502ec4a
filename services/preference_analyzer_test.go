package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"ai_recommendation/category"
	"ai_recommendation/config"
	"ai_recommendation/models"
)

var baseTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestAnalyzer(store ActivityStore) *PreferenceAnalyzer {
	return NewPreferenceAnalyzer(store, category.NewEngine(category.DefaultDictionary()), config.Default().Recommendation)
}

func postID(id int64) *int64 { return &id }

func TestAnalyzeFixedProfile(t *testing.T) {
	store := newFakeStore()
	store.prefs[1] = []models.ExplicitPreference{
		{UserID: 1, CategoryName: "언어", PreferenceScore: 1.0, CreatedAt: baseTime},
	}
	store.activities[1] = []models.ActivityEvent{
		// 重置时间之前的点击不计入
		{UserID: 1, ActionType: models.ActionClick, TargetPostID: postID(5), PostCategory: "개발", PostTags: "java", CreatedAt: baseTime.Add(-time.Hour)},
		// 搜索不是真实互动
		{UserID: 1, ActionType: models.ActionSearch, TargetKeyword: "토익", CreatedAt: baseTime.Add(time.Hour)},
	}

	profile, err := newTestAnalyzer(store).Analyze(context.Background(), 1)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if profile.Mode != models.ModeFixedProfile {
		t.Errorf("mode = %s, want %s", profile.Mode, models.ModeFixedProfile)
	}
	wantCats := models.WeightedList{{Name: "영어", Weight: 5.0}}
	if !reflect.DeepEqual(profile.Categories, wantCats) {
		t.Errorf("categories = %+v, want %+v", profile.Categories, wantCats)
	}
	if !reflect.DeepEqual(profile.UserSelectedCategories, []string{"영어"}) {
		t.Errorf("user_selected_categories = %v", profile.UserSelectedCategories)
	}
	if profile.TotalActivities != 0 {
		t.Errorf("total_activities = %d, want 0", profile.TotalActivities)
	}
	if len(profile.Tags) != 1 || profile.Tags[0].Name != "토익" || !approxEqual(profile.Tags[0].Weight, 0.8) {
		t.Errorf("tags = %+v, want [토익 0.8]", profile.Tags)
	}
	if profile.ProfileResetTime == nil || !profile.ProfileResetTime.Equal(baseTime) {
		t.Errorf("profile_reset_time = %v, want %v", profile.ProfileResetTime, baseTime)
	}
}

func TestAnalyzeActivityBased(t *testing.T) {
	store := newFakeStore()
	store.prefs[1] = []models.ExplicitPreference{
		{UserID: 1, CategoryName: "영어", PreferenceScore: 1.0, CreatedAt: baseTime},
	}
	store.activities[1] = []models.ActivityEvent{
		{UserID: 1, ActionType: models.ActionClick, TargetPostID: postID(10), PostCategory: "개발", PostTags: "spring,java", CreatedAt: baseTime.Add(time.Minute)},
		// 分类缺失时按标题推断
		{UserID: 1, ActionType: models.ActionLike, TargetPostID: postID(11), PostTitle: "토익 900점 달성", CreatedAt: baseTime.Add(2 * time.Minute)},
	}

	res, err := newTestAnalyzer(store).AnalyzeDetailed(context.Background(), 1)
	if err != nil {
		t.Fatalf("AnalyzeDetailed: %v", err)
	}
	profile := res.Profile

	if profile.Mode != models.ModeActivityBased {
		t.Errorf("mode = %s, want %s", profile.Mode, models.ModeActivityBased)
	}
	if profile.UserSelectedCategories == nil || len(profile.UserSelectedCategories) != 0 {
		t.Errorf("user_selected_categories = %#v, want empty", profile.UserSelectedCategories)
	}
	if profile.TotalActivities != 2 {
		t.Errorf("total_activities = %d, want 2", profile.TotalActivities)
	}

	// CLICK 2 + LIKE 3 = 5
	wantCats := map[string]float64{"영어": 0.6, "개발": 0.4}
	if len(profile.Categories) != len(wantCats) || profile.Categories[0].Name != "영어" {
		t.Fatalf("categories = %+v", profile.Categories)
	}
	for name, w := range wantCats {
		if got, _ := profile.Categories.Get(name); !approxEqual(got, w) {
			t.Errorf("category %s = %v, want %v", name, got, w)
		}
	}
	if names := profile.Tags.Names(); !reflect.DeepEqual(names, []string{"java", "spring"}) {
		t.Errorf("tags = %v, want [java spring]", names)
	}
	if got, _ := profile.Tags.Get("spring"); !approxEqual(got, 0.4) {
		t.Errorf("tag spring = %v, want 0.4", got)
	}

	wantCounts := map[models.ActionType]int{models.ActionClick: 1, models.ActionLike: 1}
	if !reflect.DeepEqual(profile.ActionCounts, wantCounts) {
		t.Errorf("action_counts = %v, want %v", profile.ActionCounts, wantCounts)
	}
	if len(res.Events) != 2 {
		t.Errorf("events = %d, want 2", len(res.Events))
	}
}

func TestAnalyzeNoSignal(t *testing.T) {
	profile, err := newTestAnalyzer(newFakeStore()).Analyze(context.Background(), 7)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !profile.IsEmpty() {
		t.Errorf("expected empty profile, got %+v", profile)
	}
	if profile.Mode != models.ModeActivityBased {
		t.Errorf("mode = %s, want %s", profile.Mode, models.ModeActivityBased)
	}
	if profile.ActionCounts == nil || profile.UserSelectedCategories == nil {
		t.Errorf("action_counts and user_selected_categories must be non-nil")
	}
	if profile.ProfileResetTime != nil {
		t.Errorf("profile_reset_time = %v, want nil", profile.ProfileResetTime)
	}
}

func TestAnalyzeStoreError(t *testing.T) {
	tests := []string{"GetActivities", "GetExplicitPreferences"}
	for _, method := range tests {
		t.Run(method, func(t *testing.T) {
			store := newFakeStore()
			store.fail[method] = errFakeDown

			_, err := newTestAnalyzer(store).Analyze(context.Background(), 1)
			if !errors.Is(err, ErrStoreUnavailable) {
				t.Fatalf("err = %v, want ErrStoreUnavailable", err)
			}
			if !errors.Is(err, errFakeDown) {
				t.Errorf("err = %v, want wrapped cause", err)
			}
		})
	}
}

func TestEngagedCategories(t *testing.T) {
	a := newTestAnalyzer(newFakeStore())
	events := []models.ActivityEvent{
		{ActionType: models.ActionClick, TargetPostID: postID(1), PostCategory: "개발"},
		{ActionType: models.ActionClick, TargetPostID: postID(2), PostCategory: "코딩"},
		{ActionType: models.ActionSearch, TargetKeyword: "토익 점수"},
		{ActionType: models.ActionClick, TargetPostID: postID(4)},
	}

	got := a.EngagedCategories(events)
	if !reflect.DeepEqual(setKeys(got), []string{"개발"}) {
		t.Errorf("EngagedCategories = %v, want [개발]", setKeys(got))
	}

	// 并列时全部保留
	tied := append(events, models.ActivityEvent{ActionType: models.ActionLike, TargetPostID: postID(3), PostCategory: "언어"})
	got = a.EngagedCategories(tied)
	if !reflect.DeepEqual(setKeys(got), []string{"개발", "영어"}) {
		t.Errorf("EngagedCategories = %v, want [개발 영어]", setKeys(got))
	}
}
