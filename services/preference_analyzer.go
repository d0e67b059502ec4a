package services

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ai_recommendation/category"
	"ai_recommendation/config"
	"ai_recommendation/logger"
	"ai_recommendation/models"
	"ai_recommendation/utils"
)

// PreferenceAnalyzer 将行为日志和主动偏好转换为分类/标签权重，并判定画像模式
type PreferenceAnalyzer struct {
	store      ActivityStore
	categories *category.Engine
	cfg        config.RecommendationConfig
}

// Analysis 画像及其依据的行为（已按重置时间过滤）
type Analysis struct {
	Profile     *models.PreferenceProfile
	Events      []models.ActivityEvent
	Preferences []models.ExplicitPreference
}

// NewPreferenceAnalyzer 创建分析器
func NewPreferenceAnalyzer(store ActivityStore, categories *category.Engine, cfg config.RecommendationConfig) *PreferenceAnalyzer {
	return &PreferenceAnalyzer{
		store:      store,
		categories: categories,
		cfg:        cfg,
	}
}

// Analyze 计算用户偏好画像
func (a *PreferenceAnalyzer) Analyze(ctx context.Context, userID int64) (*models.PreferenceProfile, error) {
	res, err := a.AnalyzeDetailed(ctx, userID)
	if err != nil {
		return nil, err
	}
	return res.Profile, nil
}

// AnalyzeDetailed 计算画像，同时返回过滤后的行为，供排序阶段复用
func (a *PreferenceAnalyzer) AnalyzeDetailed(ctx context.Context, userID int64) (*Analysis, error) {
	var (
		events []models.ActivityEvent
		prefs  []models.ExplicitPreference
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = a.store.GetActivities(gctx, userID, a.cfg.ActivityDays)
		if err != nil {
			return storeError("get activities", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		prefs, err = a.store.GetExplicitPreferences(gctx, userID)
		if err != nil {
			return storeError("get preferences", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resetTime := profileResetTime(prefs)
	filtered := filterSince(events, resetTime)

	realCount := 0
	for _, ev := range filtered {
		if models.IsRealActivity(ev.ActionType) {
			realCount++
		}
	}

	mode := models.ModeActivityBased
	if len(prefs) > 0 && realCount == 0 {
		mode = models.ModeFixedProfile
	}

	profile := a.buildProfile(filtered, prefs, mode)
	profile.TotalActivities = realCount
	profile.ProfileResetTime = resetTime

	logger.Debug("偏好分析完成",
		"user_id", userID,
		"mode", mode,
		"events", len(events),
		"filtered_events", len(filtered),
		"real_activities", realCount,
		"preferences", len(prefs))

	return &Analysis{
		Profile:     profile,
		Events:      filtered,
		Preferences: prefs,
	}, nil
}

func (a *PreferenceAnalyzer) buildProfile(events []models.ActivityEvent, prefs []models.ExplicitPreference, mode models.ProfileMode) *models.PreferenceProfile {
	categoryScores := make(map[string]float64)
	tagScores := make(map[string]float64)
	actionCounts := make(map[models.ActionType]int)
	totalWeight := 0.0

	for _, ev := range events {
		weight := models.ActionWeight(ev.ActionType)
		actionCounts[ev.ActionType]++
		totalWeight += weight

		if cat := a.EventCategory(ev); cat != "" {
			categoryScores[cat] += weight
		}
		for _, tag := range utils.SplitTags(ev.PostTags) {
			tagScores[tag] += weight
		}
		// 搜索关键词也当作标签
		if ev.ActionType == models.ActionSearch && ev.TargetKeyword != "" {
			tagScores[strings.TrimSpace(ev.TargetKeyword)] += weight * a.cfg.SearchKeywordFactor
		}
	}

	normalize := func(scores map[string]float64) map[string]float64 {
		out := make(map[string]float64, len(scores))
		if totalWeight <= 0 {
			return out
		}
		for k, v := range scores {
			out[k] = v / totalWeight
		}
		return out
	}

	profile := &models.PreferenceProfile{
		Mode:                   mode,
		Tags:                   models.NewWeightedList(normalize(tagScores), a.cfg.TopTags),
		ActionCounts:           actionCounts,
		UserSelectedCategories: []string{},
	}

	if mode == models.ModeFixedProfile {
		// 主动偏好不做归一化，保证压过稀疏的行为信号
		explicit := make(map[string]float64)
		for _, p := range prefs {
			cat := a.categories.Canonical(p.CategoryName)
			if cat == "" {
				continue
			}
			explicit[cat] += a.cfg.ExplicitPreferenceFactor * p.PreferenceScore
		}
		profile.Categories = models.NewWeightedList(explicit, a.cfg.TopCategories)
		profile.UserSelectedCategories = selectedCategories(prefs, a.categories)
		return profile
	}

	profile.Categories = models.NewWeightedList(normalize(categoryScores), a.cfg.TopCategories)
	return profile
}

// EventCategory 行为对应的分类：优先帖子分类字段，缺失时按标题/关键词推断，最后做同义词映射
func (a *PreferenceAnalyzer) EventCategory(ev models.ActivityEvent) string {
	if ev.PostCategory != "" {
		return a.categories.Canonical(ev.PostCategory)
	}

	var text string
	switch {
	case ev.TargetPostID != nil:
		text = ev.PostTitle + " " + ev.PostTags
	case ev.TargetKeyword != "":
		text = ev.TargetKeyword
	default:
		return ""
	}
	if cat, ok := a.categories.InferSingle(text); ok {
		return a.categories.Canonical(cat)
	}
	return ""
}

// EngagedCategories 行为中出现次数最多的分类（并列时全部返回）
func (a *PreferenceAnalyzer) EngagedCategories(events []models.ActivityEvent) map[string]struct{} {
	counts := make(map[string]int)
	maxCount := 0
	for _, ev := range events {
		cat := a.EventCategory(ev)
		if cat == "" {
			continue
		}
		counts[cat]++
		if counts[cat] > maxCount {
			maxCount = counts[cat]
		}
	}

	engaged := make(map[string]struct{})
	for cat, c := range counts {
		if c == maxCount {
			engaged[cat] = struct{}{}
		}
	}
	return engaged
}

func profileResetTime(prefs []models.ExplicitPreference) *time.Time {
	var latest time.Time
	for _, p := range prefs {
		if p.CreatedAt.After(latest) {
			latest = p.CreatedAt
		}
	}
	if latest.IsZero() {
		return nil
	}
	return &latest
}

func filterSince(events []models.ActivityEvent, since *time.Time) []models.ActivityEvent {
	if since == nil {
		return events
	}
	filtered := make([]models.ActivityEvent, 0, len(events))
	for _, ev := range events {
		if !ev.CreatedAt.Before(*since) {
			filtered = append(filtered, ev)
		}
	}
	return filtered
}

func selectedCategories(prefs []models.ExplicitPreference, engine *category.Engine) []string {
	names := make([]string, 0, len(prefs))
	for _, p := range prefs {
		names = append(names, engine.Canonical(p.CategoryName))
	}
	return utils.DeduplicateSlice(names)
}
