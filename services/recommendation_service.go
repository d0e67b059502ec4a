package services

import (
	"context"
	"sync"

	"ai_recommendation/category"
	"ai_recommendation/logger"
	"ai_recommendation/metrics"
	"ai_recommendation/models"
	"ai_recommendation/utils"
)

// RecommendationService HTTP 和调度器使用的推荐入口，在排序器外层加候选池缓存
type RecommendationService struct {
	ranker     *HybridRanker
	categories *category.Engine
	cache      ResultCache
}

// NewRecommendationService cache 可以为 nil
func NewRecommendationService(ranker *HybridRanker, categories *category.Engine, cache ResultCache) *RecommendationService {
	return &RecommendationService{
		ranker:     ranker,
		categories: categories,
		cache:      cache,
	}
}

// Get 获取推荐结果，refresh 为 true 时跳过缓存重新计算。
// 缓存的是打乱前的候选池，每次读取重新打乱；键包含偏好重置时间，写入新偏好后不会读到旧画像
func (s *RecommendationService) Get(ctx context.Context, userID int64, limit int, refresh bool) (*models.RecommendationResult, error) {
	if err := s.ranker.validate(userID, limit); err != nil {
		return nil, err
	}
	if s.cache == nil {
		return s.ranker.RecommendWithProfile(ctx, userID, limit)
	}

	resetAt, err := s.ranker.ProfileResetTime(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !refresh {
		cached, err := s.cache.GetSlate(ctx, userID, limit, resetAt)
		if err != nil {
			logger.Warn("读取推荐缓存失败", "user_id", userID, "error", err)
		}
		if cached != nil {
			metrics.RecordCacheHit()
			return s.ranker.Draw(cached), nil
		}
		metrics.RecordCacheMiss()
	}

	slate, err := s.ranker.BuildSlate(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetSlate(ctx, userID, limit, resetAt, slate); err != nil {
		logger.Warn("写入推荐缓存失败", "user_id", userID, "error", err)
	}
	return s.ranker.Draw(slate), nil
}

// Profile 只计算偏好画像
func (s *RecommendationService) Profile(ctx context.Context, userID int64) (*models.PreferenceProfile, error) {
	if userID <= 0 || userID > utils.MaxUserID {
		return nil, invalidInput("user_id must be between 1 and %d, got %d", utils.MaxUserID, userID)
	}
	return s.ranker.Analyzer().Analyze(ctx, userID)
}

// InferCategory 对任意文本做分类推断
func (s *RecommendationService) InferCategory(text string) *models.CategoryInferenceResult {
	single, _ := s.categories.InferSingle(text)
	multi := make([]string, 0, 3)
	// 按优先级输出，保证结果稳定
	inferred := s.categories.InferMulti(text)
	for _, cat := range s.categories.Categories() {
		if _, ok := inferred[cat]; ok {
			multi = append(multi, cat)
		}
	}
	return &models.CategoryInferenceResult{
		Text:   text,
		Single: single,
		Multi:  multi,
	}
}

// WarmStats 一次预热的统计
type WarmStats struct {
	Processed int
	Completed int
	Failed    int
}

// WarmCache 并发为一批用户重新计算推荐并写入缓存
func (s *RecommendationService) WarmCache(ctx context.Context, userIDs []int64, limit, concurrency int) WarmStats {
	if concurrency <= 0 {
		concurrency = 1
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)

	var mu sync.Mutex
	var stats WarmStats

	for _, id := range userIDs {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		semaphore <- struct{}{} // acquire semaphore

		go func(userID int64) {
			defer wg.Done()
			defer func() { <-semaphore }() // release semaphore

			_, err := s.Get(ctx, userID, limit, true)
			mu.Lock()
			defer mu.Unlock()
			stats.Processed++
			if err != nil {
				stats.Failed++
				logger.Error("预热用户推荐失败", "user_id", userID, "error", err)
				return
			}
			stats.Completed++
		}(id)
	}

	wg.Wait()
	metrics.CacheWarmUsers.Set(float64(stats.Processed))
	logger.Info("推荐缓存预热完成",
		"processed", stats.Processed,
		"completed", stats.Completed,
		"failed", stats.Failed,
	)
	return stats
}
