package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"ai_recommendation/category"
	"ai_recommendation/cf"
	"ai_recommendation/config"
	"ai_recommendation/logger"
	"ai_recommendation/metrics"
	"ai_recommendation/models"
	"ai_recommendation/utils"
)

// HybridRanker 协同过滤 + 内容推荐的混合排序
type HybridRanker struct {
	store      ActivityStore
	analyzer   *PreferenceAnalyzer
	categories *category.Engine
	cfg        config.RecommendationConfig
	breaker    *gobreaker.CircuitBreaker[[]cf.Scored]
	now        func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// RankerOption 可选参数
type RankerOption func(*HybridRanker)

// WithRand 指定随机源（测试用）
func WithRand(rng *rand.Rand) RankerOption {
	return func(r *HybridRanker) {
		r.rng = rng
	}
}

// WithClock 指定当前时间（测试用）
func WithClock(now func() time.Time) RankerOption {
	return func(r *HybridRanker) {
		r.now = now
	}
}

// NewHybridRanker 创建排序器
func NewHybridRanker(store ActivityStore, categories *category.Engine, cfg *config.Config, opts ...RankerOption) *HybridRanker {
	r := &HybridRanker{
		store:      store,
		analyzer:   NewPreferenceAnalyzer(store, categories, cfg.Recommendation),
		categories: categories,
		cfg:        cfg.Recommendation,
		breaker:    newCFBreaker(cfg),
		now:        time.Now,
	}

	seed := uint64(cfg.Recommendation.Seed)
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	r.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newCFBreaker(cfg *config.Config) *gobreaker.CircuitBreaker[[]cf.Scored] {
	cb := cfg.CircuitBreaker
	return gobreaker.NewCircuitBreaker[[]cf.Scored](gobreaker.Settings{
		Name:        "collaborative-filtering",
		MaxRequests: cb.MaxRequests,
		Interval:    time.Duration(cb.IntervalSec) * time.Second,
		Timeout:     time.Duration(cb.TimeoutSec) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cb.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("熔断器状态变化", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

// Analyzer 返回内部使用的偏好分析器
func (r *HybridRanker) Analyzer() *PreferenceAnalyzer {
	return r.analyzer
}

// Recommend 为用户推荐最多 limit 篇帖子
func (r *HybridRanker) Recommend(ctx context.Context, userID int64, limit int) ([]models.Post, error) {
	res, err := r.RecommendWithProfile(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return res.RecommendedPosts, nil
}

// RecommendWithProfile 推荐并返回本次使用的偏好画像
func (r *HybridRanker) RecommendWithProfile(ctx context.Context, userID int64, limit int) (*models.RecommendationResult, error) {
	slate, err := r.BuildSlate(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return r.Draw(slate), nil
}

// ProfileResetTime 用户最近一次写入主动偏好的时间，作为缓存键的一部分
func (r *HybridRanker) ProfileResetTime(ctx context.Context, userID int64) (*time.Time, error) {
	t, err := r.store.GetProfileResetTime(ctx, userID)
	if err != nil {
		return nil, storeError("get profile reset time", err)
	}
	return t, nil
}

func (r *HybridRanker) validate(userID int64, limit int) error {
	if userID <= 0 || userID > utils.MaxUserID {
		return invalidInput("user_id must be between 1 and %d, got %d", utils.MaxUserID, userID)
	}
	if limit <= 0 || limit > r.cfg.MaxLimit {
		return invalidInput("limit must be between 1 and %d, got %d", r.cfg.MaxLimit, limit)
	}
	return nil
}

// BuildSlate 计算打乱前的候选池
func (r *HybridRanker) BuildSlate(ctx context.Context, userID int64, limit int) (*models.Slate, error) {
	if err := r.validate(userID, limit); err != nil {
		return nil, err
	}

	start := time.Now()
	log := logger.With("request_id", uuid.NewString(), "user_id", userID)

	mode := ""
	pool, profile, shuffle, err := r.recommend(ctx, log, userID, limit)
	if profile != nil {
		mode = string(profile.Mode)
	}
	metrics.RecordRecommendation(mode, min(len(pool), limit), err, time.Since(start))
	if err != nil {
		log.Error("推荐失败", "error", err)
		return nil, err
	}

	log.Info("推荐完成",
		"mode", mode,
		"pool", len(pool),
		"duration_ms", time.Since(start).Milliseconds())
	return &models.Slate{
		UserID:      userID,
		Limit:       limit,
		Preferences: profile,
		Pool:        pool,
		Shuffle:     shuffle,
	}, nil
}

// Draw 从候选池取出本次返回的帖子：打乱后取前 limit 篇，不修改 slate
func (r *HybridRanker) Draw(slate *models.Slate) *models.RecommendationResult {
	posts := append([]models.Post(nil), slate.Pool...)
	if slate.Shuffle {
		r.shuffle(posts)
	}
	if len(posts) > slate.Limit {
		posts = posts[:slate.Limit]
	}
	return models.NewRecommendationResult(slate.UserID, slate.Preferences, posts)
}

// recommend 返回候选池，shuffle 表示读取时是否需要打乱
func (r *HybridRanker) recommend(ctx context.Context, log *slog.Logger, userID int64, limit int) ([]models.Post, *models.PreferenceProfile, bool, error) {
	analysis, err := r.analyzer.AnalyzeDetailed(ctx, userID)
	if err != nil {
		return nil, nil, false, err
	}
	profile := analysis.Profile
	preferred := r.preferredCategories(analysis)

	viewed, err := r.store.GetViewedPosts(ctx, userID, r.cfg.ExcludeDays)
	if err != nil {
		return nil, profile, false, storeError("get viewed posts", err)
	}
	excluded := make(map[int64]struct{}, len(viewed))
	for _, v := range viewed {
		excluded[v.ID] = struct{}{}
	}

	log.Debug("偏好分类",
		"mode", profile.Mode,
		"preferred", setKeys(preferred),
		"excluded", len(excluded))

	cfScores := r.collaborative(ctx, log, userID, limit, excluded)

	content, recency, err := r.contentBased(ctx, userID, limit, preferred, profile, viewed, excluded)
	if err != nil {
		return nil, profile, false, err
	}

	if len(cfScores) == 0 && recency {
		return content, profile, false, nil
	}

	candidates := content
	if len(cfScores) > 0 {
		candidates = r.blend(ctx, log, cfScores, content)
	}

	final := make([]models.Post, 0, len(candidates))
	for _, p := range candidates {
		if _, seen := excluded[p.ID]; seen {
			continue
		}
		if len(preferred) > 0 && !matchesPreferred(r.categories, &p, preferred) {
			continue
		}
		final = append(final, p)
	}
	if len(final) == 0 {
		log.Info("分类过滤后无可推荐帖子", "candidates", len(candidates))
	}
	return topCandidates(final, limit), profile, true, nil
}

// preferredCategories 有真实行为时取行为中最集中的分类，否则取画像分类
func (r *HybridRanker) preferredCategories(a *Analysis) map[string]struct{} {
	p := a.Profile
	if p.Mode == models.ModeActivityBased && p.TotalActivities > 0 {
		if engaged := r.analyzer.EngagedCategories(a.Events); len(engaged) > 0 {
			return engaged
		}
	}

	preferred := make(map[string]struct{}, len(p.Categories))
	for _, name := range p.Categories.Names() {
		if c := r.categories.Canonical(name); c != "" {
			preferred[c] = struct{}{}
		}
	}
	return preferred
}

// collaborative 协同过滤路径，任何失败只记录日志并返回空
func (r *HybridRanker) collaborative(ctx context.Context, log *slog.Logger, userID int64, limit int, excluded map[int64]struct{}) []cf.Scored {
	scores, err := r.breaker.Execute(func() ([]cf.Scored, error) {
		return r.predict(ctx, userID, limit, excluded)
	})
	if err != nil {
		reason := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			reason = "circuit_open"
		}
		log.Warn("协同过滤失败，降级为内容推荐", "error", err, "reason", reason)
		metrics.RecordCFDegraded(reason)
		return nil
	}
	log.Debug("协同过滤完成", "count", len(scores))
	return scores
}

func (r *HybridRanker) predict(ctx context.Context, userID int64, limit int, excluded map[int64]struct{}) ([]cf.Scored, error) {
	var actions, likes, bookmarks []models.UserItemCount

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		actions, err = r.store.GetActionCountsByUserItem(gctx, r.cfg.MatrixDays)
		return err
	})
	g.Go(func() error {
		var err error
		likes, err = r.store.GetLikesByUserItem(gctx, r.cfg.MatrixDays)
		return err
	})
	g.Go(func() error {
		var err error
		bookmarks, err = r.store.GetBookmarksByUserItem(gctx, r.cfg.MatrixDays)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	engine := cf.NewEngine(cf.BuildMatrix(actions, likes, bookmarks), cf.Options{
		Metric:        cf.ParseMetric(r.cfg.Similarity),
		UserNeighbors: r.cfg.UserNeighbors,
		ItemNeighbors: r.cfg.ItemNeighbors,
	})
	if !engine.HasUser(userID) || engine.NumUsers() < 2 {
		return nil, nil
	}

	n := 2 * limit
	userBased := engine.UserBasedPredict(userID, n, r.cfg.MinSimilarity)
	itemBased := engine.ItemBasedPredict(userID, n, r.cfg.MinSimilarity)

	type pair struct {
		user, item       float64
		hasUser, hasItem bool
	}
	combined := make(map[int64]*pair)
	get := func(id int64) *pair {
		p, ok := combined[id]
		if !ok {
			p = &pair{}
			combined[id] = p
		}
		return p
	}
	for _, s := range userBased {
		p := get(s.ID)
		p.user, p.hasUser = s.Score, true
	}
	for _, s := range itemBased {
		p := get(s.ID)
		p.item, p.hasItem = s.Score, true
	}

	out := make([]cf.Scored, 0, len(combined))
	for id, p := range combined {
		if _, seen := excluded[id]; seen {
			continue
		}
		var score float64
		switch {
		case p.hasUser && p.hasItem:
			score = r.cfg.UserBasedWeight*p.user + r.cfg.ItemBasedWeight*p.item
		case p.hasUser:
			score = p.user
		default:
			score = p.item
		}
		out = append(out, cf.Scored{ID: id, Score: score})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// contentBased 内容推荐路径。无分类无标签时退化为最新帖子（recency=true，不打分）
func (r *HybridRanker) contentBased(ctx context.Context, userID int64, limit int, preferred map[string]struct{},
	profile *models.PreferenceProfile, viewed []models.ViewedPost, excluded map[int64]struct{}) ([]models.Post, bool, error) {

	if len(preferred) == 0 && len(profile.Tags) == 0 {
		recent, err := r.store.GetRecentPosts(ctx, limit+len(excluded))
		if err != nil {
			return nil, true, storeError("get recent posts", err)
		}
		posts := make([]models.Post, 0, limit)
		for _, p := range recent {
			if _, seen := excluded[p.ID]; seen {
				continue
			}
			posts = append(posts, p)
			if len(posts) == limit {
				break
			}
		}
		return posts, true, nil
	}

	candidates, err := r.store.GetCandidatePosts(ctx, userID, r.candidateFilter(preferred), r.cfg.CandidatePoolSize)
	if err != nil {
		return nil, false, storeError("get candidate posts", err)
	}

	// 不匹配的帖子带着 MismatchPenalty 排到末尾，由 blend 之后的硬过滤统一去掉
	scorer := newContentScorer(r.categories, r.cfg, r.now(), preferred, viewed, profile.Tags.Names())
	scored := make([]models.Post, 0, len(candidates))
	for _, p := range candidates {
		if _, seen := excluded[p.ID]; seen {
			continue
		}
		p.ContentScore = round2(scorer.Score(&p))
		p.RecommendationScore = p.ContentScore
		scored = append(scored, p)
	}

	sortByScore(scored)
	if keep := 2 * limit; len(scored) > keep {
		scored = scored[:keep]
	}
	return scored, false, nil
}

// candidateFilter 偏好分类对应的 SQL 预筛条件，无偏好分类时不限制
func (r *HybridRanker) candidateFilter(preferred map[string]struct{}) models.CandidateFilter {
	if len(preferred) == 0 {
		return models.CandidateFilter{}
	}
	return models.CandidateFilter{
		Categories: r.categories.Aliases(preferred),
		Keywords:   r.categories.KeywordsOf(preferred),
	}
}

// blend CF 分数归一化到 0-100 后按权重与内容分相加
func (r *HybridRanker) blend(ctx context.Context, log *slog.Logger, cfScores []cf.Scored, content []models.Post) []models.Post {
	maxCF := 0.0
	for _, s := range cfScores {
		if s.Score > maxCF {
			maxCF = s.Score
		}
	}

	byID := make(map[int64]*models.Post, len(content)+len(cfScores))
	order := make([]int64, 0, len(content)+len(cfScores))
	for i := range content {
		p := content[i]
		p.CFScore = 0
		p.RecommendationScore = r.cfg.ContentBlendWeight * p.ContentScore
		byID[p.ID] = &p
		order = append(order, p.ID)
	}

	var missing []int64
	cfNorm := make(map[int64]float64, len(cfScores))
	for _, s := range cfScores {
		norm := 0.0
		if maxCF > 0 {
			norm = s.Score / maxCF * 100
		}
		cfNorm[s.ID] = norm
		if _, ok := byID[s.ID]; !ok {
			missing = append(missing, s.ID)
		}
	}

	if len(missing) > 0 {
		fetched, err := r.store.GetPostsByIDs(ctx, missing)
		if err != nil {
			log.Warn("获取协同过滤帖子失败，仅使用内容推荐结果", "error", err, "ids", len(missing))
			metrics.RecordCFDegraded("fetch_posts")
		}
		for i := range fetched {
			p := fetched[i]
			byID[p.ID] = &p
			order = append(order, p.ID)
		}
	}

	out := make([]models.Post, 0, len(order))
	for _, id := range order {
		p := byID[id]
		if norm, ok := cfNorm[id]; ok {
			p.CFScore = round2(norm)
			p.RecommendationScore += r.cfg.CFBlendWeight * norm
		}
		p.RecommendationScore = round2(p.RecommendationScore)
		out = append(out, *p)
	}
	return out
}

// topCandidates 按分数降序取前 max(2×limit, limit) 篇，返回新切片
func topCandidates(posts []models.Post, limit int) []models.Post {
	pool := append([]models.Post{}, posts...)
	sortByScore(pool)
	if k := max(2*limit, limit); len(pool) > k {
		pool = pool[:k]
	}
	return pool
}

func (r *HybridRanker) shuffle(posts []models.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rng.Shuffle(len(posts), func(i, j int) {
		posts[i], posts[j] = posts[j], posts[i]
	})
}

func sortByScore(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].RecommendationScore != posts[j].RecommendationScore {
			return posts[i].RecommendationScore > posts[j].RecommendationScore
		}
		return posts[i].ID < posts[j].ID
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func setKeys(s map[string]struct{}) []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
