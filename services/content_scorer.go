package services

import (
	"time"

	"ai_recommendation/category"
	"ai_recommendation/config"
	"ai_recommendation/models"
	"ai_recommendation/utils"
)

// 浏览记录关键词频率表的动作权重
var viewedActionWeights = map[models.ActionType]float64{
	models.ActionClick:    1,
	models.ActionLike:     2,
	models.ActionBookmark: 3,
	models.ActionAIClick:  4,
}

// contentScorer 内容推荐打分：与浏览过帖子的相似度 + 分类匹配加分 + 热度 + 新鲜度
type contentScorer struct {
	categories *category.Engine
	cfg        config.RecommendationConfig
	now        time.Time

	preferred  map[string]struct{}
	viewed     []map[string]struct{}
	freq       map[string]float64
	freqTotal  float64
	profileTag map[string]struct{}
}

func newContentScorer(engine *category.Engine, cfg config.RecommendationConfig, now time.Time,
	preferred map[string]struct{}, viewed []models.ViewedPost, profileTags []string) *contentScorer {

	s := &contentScorer{
		categories: engine,
		cfg:        cfg,
		now:        now,
		preferred:  preferred,
		freq:       make(map[string]float64),
		profileTag: make(map[string]struct{}, len(profileTags)),
	}

	for _, v := range viewed {
		tokens := utils.TokenSet(v.Text())
		s.viewed = append(s.viewed, tokens)

		w, ok := viewedActionWeights[v.ActionType]
		if !ok {
			w = 1
		}
		for tok := range tokens {
			s.freq[tok] += w
			s.freqTotal += w
		}
	}
	for _, tag := range profileTags {
		if t := utils.FoldText(tag); t != "" {
			s.profileTag[t] = struct{}{}
		}
	}
	return s
}

// Score 帖子的内容分
func (s *contentScorer) Score(p *models.Post) float64 {
	score := s.cfg.SimilarityWeight * s.similarity(p)
	score += s.categoryBonus(p)
	score += s.cfg.LikeWeight * float64(p.LikeCount)
	score += s.cfg.ViewWeight * float64(p.ViewCount)

	if !p.CreatedAt.IsZero() && s.now.Sub(p.CreatedAt) <= time.Duration(s.cfg.FreshDays)*24*time.Hour {
		score += s.cfg.FreshBonus
	}
	return score
}

func (s *contentScorer) similarity(p *models.Post) float64 {
	tokens := utils.TokenSet(p.Text())

	best := 0.0
	for _, v := range s.viewed {
		if j := jaccard(tokens, v); j > best {
			best = j
		}
	}
	sim := best * 100

	if s.freqTotal > 0 {
		overlap := 0.0
		for tok := range tokens {
			overlap += s.freq[tok]
		}
		sim += overlap / s.freqTotal * 100
	}

	for _, tag := range utils.SplitTags(p.Tags) {
		if _, ok := s.profileTag[utils.FoldText(tag)]; ok {
			sim += s.cfg.SharedTagBonus
		}
	}
	return sim
}

func (s *contentScorer) categoryBonus(p *models.Post) float64 {
	if len(s.preferred) == 0 {
		return 0
	}

	text := p.Text()
	stored := false
	if p.Category != "" {
		_, stored = s.preferred[s.categories.Canonical(p.Category)]
	}
	inferred := intersects(s.categories.InferMulti(text), s.preferred)

	switch {
	case stored && inferred:
		return s.cfg.FullMatchBonus
	case inferred:
		return s.cfg.InferMatchBonus
	case stored || s.categories.HasKeyword(text, s.preferred):
		return s.cfg.KeywordMatchBonus
	default:
		return s.cfg.MismatchPenalty
	}
}

// matchesPreferred 分类硬过滤：推断分类、分类字段、关键词任一命中
func matchesPreferred(engine *category.Engine, p *models.Post, preferred map[string]struct{}) bool {
	text := p.Text()
	if intersects(engine.InferMulti(text), preferred) {
		return true
	}
	if p.Category != "" {
		if _, ok := preferred[engine.Canonical(p.Category)]; ok {
			return true
		}
	}
	return engine.HasKeyword(text, preferred)
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func intersects(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
