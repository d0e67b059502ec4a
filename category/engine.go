package category

import (
	"sort"
	"strings"
	"unicode/utf8"

	"ai_recommendation/config"
	"ai_recommendation/utils"
)

const (
	// strongKeywordRunes 关键词字符数达到该值视为强信号
	strongKeywordRunes = 4
	strongScore        = 3
	weakScore          = 1
	// minQualifyingScore 多分类推断的入选分数
	minQualifyingScore = 2
	maxMultiCategories = 3
)

// Engine 基于关键词词典的分类推断
type Engine struct {
	priority []string
	keywords map[string][]string // 已小写
	synonyms map[string]string
	techTags []string
}

// NewEngine 创建推断引擎，词典在创建时复制
func NewEngine(dict Dictionary) *Engine {
	e := &Engine{
		keywords: make(map[string][]string, len(dict.Keywords)),
		synonyms: make(map[string]string, len(dict.Synonyms)),
	}

	for cat, kws := range dict.Keywords {
		folded := make([]string, 0, len(kws))
		for _, kw := range kws {
			kw = utils.FoldText(strings.TrimSpace(kw))
			if kw != "" {
				folded = append(folded, kw)
			}
		}
		e.keywords[cat] = folded
	}

	// 优先级中未出现的分类按名称追加到末尾
	seen := make(map[string]bool)
	for _, cat := range dict.Priority {
		if !seen[cat] {
			e.priority = append(e.priority, cat)
			seen[cat] = true
		}
	}
	var rest []string
	for cat := range e.keywords {
		if !seen[cat] {
			rest = append(rest, cat)
		}
	}
	sort.Strings(rest)
	e.priority = append(e.priority, rest...)

	for from, to := range dict.Synonyms {
		e.synonyms[from] = to
	}
	e.techTags = append(e.techTags, dict.TechTags...)
	return e
}

// NewEngineFromConfig 配置中提供了关键词时使用配置词典，否则使用内置词典
func NewEngineFromConfig(cfg *config.Config) *Engine {
	c := cfg.Categories
	if len(c.Keywords) == 0 {
		return NewEngine(DefaultDictionary())
	}
	def := DefaultDictionary()
	dict := Dictionary{
		Priority: c.Priority,
		Keywords: c.Keywords,
		Synonyms: c.Synonyms,
		TechTags: c.TechTags,
	}
	if len(dict.Synonyms) == 0 {
		dict.Synonyms = def.Synonyms
	}
	if len(dict.TechTags) == 0 {
		dict.TechTags = def.TechTags
	}
	return NewEngine(dict)
}

// Categories 按优先级返回所有分类
func (e *Engine) Categories() []string {
	return append([]string(nil), e.priority...)
}

// Canonical 同义词映射
func (e *Engine) Canonical(name string) string {
	name = strings.TrimSpace(name)
	if to, ok := e.synonyms[name]; ok {
		return to
	}
	return name
}

// Scores 计算各分类得分，长关键词3分，短关键词1分
func (e *Engine) Scores(text string) map[string]int {
	scores := make(map[string]int)
	folded := utils.FoldText(text)
	if strings.TrimSpace(folded) == "" {
		return scores
	}

	for cat, kws := range e.keywords {
		for _, kw := range kws {
			if !strings.Contains(folded, kw) {
				continue
			}
			if utf8.RuneCountInString(kw) >= strongKeywordRunes {
				scores[cat] += strongScore
			} else {
				scores[cat] += weakScore
			}
		}
	}
	return scores
}

// InferMulti 返回得分不低于2的前3个分类
func (e *Engine) InferMulti(text string) map[string]struct{} {
	scores := e.Scores(text)

	candidates := make([]string, 0, len(scores))
	for cat, s := range scores {
		if s >= minQualifyingScore {
			candidates = append(candidates, cat)
		}
	}

	rank := e.rank()
	sort.Slice(candidates, func(i, j int) bool {
		si, sj := scores[candidates[i]], scores[candidates[j]]
		if si != sj {
			return si > sj
		}
		return rank[candidates[i]] < rank[candidates[j]]
	})
	if len(candidates) > maxMultiCategories {
		candidates = candidates[:maxMultiCategories]
	}

	result := make(map[string]struct{}, len(candidates))
	for _, cat := range candidates {
		result[cat] = struct{}{}
	}
	return result
}

// InferSingle 按优先级返回第一个命中任意关键词的分类
func (e *Engine) InferSingle(text string) (string, bool) {
	folded := utils.FoldText(text)
	if strings.TrimSpace(folded) == "" {
		return "", false
	}
	for _, cat := range e.priority {
		for _, kw := range e.keywords[cat] {
			if strings.Contains(folded, kw) {
				return cat, true
			}
		}
	}
	return "", false
}

// HasKeyword 文本是否包含任一给定分类的关键词
func (e *Engine) HasKeyword(text string, categories map[string]struct{}) bool {
	folded := utils.FoldText(text)
	if strings.TrimSpace(folded) == "" {
		return false
	}
	for cat := range categories {
		for _, kw := range e.keywords[cat] {
			if strings.Contains(folded, kw) {
				return true
			}
		}
	}
	return false
}

// Aliases 分类字段可能出现的写法：分类名本身和映射到这些分类的同义词，按名称排序
func (e *Engine) Aliases(categories map[string]struct{}) []string {
	names := make([]string, 0, len(categories))
	for cat := range categories {
		names = append(names, cat)
	}
	for from, to := range e.synonyms {
		if _, ok := categories[to]; ok {
			names = append(names, from)
		}
	}
	sort.Strings(names)
	return names
}

// KeywordsOf 给定分类的全部关键词（小写、去重、排序）
func (e *Engine) KeywordsOf(categories map[string]struct{}) []string {
	seen := make(map[string]struct{})
	var kws []string
	for cat := range categories {
		for _, kw := range e.keywords[cat] {
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			kws = append(kws, kw)
		}
	}
	sort.Strings(kws)
	return kws
}

// TechTags 文本中出现的技术栈标签（小写）
func (e *Engine) TechTags(text string) []string {
	folded := utils.FoldText(text)
	var tags []string
	for _, tag := range e.techTags {
		t := utils.FoldText(tag)
		if t != "" && strings.Contains(folded, t) {
			tags = append(tags, t)
		}
	}
	return tags
}

func (e *Engine) rank() map[string]int {
	rank := make(map[string]int, len(e.priority))
	for i, cat := range e.priority {
		rank[cat] = i
	}
	return rank
}
