package cf

import (
	"math"
	"sort"
)

// Options 近邻参数
type Options struct {
	Metric        Metric
	UserNeighbors int // 用户近邻数，默认50
	ItemNeighbors int // 物品近邻数，默认20
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{
		Metric:        MetricCosine,
		UserNeighbors: 50,
		ItemNeighbors: 20,
	}
}

// Scored 带分数的用户或帖子
type Scored struct {
	ID    int64   `json:"id"`
	Score float64 `json:"score"`
}

// Engine 基于近邻的协同过滤，构建后只读
type Engine struct {
	users Matrix
	items Matrix
	opts  Options
	sim   func(a, b map[int64]float64) float64
}

// NewEngine 由用户-帖子矩阵创建引擎
func NewEngine(m Matrix, opts Options) *Engine {
	def := DefaultOptions()
	if opts.UserNeighbors <= 0 {
		opts.UserNeighbors = def.UserNeighbors
	}
	if opts.ItemNeighbors <= 0 {
		opts.ItemNeighbors = def.ItemNeighbors
	}
	if opts.Metric == "" {
		opts.Metric = def.Metric
	}

	e := &Engine{
		users: m,
		items: m.Transpose(),
		opts:  opts,
		sim:   Cosine,
	}
	if opts.Metric == MetricPearson {
		e.sim = Pearson
	}
	return e
}

// NumUsers 矩阵中的用户数
func (e *Engine) NumUsers() int {
	return len(e.users)
}

// HasUser 用户是否在矩阵中
func (e *Engine) HasUser(userID int64) bool {
	_, ok := e.users[userID]
	return ok
}

// FindSimilarUsers 与目标用户相似度大于0的前 n 个用户
func (e *Engine) FindSimilarUsers(userID int64, n int) []Scored {
	target, ok := e.users[userID]
	if !ok {
		return nil
	}
	return e.neighbors(e.users, userID, target, n)
}

// FindSimilarItems 与目标帖子相似度大于0的前 n 个帖子
func (e *Engine) FindSimilarItems(itemID int64, n int) []Scored {
	target, ok := e.items[itemID]
	if !ok {
		return nil
	}
	return e.neighbors(e.items, itemID, target, n)
}

func (e *Engine) neighbors(m Matrix, selfID int64, target map[int64]float64, n int) []Scored {
	result := make([]Scored, 0)
	for id, vec := range m {
		if id == selfID {
			continue
		}
		if s := e.sim(target, vec); s > 0 {
			result = append(result, Scored{ID: id, Score: s})
		}
	}
	return topN(result, n)
}

// UserBasedPredict 基于用户的预测：相似用户评分的相似度加权平均
func (e *Engine) UserBasedPredict(userID int64, n int, minSimilarity float64) []Scored {
	target, ok := e.users[userID]
	if !ok {
		return nil
	}

	weighted := make(map[int64]float64)
	simSum := make(map[int64]float64)

	for _, nb := range e.FindSimilarUsers(userID, e.opts.UserNeighbors) {
		if nb.Score <= minSimilarity {
			continue
		}
		for itemID, rating := range e.users[nb.ID] {
			if _, rated := target[itemID]; rated {
				continue
			}
			weighted[itemID] += nb.Score * rating
			simSum[itemID] += math.Abs(nb.Score)
		}
	}

	return predictions(weighted, simSum, n)
}

// ItemBasedPredict 基于物品的预测：按用户已评分帖子的相似帖子加权
func (e *Engine) ItemBasedPredict(userID int64, n int, minSimilarity float64) []Scored {
	target, ok := e.users[userID]
	if !ok {
		return nil
	}

	weighted := make(map[int64]float64)
	simSum := make(map[int64]float64)

	for _, seedID := range sortedKeys(target) {
		rating := target[seedID]
		for _, nb := range e.FindSimilarItems(seedID, e.opts.ItemNeighbors) {
			if _, rated := target[nb.ID]; rated {
				continue
			}
			if nb.Score < minSimilarity {
				continue
			}
			weighted[nb.ID] += nb.Score * rating
			simSum[nb.ID] += math.Abs(nb.Score)
		}
	}

	return predictions(weighted, simSum, n)
}

func predictions(weighted, simSum map[int64]float64, n int) []Scored {
	result := make([]Scored, 0, len(weighted))
	for id, w := range weighted {
		if s := simSum[id]; s > 0 {
			result = append(result, Scored{ID: id, Score: w / s})
		}
	}
	return topN(result, n)
}

// topN 按分数降序（同分按ID升序）截取前 n 个，n<=0 不截取
func topN(list []Scored, n int) []Scored {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score > list[j].Score
		}
		return list[i].ID < list[j].ID
	})
	if n > 0 && len(list) > n {
		list = list[:n]
	}
	return list
}

func sortedKeys(m map[int64]float64) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
