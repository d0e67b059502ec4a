package services

import "math"

// RankingMetrics 推荐列表离线评估指标
type RankingMetrics struct {
	Precision float64 `json:"precision_at_k"`
	Recall    float64 `json:"recall_at_k"`
	F1        float64 `json:"f1_at_k"`
	NDCG      float64 `json:"ndcg_at_k"`
}

// EvaluateRanking 计算前 k 个推荐相对于真实相关集合的各项指标
func EvaluateRanking(recommended, relevant []int64, k int) RankingMetrics {
	return RankingMetrics{
		Precision: PrecisionAtK(recommended, relevant, k),
		Recall:    RecallAtK(recommended, relevant, k),
		F1:        F1AtK(recommended, relevant, k),
		NDCG:      NDCGAtK(recommended, relevant, k),
	}
}

// PrecisionAtK 前 k 个推荐中相关的比例，推荐不足 k 个时按实际个数计算
func PrecisionAtK(recommended, relevant []int64, k int) float64 {
	if k <= 0 || len(recommended) == 0 || len(relevant) == 0 {
		return 0
	}
	hits := countHits(topK(recommended, k), idSet(relevant))
	return float64(hits) / float64(min(k, len(recommended)))
}

// RecallAtK 相关集合中被前 k 个推荐覆盖的比例
func RecallAtK(recommended, relevant []int64, k int) float64 {
	if k <= 0 || len(recommended) == 0 || len(relevant) == 0 {
		return 0
	}
	rel := idSet(relevant)
	hits := countHits(topK(recommended, k), rel)
	return float64(hits) / float64(len(rel))
}

// F1AtK precision 和 recall 的调和平均
func F1AtK(recommended, relevant []int64, k int) float64 {
	p := PrecisionAtK(recommended, relevant, k)
	r := RecallAtK(recommended, relevant, k)
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// NDCGAtK 二元相关性下的归一化折损累计增益
func NDCGAtK(recommended, relevant []int64, k int) float64 {
	if k <= 0 || len(recommended) == 0 || len(relevant) == 0 {
		return 0
	}
	rel := idSet(relevant)

	dcg := 0.0
	for i, id := range topK(recommended, k) {
		if _, ok := rel[id]; ok {
			dcg += 1 / math.Log2(float64(i+2))
		}
	}

	idcg := 0.0
	for i := 0; i < min(k, len(rel)); i++ {
		idcg += 1 / math.Log2(float64(i+2))
	}
	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

func topK(ids []int64, k int) []int64 {
	if len(ids) > k {
		return ids[:k]
	}
	return ids
}

func idSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// countHits 去重后的命中数
func countHits(ids []int64, rel map[int64]struct{}) int {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := rel[id]; ok {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}
