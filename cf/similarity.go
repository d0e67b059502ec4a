package cf

import "math"

// Metric 相似度算法
type Metric string

const (
	MetricCosine  Metric = "cosine"
	MetricPearson Metric = "pearson"
)

// ParseMetric 未知值按余弦处理
func ParseMetric(s string) Metric {
	if Metric(s) == MetricPearson {
		return MetricPearson
	}
	return MetricCosine
}

func commonKeys(a, b map[int64]float64) []int64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	common := make([]int64, 0, len(a))
	for k := range a {
		if _, ok := b[k]; ok {
			common = append(common, k)
		}
	}
	return common
}

// Cosine 余弦相似度，点积只在共同项上计算，模长使用完整向量
func Cosine(a, b map[int64]float64) float64 {
	common := commonKeys(a, b)
	if len(common) == 0 {
		return 0
	}

	var dot float64
	for _, k := range common {
		dot += a[k] * b[k]
	}

	normA, normB := norm(a), norm(b)
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (normA * normB)
}

func norm(v map[int64]float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Pearson 皮尔逊相关系数，至少需要2个共同项
func Pearson(a, b map[int64]float64) float64 {
	common := commonKeys(a, b)
	if len(common) < 2 {
		return 0
	}

	n := float64(len(common))
	var sumA, sumB float64
	for _, k := range common {
		sumA += a[k]
		sumB += b[k]
	}
	meanA, meanB := sumA/n, sumB/n

	var cov, varA, varB float64
	for _, k := range common {
		da, db := a[k]-meanA, b[k]-meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}
