// Package metrics 推荐服务的 Prometheus 指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendationsTotal 按画像模式统计推荐次数
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total number of recommendation runs by profile mode",
		},
		[]string{"mode"},
	)

	// RecommendationDuration 单次推荐耗时
	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Duration of recommendation runs in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"outcome"},
	)

	// CFDegradedTotal 协同过滤失败后降级为纯内容推荐的次数
	CFDegradedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cf_degraded_total",
			Help: "Total number of runs where collaborative filtering failed and was skipped",
		},
		[]string{"reason"},
	)

	// EmptyResultsTotal 分类过滤后结果为空
	EmptyResultsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_empty_results_total",
			Help: "Total number of runs that returned no posts",
		},
	)

	// CacheRequestsTotal 推荐缓存命中/未命中
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_requests_total",
			Help: "Recommendation cache lookups by result",
		},
		[]string{"result"},
	)

	// CacheWarmUsers 最近一次预热处理的用户数
	CacheWarmUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommendation_cache_warm_users",
			Help: "Number of users processed by the last cache warm run",
		},
	)
)

// RecordRecommendation 记录一次推荐
func RecordRecommendation(mode string, posts int, err error, d time.Duration) {
	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
	case posts == 0:
		outcome = "empty"
		EmptyResultsTotal.Inc()
	}
	if err == nil {
		RecommendationsTotal.WithLabelValues(mode).Inc()
	}
	RecommendationDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordCFDegraded 记录协同过滤降级
func RecordCFDegraded(reason string) {
	CFDegradedTotal.WithLabelValues(reason).Inc()
}

// RecordCacheHit 缓存命中
func RecordCacheHit() {
	CacheRequestsTotal.WithLabelValues("hit").Inc()
}

// RecordCacheMiss 缓存未命中
func RecordCacheMiss() {
	CacheRequestsTotal.WithLabelValues("miss").Inc()
}
