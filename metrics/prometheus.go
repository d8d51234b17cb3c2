package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// 订单指标
	orderSubmitTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "futuresbot_order_submit_total",
			Help: "Total number of order submissions by outcome",
		},
		[]string{"kind", "outcome"},
	)

	validationFailureTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "futuresbot_validation_failure_total",
			Help: "Total number of order requests rejected by local validation",
		},
		[]string{"kind", "reason"},
	)

	// 交易所 API 指标
	apiCallTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "futuresbot_api_call_total",
			Help: "Total number of exchange API calls",
		},
		[]string{"endpoint", "status"},
	)

	apiCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "futuresbot_api_call_duration_seconds",
			Help:    "Exchange API call duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"endpoint"},
	)

	// 交易对目录指标
	symbolCatalogFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "futuresbot_symbol_catalog_fetch_total",
			Help: "Total number of symbol catalog lookups by source",
		},
		[]string{"result"},
	)
)

// PrometheusMetrics Prometheus 指标收集器
type PrometheusMetrics struct{}

// NewPrometheusMetrics 创建 Prometheus 指标收集器
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{}
}

// RecordOrderSubmit 记录一次下单/撤单结果（outcome: accepted / api_error / request_error / unexpected_error）
func (pm *PrometheusMetrics) RecordOrderSubmit(kind, outcome string) {
	orderSubmitTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordValidationFailure 记录本地校验失败
func (pm *PrometheusMetrics) RecordValidationFailure(kind, reason string) {
	validationFailureTotal.WithLabelValues(kind, reason).Inc()
}

// RecordAPICall 记录 API 调用
func (pm *PrometheusMetrics) RecordAPICall(endpoint, status string, duration time.Duration) {
	apiCallTotal.WithLabelValues(endpoint, status).Inc()
	apiCallDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordCatalogFetch 记录交易对目录来源（fetched / cached / failed）
func (pm *PrometheusMetrics) RecordCatalogFetch(result string) {
	symbolCatalogFetchTotal.WithLabelValues(result).Inc()
}

// 全局实例
var globalPrometheusMetrics *PrometheusMetrics

// GetPrometheusMetrics 获取全局 Prometheus 指标收集器
func GetPrometheusMetrics() *PrometheusMetrics {
	once.Do(func() {
		globalPrometheusMetrics = NewPrometheusMetrics()
	})
	return globalPrometheusMetrics
}
