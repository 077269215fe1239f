package services

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService 指标服务
type MetricsService struct {
	turnsTotal       *prometheus.CounterVec
	turnDuration     prometheus.Histogram
	retrievedChunks  prometheus.Histogram
	degradedQueries  prometheus.Counter
	ingestedChunks   prometheus.Gauge
}

// NewMetricsService 创建指标服务并注册指标
func NewMetricsService() *MetricsService {
	return &MetricsService{
		turnsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "studyhub_chat_turns_total",
			Help: "Total chat turns processed, by outcome.",
		}, []string{"outcome"}),
		turnDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "studyhub_chat_turn_duration_seconds",
			Help:    "End-to-end latency of a chat turn.",
			Buckets: prometheus.DefBuckets,
		}),
		retrievedChunks: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "studyhub_retrieved_chunks",
			Help:    "Number of knowledge chunks retrieved per query.",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		}),
		degradedQueries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studyhub_degraded_queries_total",
			Help: "Queries answered with a zero-vector fallback after embedding failure.",
		}),
		ingestedChunks: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "studyhub_index_chunks",
			Help: "Chunks in the currently loaded knowledge index.",
		}),
	}
}

// ObserveTurn 记录一轮问答的结果与耗时
func (ms *MetricsService) ObserveTurn(outcome string, duration time.Duration, retrieved int) {
	ms.turnsTotal.WithLabelValues(outcome).Inc()
	ms.turnDuration.Observe(duration.Seconds())
	ms.retrievedChunks.Observe(float64(retrieved))
}

// ObserveDegraded 记录一次降级查询
func (ms *MetricsService) ObserveDegraded() {
	ms.degradedQueries.Inc()
}

// SetIndexSize 记录当前索引的分块数
func (ms *MetricsService) SetIndexSize(chunks int) {
	ms.ingestedChunks.Set(float64(chunks))
}

// Handler 返回Prometheus指标的HTTP处理器
func (ms *MetricsService) Handler() http.Handler {
	return promhttp.Handler()
}
