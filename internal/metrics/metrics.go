package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal 按路由、方法、状态码统计
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of http requests handled by the service.",
		},
		[]string{"path", "method", "code"},
	)

	// ExecutionsTotal 执行结束时按数据集类型和最终状态计数
	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_executions_total",
			Help: "Total number of finished dataset executions.",
		},
		[]string{"dataset_type", "status"},
	)

	ExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dataset_execution_duration_seconds",
			Help:    "Wall time of dataset executions.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"dataset_type"},
	)

	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_api_calls_total",
			Help: "HTTP calls issued to the provider API.",
		},
		[]string{"dataset_type"},
	)

	// SchemaCacheTotal result: hit, unchanged, new_version
	SchemaCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schema_cache_requests_total",
			Help: "Schema lookups by cache outcome.",
		},
		[]string{"result"},
	)

	// PreviewTierTotal 预览读取命中的层级
	PreviewTierTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_retrievals_total",
			Help: "Preview retrievals by serving tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "execution_queue_depth",
		Help: "Executions waiting for a worker.",
	})
)
