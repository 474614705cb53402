package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// once 用来保证指标只注册一次。
	// Prometheus 的 registry 不允许重复注册同名指标，否则会直接 panic。
	once sync.Once

	// HTTPRequestsTotal：累计请求数（Counter），常用于计算 QPS/错误率。
	//
	// labels：
	// - method：HTTP 方法
	// - route：路由模板（用 pattern，例如 /api/v1/users/me；不要用带 code 的真实 path，否则产生无限 label）
	// - status：HTTP 状态码字符串
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDurationSeconds：请求耗时分布（Histogram）。
	// 按 Buckets 分桶累计，Prometheus/Grafana 上用来算 P95/P99 延迟。
	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// HTTPInflightRequests：当前正在处理中的请求数（Gauge）。
	// 请求开始 +1，结束 -1，用来观察并发压力与堆积。
	HTTPInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// ShortlinkRedirects：成功跳转次数。和 DB 里的 click_count 口径一致
	// （每次成功解析 +1），可用来交叉验证计数路径。
	ShortlinkRedirects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlink_redirects_total",
			Help: "Total number of successful shortlink redirects.",
		},
	)

	// ShortlinksCreated：成功创建的短链数，按来源区分（generated/custom）。
	ShortlinksCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_created_total",
			Help: "Total number of shortlinks created.",
		},
		[]string{"kind"},
	)

	// CacheOperations：缓存层操作计数。
	// layer: l1/l2/bloom；op: hit/hit_negative/miss/reject
	CacheOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_cache_operations_total",
			Help: "Cache operations by layer and outcome.",
		},
		[]string{"layer", "op"},
	)
)

// Init 注册指标：只允许注册一次（否则 panic: duplicate metrics collector registration）
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			HTTPInflightRequests,
			ShortlinkRedirects,
			ShortlinksCreated,
			CacheOperations,
		)
	})
}
