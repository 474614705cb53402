package httpmiddleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"shortly.local/internal/platform/metrics"
)

// Metrics 记录每个请求的计数、耗时和在途数。
// route label 用 mux 的路由模板（例如 /api/v1/shortlinks/{code}），
// 绝不能用真实 path，否则 label 基数会被短码撑爆。
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.HTTPInflightRequests.Inc()
		defer metrics.HTTPInflightRequests.Dec()

		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		routePattern := "UNMATCHED"
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				routePattern = tpl
			}
		}
		duration := time.Since(start).Seconds()
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, routePattern, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDurationSeconds.WithLabelValues(r.Method, routePattern).Observe(duration)
	})
}
