package httpmiddleware

import "net/http"

// statusRecorder 包装 ResponseWriter，记录状态码和写出的字节数，
// 给访问日志和指标中间件用。WriteHeader 只认第一次调用。
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
	wrote  bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wrote {
		r.status = code
		r.wrote = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wrote = true
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}
