package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Faqih001/Threads-WebApp/internal/metrics"
)

// statusWriter wraps http.ResponseWriter to capture status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Metrics returns middleware that records Prometheus metrics.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		metrics.HTTPRequestsTotal.WithLabelValues(
			r.Method, path, strconv.Itoa(wrapped.status),
		).Inc()

		metrics.HTTPRequestDuration.WithLabelValues(
			r.Method, path,
		).Observe(duration)
	})
}

// normalizePath collapses id-bearing routes to avoid high cardinality
// in metric labels.
func normalizePath(path string) string {
	patterns := []struct{ prefix, normalized string }{
		{"/api/users/profile/", "/api/users/profile/:query"},
		{"/api/users/follow/", "/api/users/follow/:id"},
		{"/api/users/update/", "/api/users/update/:id"},
		{"/api/posts/user/", "/api/posts/user/:username"},
		{"/api/posts/like/", "/api/posts/like/:id"},
		{"/api/posts/reply/", "/api/posts/reply/:id"},
		{"/api/posts/", "/api/posts/:id"},
		{"/api/messages/", "/api/messages/:otherUserId"},
	}
	for _, p := range patterns {
		if strings.HasPrefix(path, p.prefix) && len(path) > len(p.prefix) {
			return p.normalized
		}
	}
	return path
}
