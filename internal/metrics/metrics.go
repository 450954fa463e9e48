package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the HTTP surface and the report
// pipeline.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	ReportsCreated  prometheus.Counter
	UploadsTotal    prometheus.Counter
}

// New creates a Metrics instance with all collectors registered.
func New() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cleancity_http_requests_total",
			Help: "Total number of HTTP requests by method and status code",
		}, []string{"method", "code"}),
		RequestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cleancity_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		ReportsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cleancity_reports_created_total",
			Help: "Total number of reports created",
		}),
		UploadsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cleancity_image_uploads_total",
			Help: "Total number of successful image uploads",
		}),
	}
}

// Middleware records request counts and durations.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		m.RequestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()
		m.RequestDuration.Observe(time.Since(start).Seconds())
	})
}
