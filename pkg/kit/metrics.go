package kit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	labelService    = "service"
	labelMethod     = "method"
	labelPath       = "path"
	labelStatus     = "status"
	labelAction     = "action"
	labelCollection = "collection"

	defaultStatusCode = http.StatusOK
)

type Metrics struct {
	Requests     *prometheus.CounterVec
	Latency      *prometheus.HistogramVec
	Actions      *prometheus.CounterVec
	SoftFailures *prometheus.CounterVec
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{labelService, labelMethod, labelPath, labelStatus},
		),
		Latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP latency",
			},
			[]string{labelService, labelMethod, labelPath},
		),
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_actions_total",
				Help: "Cart, wishlist and checkout mutations",
			},
			[]string{labelAction},
		),
		SoftFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_store_soft_failures_total",
				Help: "Collection reads that fell back to an empty sequence",
			},
			[]string{labelCollection},
		),
	}

	reg.MustRegister(m.Requests, m.Latency, m.Actions, m.SoftFailures)
	return m
}

// Action counts one storefront mutation. Safe on a nil receiver.
func (m *Metrics) Action(name string) {
	if m == nil {
		return
	}
	m.Actions.WithLabelValues(name).Inc()
}

// SoftFailure counts one collection read that was absorbed as empty. Safe on a nil receiver.
func (m *Metrics) SoftFailure(collection string) {
	if m == nil {
		return
	}
	m.SoftFailures.WithLabelValues(collection).Inc()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (m *Metrics) Middleware(service string, pathLabel func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{
				ResponseWriter: w,
				status:         defaultStatusCode,
			}

			start := time.Now()
			next.ServeHTTP(sw, r)

			path := pathLabel(r)
			m.Latency.WithLabelValues(service, r.Method, path).
				Observe(time.Since(start).Seconds())

			m.Requests.WithLabelValues(service, r.Method, path, strconv.Itoa(sw.status)).
				Inc()
		})
	}
}
