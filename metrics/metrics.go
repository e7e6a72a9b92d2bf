package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	SourceQuotes  = "quotes"
	SourceHistory = "history"
)

// Metrics groups the collectors shared by all services. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	degradedFetches *prometheus.CounterVec
	published       *prometheus.CounterVec
}

func New(service string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(prometheus.WrapRegistererWith(prometheus.Labels{"service": service}, reg))

	return &Metrics{
		registry: reg,
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portfolio_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		degradedFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_degraded_fetch_total",
			Help: "Upstream fetches that failed and were replaced by empty data.",
		}, []string{"source"}),
		published: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_price_updates_published_total",
			Help: "Price update messages published by the poller.",
		}, []string{"result"}),
	}
}

func (m *Metrics) Degraded(source string) {
	if m == nil {
		return
	}
	m.degradedFetches.WithLabelValues(source).Inc()
}

func (m *Metrics) Published(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.published.WithLabelValues(result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// Middleware records request durations labelled with the chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
