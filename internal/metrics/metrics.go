package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	requestDuration    *prometheus.HistogramVec
	requestsTotal      *prometheus.CounterVec
	loginFailures      prometheus.Counter
	registrations      prometheus.Counter
	ordersCreated      prometheus.Counter
	submissionsCreated prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		loginFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "auth_login_failures_total",
			Help: "Total number of rejected logins",
		}),
		registrations: f.NewCounter(prometheus.CounterOpts{
			Name: "auth_registrations_total",
			Help: "Total number of registered accounts",
		}),
		ordersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders created",
		}),
		submissionsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "submissions_created_total",
			Help: "Total number of contact form submissions",
		}),
	}
}

func (m *Metrics) LoginFailed() {
	if m != nil {
		m.loginFailures.Inc()
	}
}

func (m *Metrics) Registered() {
	if m != nil {
		m.registrations.Inc()
	}
}

func (m *Metrics) OrderCreated() {
	if m != nil {
		m.ordersCreated.Inc()
	}
}

func (m *Metrics) SubmissionCreated() {
	if m != nil {
		m.submissionsCreated.Inc()
	}
}

// TrackAuditDropped exposes the audit recorder's drop counter.
func (m *Metrics) TrackAuditDropped(dropped func() uint64) {
	if m == nil {
		return
	}
	promauto.With(m.Registry).NewCounterFunc(prometheus.CounterOpts{
		Name: "audit_entries_dropped_total",
		Help: "Audit entries dropped because the queue was full",
	}, func() float64 { return float64(dropped()) })
}

func (m *Metrics) TrackEventsDropped(dropped func() uint64) {
	if m == nil {
		return
	}
	promauto.With(m.Registry).NewCounterFunc(prometheus.CounterOpts{
		Name: "kafka_events_dropped_total",
		Help: "Domain events dropped because the publish queue was full",
	}, func() float64 { return float64(dropped()) })
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Middleware labels requests by route template, not raw path, to keep cardinality bounded.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			labels := []string{c.Request().Method, path, strconv.Itoa(status)}
			m.requestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			m.requestsTotal.WithLabelValues(labels...).Inc()
			return err
		}
	}
}
