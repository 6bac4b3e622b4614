package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by API and worker flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal           *prometheus.CounterVec
	httpRequestDuration         *prometheus.HistogramVec
	deliveriesRoutedTotal       *prometheus.CounterVec
	deliveriesSucceededTotal    *prometheus.CounterVec
	deliveriesDeadLetteredTotal *prometheus.CounterVec
	deliverySendDuration        *prometheus.HistogramVec
	workerInflight              *prometheus.GaugeVec
	retryScheduledTotal         *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "webhook_engine",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "webhook_engine",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		deliveriesRoutedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "webhook_engine",
				Name:      "deliveries_routed_total",
				Help:      "Total number of deliveries created by the event router.",
			},
			[]string{"event_type"},
		),
		deliveriesSucceededTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "webhook_engine",
				Name:      "deliveries_succeeded_total",
				Help:      "Total number of deliveries confirmed by the endpoint.",
			},
			[]string{"event_type"},
		),
		deliveriesDeadLetteredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "webhook_engine",
				Name:      "deliveries_dead_lettered_total",
				Help:      "Total number of deliveries that reached the dead letter state.",
			},
			[]string{"event_type", "reason"},
		),
		deliverySendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "webhook_engine",
				Name:      "delivery_send_duration_seconds",
				Help:      "Outbound call duration in seconds grouped by event type.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"event_type"},
		),
		workerInflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "webhook_engine",
				Name:      "worker_inflight",
				Help:      "Current number of in-flight delivery attempts grouped by event type.",
			},
			[]string{"event_type"},
		),
		retryScheduledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "webhook_engine",
				Name:      "retry_scheduled_total",
				Help:      "Total number of deliveries scheduled for retry.",
			},
			[]string{"event_type"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.deliveriesRoutedTotal,
		m.deliveriesSucceededTotal,
		m.deliveriesDeadLetteredTotal,
		m.deliverySendDuration,
		m.workerInflight,
		m.retryScheduledTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncDeliveryRouted(eventType string) {
	if m == nil {
		return
	}
	m.deliveriesRoutedTotal.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *Metrics) IncDeliverySucceeded(eventType string) {
	if m == nil {
		return
	}
	m.deliveriesSucceededTotal.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *Metrics) IncDeliveryDeadLettered(eventType string, reason string) {
	if m == nil {
		return
	}
	reasonLabel := strings.TrimSpace(strings.ToLower(reason))
	if reasonLabel == "" {
		reasonLabel = "unknown"
	}
	m.deliveriesDeadLetteredTotal.WithLabelValues(normalizeLabel(eventType), reasonLabel).Inc()
}

func (m *Metrics) ObserveSendDuration(eventType string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.deliverySendDuration.WithLabelValues(normalizeLabel(eventType)).Observe(seconds)
}

func (m *Metrics) IncWorkerInFlight(eventType string) {
	if m == nil {
		return
	}
	m.workerInflight.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *Metrics) DecWorkerInFlight(eventType string) {
	if m == nil {
		return
	}
	m.workerInflight.WithLabelValues(normalizeLabel(eventType)).Dec()
}

func (m *Metrics) IncRetryScheduled(eventType string) {
	if m == nil {
		return
	}
	m.retryScheduledTotal.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
