package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Node types come from authored content, so the type label is bounded:
// values longer than maxTypeLabelLen and types first seen after
// maxTypeLabels distinct ones are counted under OtherTypeLabel.
const (
	maxTypeLabels   = 64
	maxTypeLabelLen = 64

	// OtherTypeLabel buckets node types that do not get their own series.
	OtherTypeLabel = "other"
)

// Metrics holds the storefront Prometheus collectors.
type Metrics struct {
	Requests          *prometheus.CounterVec
	RenderDuration    *prometheus.HistogramVec
	RenderFailures    *prometheus.CounterVec
	MissingComponents *prometheus.CounterVec

	gatherer prometheus.Gatherer

	mu    sync.Mutex
	types map[string]struct{}
}

// New registers the storefront collectors on reg. A nil reg uses a fresh
// registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),
		RenderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "section_render_duration_seconds",
			Help:      "Duration of product section renders",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"kind"}),
		RenderFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "section_render_failures_total",
			Help:      "Total number of product section renders that returned an error",
		}, []string{"kind"}),
		MissingComponents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "richtext_missing_components_total",
			Help:      "Rich text nodes rendered without a registered component",
		}, []string{"missing", "type"}),
		gatherer: reg,
		types:    make(map[string]struct{}),
	}
}

// ObserveRender records one section render. Call with time.Now() at the
// start of the render.
func (m *Metrics) ObserveRender(kind string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.RenderDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		m.RenderFailures.WithLabelValues(kind).Inc()
	}
}

// IncrementMissingComponent counts one unrecognised rich text node.
func (m *Metrics) IncrementMissingComponent(missing, nodeType string) {
	if m == nil {
		return
	}
	m.MissingComponents.WithLabelValues(missing, m.typeLabel(nodeType)).Inc()
}

func (m *Metrics) typeLabel(nodeType string) string {
	if nodeType == "" || len(nodeType) > maxTypeLabelLen {
		return OtherTypeLabel
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.types[nodeType]; ok {
		return nodeType
	}
	if len(m.types) >= maxTypeLabels {
		return OtherTypeLabel
	}
	m.types[nodeType] = struct{}{}
	return nodeType
}

// IncrementRequest counts one served request.
func (m *Metrics) IncrementRequest(route string, code int) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler serves the registered collectors in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
