package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRenderCountsFailures(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())
	m.ObserveRender("productInformationSection", time.Now(), nil)
	m.ObserveRender("productInformationSection", time.Now(), errors.New("boom"))

	if got := testutil.ToFloat64(m.RenderFailures.WithLabelValues("productInformationSection")); got != 1 {
		t.Fatalf("render failures = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.RenderDuration); got != 1 {
		t.Fatalf("render duration series = %d, want 1", got)
	}
}

func TestIncrementMissingComponent(t *testing.T) {
	t.Parallel()

	m := New(nil)
	m.IncrementMissingComponent("type", "reviewsWidget")
	m.IncrementMissingComponent("type", "reviewsWidget")
	if got := testutil.ToFloat64(m.MissingComponents.WithLabelValues("type", "reviewsWidget")); got != 2 {
		t.Fatalf("missing components = %v, want 2", got)
	}
}

func TestMissingComponentTypeLabelIsBounded(t *testing.T) {
	t.Parallel()

	m := New(nil)
	for i := 0; i < maxTypeLabels+10; i++ {
		m.IncrementMissingComponent("type", fmt.Sprintf("widget%d", i))
	}
	m.IncrementMissingComponent("type", strings.Repeat("x", maxTypeLabelLen+1))
	m.IncrementMissingComponent("type", "widget0")

	if got := testutil.CollectAndCount(m.MissingComponents); got != maxTypeLabels+1 {
		t.Fatalf("missing component series = %d, want %d", got, maxTypeLabels+1)
	}
	if got := testutil.ToFloat64(m.MissingComponents.WithLabelValues("type", OtherTypeLabel)); got != 11 {
		t.Fatalf("other bucket = %v, want 11", got)
	}
	if got := testutil.ToFloat64(m.MissingComponents.WithLabelValues("type", "widget0")); got != 2 {
		t.Fatalf("widget0 = %v, want 2", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveRender("x", time.Now(), errors.New("boom"))
	m.IncrementMissingComponent("mark", "x")
	m.IncrementRequest("/", http.StatusOK)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandlerExposesRequestCounter(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())
	m.IncrementRequest("/products/{handle}", http.StatusOK)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	want := `storefront_http_requests_total{code="200",route="/products/{handle}"} 1`
	if !strings.Contains(string(body), want) {
		t.Fatalf("metrics body missing %q:\n%s", want, body)
	}
}
