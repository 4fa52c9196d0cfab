// Package storefront serves server-rendered product detail pages.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/louisbranch/storefront/internal/platform/telemetry/metrics"
	"github.com/louisbranch/storefront/internal/platform/timeouts"
	"github.com/louisbranch/storefront/internal/services/storefront/app"
	module "github.com/louisbranch/storefront/internal/services/storefront/module"
	"github.com/louisbranch/storefront/internal/services/storefront/modules/catalog"
	"github.com/louisbranch/storefront/internal/services/storefront/platform/i18nhttp"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/storefront/internal/services/storefront"

// Config configures the storefront HTTP server.
type Config struct {
	HTTPAddr   string
	CartAction string
	Store      storage.Store
	// Registry receives the server metrics; nil uses a fresh registry.
	Registry *prometheus.Registry
}

// Server hosts the storefront HTTP server.
type Server struct {
	httpAddr   string
	httpServer *http.Server
}

// NewHandler composes the storefront routes.
func NewHandler(config Config) (http.Handler, *metrics.Metrics, error) {
	if config.Store == nil {
		return nil, nil, errors.New("catalog store is required")
	}
	m := metrics.New(config.Registry)
	deps := catalog.Dependencies{
		Store:      config.Store,
		Metrics:    m,
		CartAction: config.CartAction,
	}
	modules := []module.Module{
		catalog.NewProducts(deps),
		catalog.NewSections(deps),
	}

	handler, err := app.Compose(app.ComposeInput{
		Modules: modules,
		Routes: map[string]http.Handler{
			"/metrics": m.Handler(),
			"/healthz": healthHandler(modules),
		},
		Wrap: func(route string, next http.Handler) http.Handler {
			return instrument(route, m, i18nhttp.Middleware(next))
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("compose modules: %w", err)
	}
	return handler, m, nil
}

// NewServer builds a configured storefront server.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	handler, _, err := NewHandler(config)
	if err != nil {
		return nil, err
	}
	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
			WriteTimeout:      timeouts.Write,
			IdleTimeout:       timeouts.Idle,
		},
	}, nil
}

// Handler returns the composed root handler.
func (s *Server) Handler() http.Handler {
	if s == nil || s.httpServer == nil {
		return http.NotFoundHandler()
	}
	return s.httpServer.Handler
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("storefront server is nil")
	}
	ln, err := net.Listen("tcp", s.httpAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until the context ends.
//
// On cancellation, it performs a bounded shutdown so in-flight requests
// are drained before hard close.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s == nil {
		return errors.New("storefront server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("storefront listening on %s", ln.Addr())
	go func() {
		serveErr <- s.httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		<-serveErr
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close stops the server immediately.
func (s *Server) Close() error {
	if s == nil || s.httpServer == nil {
		return nil
	}
	return s.httpServer.Close()
}

func healthHandler(modules []module.Module) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, feature := range modules {
			reporter, ok := feature.(module.HealthReporter)
			if !ok {
				continue
			}
			if err := reporter.Healthy(r); err != nil {
				log.Printf("health %s: %v", feature.ID(), err)
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OK"))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(body []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(body)
}

// instrument traces and counts requests under their mount route.
func instrument(route string, m *metrics.Metrics, next http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", rec.status),
		)
		m.IncrementRequest(route, rec.status)
	})
}
