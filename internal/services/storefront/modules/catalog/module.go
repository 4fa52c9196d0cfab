// Package catalog serves product detail pages and section fragments.
package catalog

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/louisbranch/storefront/internal/platform/telemetry/metrics"
	"github.com/louisbranch/storefront/internal/richtext"
	"github.com/louisbranch/storefront/internal/services/storefront/blocks"
	module "github.com/louisbranch/storefront/internal/services/storefront/module"
	"github.com/louisbranch/storefront/internal/services/storefront/productdetails"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
)

const (
	// ProductsPrefix is where product pages mount.
	ProductsPrefix = "/products/"
	// SectionsPrefix is where section fragments mount.
	SectionsPrefix = "/sections/"
)

// Dependencies are the collaborators shared by the catalog modules.
type Dependencies struct {
	Store storage.Store
	// Metrics may be nil.
	Metrics *metrics.Metrics
	// CartAction is the add-to-cart form action; empty uses blocks.DefaultCartAction.
	CartAction string
}

// Module is one catalog route group.
type Module struct {
	id             string
	prefix         string
	deps           Dependencies
	registerRoutes func(*http.ServeMux, handlers)
}

// NewProducts returns the module serving GET /products/{handle}.
func NewProducts(deps Dependencies) Module {
	return Module{id: "products", prefix: ProductsPrefix, deps: deps, registerRoutes: registerProductRoutes}
}

// NewSections returns the module serving GET /sections/{id}.
func NewSections(deps Dependencies) Module {
	return Module{id: "sections", prefix: SectionsPrefix, deps: deps, registerRoutes: registerSectionRoutes}
}

// ID returns the module id.
func (m Module) ID() string { return m.id }

// Mount builds the module routes.
func (m Module) Mount() (module.Mount, error) {
	if m.deps.Store == nil {
		return module.Mount{}, fmt.Errorf("catalog store is required")
	}
	if m.registerRoutes == nil {
		return module.Mount{}, fmt.Errorf("catalog routes are not configured")
	}
	mux := http.NewServeMux()
	m.registerRoutes(mux, newHandlers(m.deps))
	return module.Mount{Prefix: m.prefix, Handler: mux}, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Healthy reports whether the catalog store answers.
func (m Module) Healthy(r *http.Request) error {
	p, ok := m.deps.Store.(pinger)
	if !ok {
		return nil
	}
	return p.Ping(r.Context())
}

var _ module.HealthReporter = Module{}

func newHandlers(deps Dependencies) handlers {
	cartAction := strings.TrimSpace(deps.CartAction)
	if cartAction == "" {
		cartAction = blocks.DefaultCartAction
	}
	m := deps.Metrics
	renderer := productdetails.NewRenderer(productdetails.WithMissingComponentHandler(func(missing richtext.MissingComponent) {
		log.Printf("product details: no component for %s %q (node %q)", missing.Kind, missing.Type, missing.NodeKey)
		m.IncrementMissingComponent(string(missing.Kind), missing.Type)
	}))
	return handlers{
		store:      deps.Store,
		metrics:    m,
		renderer:   renderer,
		cartAction: cartAction,
	}
}

func registerProductRoutes(mux *http.ServeMux, h handlers) {
	mux.HandleFunc("GET "+ProductsPrefix+"{handle}", h.handleProduct)
}

func registerSectionRoutes(mux *http.ServeMux, h handlers) {
	mux.HandleFunc("GET "+SectionsPrefix+"{id}", h.handleSection)
}
