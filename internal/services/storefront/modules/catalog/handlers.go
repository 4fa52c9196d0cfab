package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/louisbranch/storefront/internal/platform/telemetry/metrics"
	"github.com/louisbranch/storefront/internal/platform/timeouts"
	"github.com/louisbranch/storefront/internal/richtext"
	"github.com/louisbranch/storefront/internal/services/storefront/blocks"
	"github.com/louisbranch/storefront/internal/services/storefront/platform/pagerender"
	"github.com/louisbranch/storefront/internal/services/storefront/product"
	"github.com/louisbranch/storefront/internal/services/storefront/productdetails"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
	"github.com/louisbranch/storefront/internal/services/storefront/templates"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/storefront/internal/services/storefront/modules/catalog"

// VariantParam selects the variant shown on a product page.
const VariantParam = "variant"

// defaultInformation is rendered for products without product information
// sections.
const defaultInformation = `[
	{"_type":"shopifyTitle","_key":"default-title"},
	{"_type":"price","_key":"default-price"},
	{"_type":"addToCartButton","_key":"default-cart","quantitySelector":true,"shopPayButton":false},
	{"_type":"shopifyDescription","_key":"default-description"}
]`

type handlers struct {
	store      storage.Store
	metrics    *metrics.Metrics
	renderer   *productdetails.Renderer
	cartAction string
}

func (h handlers) handleProduct(w http.ResponseWriter, r *http.Request) {
	handle := strings.TrimSpace(r.PathValue("handle"))
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.StoreRequest)
	defer cancel()

	record, err := h.store.GetProduct(ctx, handle)
	if err != nil {
		h.writeStoreError(w, r, "get product "+handle, err)
		return
	}
	records, err := h.store.ListProductSections(ctx, handle)
	if err != nil {
		h.writeStoreError(w, r, "list sections of "+handle, err)
		return
	}

	sections := make([]productdetails.Section, 0, len(records))
	for _, rec := range records {
		if productdetails.SectionKind(rec.Kind) != productdetails.SectionProductInformation {
			continue
		}
		section, err := toSection(rec)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("product %s section %s: %w", handle, rec.ID, err))
			return
		}
		sections = append(sections, section)
	}
	if len(sections) == 0 {
		doc, err := richtext.DecodeString(defaultInformation)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("decode default product information: %w", err))
			return
		}
		sections = append(sections, productdetails.Section{
			ID:            "default",
			Kind:          productdetails.SectionProductInformation,
			ProductHandle: handle,
			Richtext:      doc,
		})
	}

	sel := product.Select(record.Product, r.URL.Query().Get(VariantParam))
	components := make([]templ.Component, 0, len(sections))
	for _, section := range sections {
		components = append(components, h.section(section))
	}
	h.writePage(w, r, pagerender.Page{
		Title:    record.Product.Title,
		Fragment: h.withProduct(sel, templates.Stack(components...)),
	})
}

func (h handlers) handleSection(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.StoreRequest)
	defer cancel()

	rec, err := h.store.GetSection(ctx, id)
	if err != nil {
		h.writeStoreError(w, r, "get section "+id, err)
		return
	}
	if !productdetails.SectionKind(rec.Kind).Valid() {
		pagerender.WriteStatus(w, r, http.StatusNotFound, "page.not_found", "Product not found")
		return
	}
	section, err := toSection(rec)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("section %s: %w", id, err))
		return
	}

	fragment := h.section(section)
	if handle := section.ProductHandle; handle != "" {
		record, err := h.store.GetProduct(ctx, handle)
		if err != nil {
			h.writeStoreError(w, r, "get product "+handle+" for section "+id, err)
			return
		}
		fragment = h.withProduct(product.Select(record.Product, r.URL.Query().Get(VariantParam)), fragment)
	}
	h.writePage(w, r, pagerender.Page{FragmentOnly: true, Fragment: fragment})
}

// section renders one section inside its anchor element and records the
// render in metrics.
func (h handlers) section(section productdetails.Section) templ.Component {
	details := h.renderer.ProductDetails(section)
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) (err error) {
		ctx, span := otel.Tracer(tracerName).Start(ctx, "render "+string(section.Kind), trace.WithAttributes(
			attribute.String("section.id", section.ID),
			attribute.String("section.kind", string(section.Kind)),
		))
		start := time.Now()
		defer func() {
			h.metrics.ObserveRender(string(section.Kind), start, err)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "render failed")
			}
			span.End()
		}()
		open := `<section id="section-` + templ.EscapeString(section.ID) + `" data-section-kind="` + templ.EscapeString(string(section.Kind)) + `">`
		if _, err = io.WriteString(w, open); err != nil {
			return err
		}
		if err = details.Render(ctx, w); err != nil {
			return err
		}
		_, err = io.WriteString(w, `</section>`)
		return err
	})
}

func (h handlers) withProduct(sel product.Selection, c templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ctx = product.WithSelection(ctx, sel)
		ctx = blocks.WithCartAction(ctx, h.cartAction)
		return c.Render(ctx, w)
	})
}

func (h handlers) writePage(w http.ResponseWriter, r *http.Request, page pagerender.Page) {
	if err := pagerender.WritePage(w, r, page); err != nil {
		h.writeError(w, r, err)
	}
}

func (h handlers) writeStoreError(w http.ResponseWriter, r *http.Request, what string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		pagerender.WriteStatus(w, r, http.StatusNotFound, "page.not_found", "Product not found")
		return
	}
	h.writeError(w, r, fmt.Errorf("%s: %w", what, err))
}

func (h handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	pagerender.WriteStatus(w, r, http.StatusInternalServerError, "page.error", "Something went wrong")
}

func toSection(rec storage.SectionRecord) (productdetails.Section, error) {
	var doc richtext.Document
	if len(rec.Richtext) > 0 {
		if err := json.Unmarshal(rec.Richtext, &doc); err != nil {
			return productdetails.Section{}, fmt.Errorf("decode richtext: %w", err)
		}
	}
	kind := productdetails.SectionKind(rec.Kind)
	if !kind.Valid() {
		return productdetails.Section{}, fmt.Errorf("unknown section kind %q", rec.Kind)
	}
	return productdetails.Section{
		ID:            rec.ID,
		Kind:          kind,
		ProductHandle: rec.ProductHandle,
		Richtext:      doc,
	}, nil
}
