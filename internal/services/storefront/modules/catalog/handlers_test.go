package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/louisbranch/storefront/internal/platform/telemetry/metrics"
	"github.com/louisbranch/storefront/internal/services/storefront/platform/pagerender"
	"github.com/louisbranch/storefront/internal/services/storefront/product"
	"github.com/louisbranch/storefront/internal/services/storefront/productdetails"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeStore struct {
	products map[string]product.Product
	sections []storage.SectionRecord
	err      error
}

func (s *fakeStore) PutProduct(_ context.Context, record storage.ProductRecord) error {
	s.products[record.Product.Handle] = record.Product
	return nil
}

func (s *fakeStore) GetProduct(_ context.Context, handle string) (storage.ProductRecord, error) {
	if s.err != nil {
		return storage.ProductRecord{}, s.err
	}
	p, ok := s.products[handle]
	if !ok {
		return storage.ProductRecord{}, storage.ErrNotFound
	}
	return storage.ProductRecord{Product: p}, nil
}

func (s *fakeStore) PutSection(_ context.Context, record storage.SectionRecord) error {
	s.sections = append(s.sections, record)
	return nil
}

func (s *fakeStore) GetSection(_ context.Context, id string) (storage.SectionRecord, error) {
	if s.err != nil {
		return storage.SectionRecord{}, s.err
	}
	for _, section := range s.sections {
		if section.ID == id {
			return section, nil
		}
	}
	return storage.SectionRecord{}, storage.ErrNotFound
}

func (s *fakeStore) ListProductSections(_ context.Context, handle string) ([]storage.SectionRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []storage.SectionRecord
	for _, section := range s.sections {
		if section.ProductHandle == handle {
			out = append(out, section)
		}
	}
	return out, nil
}

func linenShirt() product.Product {
	return product.Product{
		Handle:          "linen-shirt",
		Title:           "Linen Shirt",
		DescriptionHTML: "<p>Breathable.</p><script>alert(1)</script>",
		Variants: []product.Variant{
			{ID: "v-small", Title: "Small", Price: product.Money{Amount: "42.00", CurrencyCode: "USD"}, AvailableForSale: false},
			{ID: "v-large", Title: "Large", Price: product.Money{Amount: "44.00", CurrencyCode: "USD"}, AvailableForSale: true},
		},
	}
}

func newFakeStore(sections ...storage.SectionRecord) *fakeStore {
	return &fakeStore{
		products: map[string]product.Product{"linen-shirt": linenShirt()},
		sections: sections,
	}
}

func section(id string, kind productdetails.SectionKind, handle string, richtext string) storage.SectionRecord {
	return storage.SectionRecord{ID: id, Kind: string(kind), ProductHandle: handle, Richtext: json.RawMessage(richtext)}
}

func newTestMux(t *testing.T, store storage.Store, m *metrics.Metrics) http.Handler {
	t.Helper()

	root := http.NewServeMux()
	for _, feature := range []Module{
		NewProducts(Dependencies{Store: store, Metrics: m, CartAction: "/checkout/cart"}),
		NewSections(Dependencies{Store: store, Metrics: m}),
	} {
		mount, err := feature.Mount()
		if err != nil {
			t.Fatalf("mount %s: %v", feature.ID(), err)
		}
		root.Handle(mount.Prefix, mount.Handler)
	}
	return root
}

func serve(t *testing.T, handler http.Handler, target string, htmx bool) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if htmx {
		req.Header.Set(pagerender.HXRequestHeader, "true")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestProductPageRendersInformationSections(t *testing.T) {
	t.Parallel()

	store := newFakeStore(
		section("info-2", productdetails.SectionProductInformation, "linen-shirt", `[{"_type":"price","_key":"p"}]`),
		section("featured", productdetails.SectionFeaturedProduct, "linen-shirt", `[{"_type":"shopifyDescription","_key":"d"}]`),
		section("info-1", productdetails.SectionProductInformation, "linen-shirt", `[{"_type":"shopifyTitle","_key":"t"},{"_type":"addToCartButton","_key":"c","quantitySelector":false,"shopPayButton":false}]`),
	)
	rec := serve(t, newTestMux(t, store, nil), "/products/linen-shirt", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>Linen Shirt</title>",
		`<section id="section-info-2" data-section-kind="productInformationSection"><div class="container space-y-4 lg:max-w-none lg:px-0">`,
		`<h1 class="text-3xl font-medium" data-key="t">Linen Shirt</h1>`,
		`action="/checkout/cart"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "section-featured") {
		t.Fatal("featured product section rendered on the product page")
	}
}

func TestProductPageHTMXReturnsFragment(t *testing.T) {
	t.Parallel()

	store := newFakeStore(section("info", productdetails.SectionProductInformation, "linen-shirt", `[]`))
	rec := serve(t, newTestMux(t, store, nil), "/products/linen-shirt", true)
	body := rec.Body.String()
	want := `<title>Linen Shirt</title><section id="section-info" data-section-kind="productInformationSection"><div class="container space-y-4 lg:max-w-none lg:px-0"></div></section>`
	if body != want {
		t.Fatalf("body = %q, want %q", body, want)
	}
}

func TestProductPageFallsBackToDefaultInformation(t *testing.T) {
	t.Parallel()

	rec := serve(t, newTestMux(t, newFakeStore(), nil), "/products/linen-shirt?variant=v-small", true)
	body := rec.Body.String()
	for _, want := range []string{
		`data-key="default-title"`,
		`data-price`,
		`<div class="prose" data-key="default-description"><p>Breathable.</p></div>`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "<script>") {
		t.Fatal("description was not sanitized")
	}
}

func TestProductPageNotFound(t *testing.T) {
	t.Parallel()

	rec := serve(t, newTestMux(t, newFakeStore(), nil), "/products/missing?lang=pt-BR", true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if !strings.Contains(rec.Body.String(), "Product not found") {
		t.Fatalf("body = %q, want not found message", rec.Body.String())
	}
}

func TestProductPageStoreFailureIs500(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.err = errors.New("disk I/O error")
	rec := serve(t, newTestMux(t, store, nil), "/products/linen-shirt", false)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if strings.Contains(rec.Body.String(), "disk I/O") {
		t.Fatal("internal error leaked into the response")
	}
}

func TestProductPageRenderFailureIs500AndCounted(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	store := newFakeStore(section("bad", productdetails.SectionProductInformation, "linen-shirt",
		`[{"_type":"shopifyTitle","_key":"t"},{"_type":"addToCartButton","_key":"c","quantitySelector":"yes"}]`))
	rec := serve(t, newTestMux(t, store, m), "/products/linen-shirt", false)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if strings.Contains(rec.Body.String(), "Linen Shirt</h1>") {
		t.Fatal("partial page written before the render failure")
	}
	if got := testutil.ToFloat64(m.RenderFailures.WithLabelValues(string(productdetails.SectionProductInformation))); got != 1 {
		t.Fatalf("render failures = %v, want 1", got)
	}
}

func TestUnknownKindsAreSkippedAndCounted(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	store := newFakeStore(section("info", productdetails.SectionProductInformation, "linen-shirt",
		`[{"_type":"reviewsWidget","_key":"r"},{"_type":"shopifyTitle","_key":"t"}]`))
	rec := serve(t, newTestMux(t, store, m), "/products/linen-shirt", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if strings.Contains(rec.Body.String(), "reviewsWidget") {
		t.Fatal("unknown kind rendered")
	}
	if got := testutil.ToFloat64(m.MissingComponents.WithLabelValues("type", "reviewsWidget")); got != 1 {
		t.Fatalf("missing components = %v, want 1", got)
	}
}

func TestProductPageCorruptSectionIs500(t *testing.T) {
	t.Parallel()

	store := newFakeStore(
		section("good", productdetails.SectionProductInformation, "linen-shirt", `[{"_type":"shopifyTitle","_key":"t"}]`),
		section("corrupt", productdetails.SectionProductInformation, "linen-shirt", `{"not":"a node"}`),
	)
	rec := serve(t, newTestMux(t, store, nil), "/products/linen-shirt", false)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if strings.Contains(rec.Body.String(), "Linen Shirt</h1>") {
		t.Fatal("page rendered without the corrupt section")
	}
}

func TestProductPageIgnoresCorruptSectionsOfOtherKinds(t *testing.T) {
	t.Parallel()

	store := newFakeStore(
		section("info", productdetails.SectionProductInformation, "linen-shirt", `[{"_type":"shopifyTitle","_key":"t"}]`),
		section("featured", productdetails.SectionFeaturedProduct, "linen-shirt", `{"not":"a node"}`),
	)
	rec := serve(t, newTestMux(t, store, nil), "/products/linen-shirt", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestUnknownKindLabelIsBucketedWhenOversized(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	long := strings.Repeat("w", 200)
	store := newFakeStore(section("info", productdetails.SectionProductInformation, "linen-shirt",
		`[{"_type":"`+long+`","_key":"r"}]`))
	rec := serve(t, newTestMux(t, store, m), "/products/linen-shirt", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := testutil.ToFloat64(m.MissingComponents.WithLabelValues("type", metrics.OtherTypeLabel)); got != 1 {
		t.Fatalf("missing components = %v, want 1", got)
	}
}

func TestSectionFragmentResolvesFeaturedProduct(t *testing.T) {
	t.Parallel()

	store := newFakeStore(section("featured", productdetails.SectionFeaturedProduct, "linen-shirt",
		`[{"_type":"shopifyTitle","_key":"t"},{"_type":"block","_key":"b","markDefs":[{"_key":"l","_type":"internalLink","link":{"documentType":"product","slug":{"current":"linen-shirt"}}}],"children":[{"_type":"span","text":"View","marks":["l"]}]}]`))
	rec := serve(t, newTestMux(t, store, nil), "/sections/featured", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<!DOCTYPE html>") {
		t.Fatal("section fragment rendered inside the layout")
	}
	for _, want := range []string{
		`<h1 class="text-3xl font-medium" data-key="t">Linen Shirt</h1>`,
		`<a href="/products/linen-shirt" class="underline underline-offset-2">View</a>`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestSectionFragmentNotFound(t *testing.T) {
	t.Parallel()

	store := newFakeStore(
		section("hero", productdetails.SectionKind("heroSection"), "", `[]`),
		section("orphan", productdetails.SectionFeaturedProduct, "deleted-product", `[]`),
	)
	handler := newTestMux(t, store, nil)
	for _, target := range []string{"/sections/missing", "/sections/hero", "/sections/orphan"} {
		rec := serve(t, handler, target, true)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("GET %s status = %d, want %d", target, rec.Code, http.StatusNotFound)
		}
	}
}

func TestMountRequiresStore(t *testing.T) {
	t.Parallel()

	if _, err := NewProducts(Dependencies{}).Mount(); err == nil {
		t.Fatal("expected missing store error")
	}
	if err := NewSections(Dependencies{Store: newFakeStore()}).Healthy(httptest.NewRequest(http.MethodGet, "/healthz", nil)); err != nil {
		t.Fatalf("Healthy() error = %v", err)
	}
}
