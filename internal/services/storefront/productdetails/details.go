package productdetails

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/louisbranch/storefront/internal/richtext"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SectionKind names the section types that carry product detail rich text.
type SectionKind string

const (
	// SectionFeaturedProduct highlights one product on another page.
	SectionFeaturedProduct SectionKind = "featuredProductSection"
	// SectionProductInformation is rendered on the product's own page.
	SectionProductInformation SectionKind = "productInformationSection"
)

// Valid reports whether k is a known section kind.
func (k SectionKind) Valid() bool {
	return k == SectionFeaturedProduct || k == SectionProductInformation
}

// Section is the data a product details component renders.
type Section struct {
	ID            string
	Kind          SectionKind
	ProductHandle string
	Richtext      richtext.Document
}

// ContainerClass is the class list of the product details container.
const ContainerClass = "container space-y-4 lg:max-w-none lg:px-0"

const tracerName = "github.com/louisbranch/storefront/internal/services/storefront/productdetails"

// Renderer renders product detail sections with the shared dispatch table.
type Renderer struct {
	onMissing richtext.MissingComponentHandler
	tracer    trace.Tracer
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithMissingComponentHandler reports nodes outside the recognised kinds.
func WithMissingComponentHandler(fn richtext.MissingComponentHandler) Option {
	return func(r *Renderer) {
		r.onMissing = fn
	}
}

// NewRenderer returns a Renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{tracer: otel.Tracer(tracerName)}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// ProductDetails renders data without a missing component handler.
func ProductDetails(data Section) templ.Component {
	return NewRenderer().ProductDetails(data)
}

// ProductDetails renders the section container and, when the section has
// rich text, the rich text inside it.
func (r *Renderer) ProductDetails(data Section) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ctx, span := r.tracer.Start(ctx, "productdetails.render", trace.WithAttributes(
			attribute.String("section.id", data.ID),
			attribute.String("section.kind", string(data.Kind)),
			attribute.Int("richtext.nodes", len(data.Richtext)),
		))
		defer span.End()

		if _, err := io.WriteString(w, `<div class="`+ContainerClass+`">`); err != nil {
			return err
		}
		if !data.Richtext.IsEmpty() {
			var opts []richtext.Option
			if r.onMissing != nil {
				opts = append(opts, richtext.WithMissingComponentHandler(r.onMissing))
			}
			if err := richtext.Render(data.Richtext, Components(), opts...).Render(ctx, w); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "render rich text")
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}
