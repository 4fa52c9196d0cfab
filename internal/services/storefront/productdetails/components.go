// Package productdetails renders the rich text of product detail sections.
//
// The package owns one thing: the table that maps each node kind a product
// section may contain to the renderer responsible for it. The table is built
// from a Handlers value, which must implement every kind, so adding a kind
// without a renderer fails to compile.
package productdetails

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/a-h/templ"
	"github.com/louisbranch/storefront/internal/richtext"
	"github.com/louisbranch/storefront/internal/services/storefront/blocks"
	"github.com/louisbranch/storefront/internal/services/storefront/links"
)

// Kind is a node discriminant recognised in product detail rich text.
type Kind string

// Annotation kinds are looked up in the marks table; the others are custom
// object types.
const (
	// KindExternalLink annotates text with a link to another site.
	KindExternalLink Kind = "externalLink"
	// KindInternalLink annotates text with a link to a storefront page.
	KindInternalLink Kind = "internalLink"
	// KindAddToCartButton renders the cart form for the selected variant.
	KindAddToCartButton Kind = "addToCartButton"
	// KindPrice renders the selected variant's price.
	KindPrice Kind = "price"
	// KindShopifyDescription renders the sanitized product description.
	KindShopifyDescription Kind = "shopifyDescription"
	// KindShopifyTitle renders the product title.
	KindShopifyTitle Kind = "shopifyTitle"
)

// Kinds returns every recognised kind, annotations first.
func Kinds() []Kind {
	return []Kind{
		KindExternalLink,
		KindInternalLink,
		KindAddToCartButton,
		KindPrice,
		KindShopifyDescription,
		KindShopifyTitle,
	}
}

// IsMark reports whether the kind is an inline annotation.
func (k Kind) IsMark() bool {
	return k == KindExternalLink || k == KindInternalLink
}

// Handlers renders each recognised kind. Annotation handlers also receive
// the already rendered text they wrap.
type Handlers interface {
	ExternalLink(value links.ExternalLink, children templ.Component) templ.Component
	InternalLink(value links.InternalLink, children templ.Component) templ.Component
	AddToCartButton(value blocks.AddToCartButton) templ.Component
	Price(value blocks.Price) templ.Component
	ShopifyDescription(value blocks.ShopifyDescription) templ.Component
	ShopifyTitle(value blocks.ShopifyTitle) templ.Component
}

// DefaultHandlers delegates to the storefront block and link renderers.
type DefaultHandlers struct{}

var _ Handlers = DefaultHandlers{}

func (DefaultHandlers) ExternalLink(value links.ExternalLink, children templ.Component) templ.Component {
	return links.ExternalLinkAnnotation(value, children)
}

func (DefaultHandlers) InternalLink(value links.InternalLink, children templ.Component) templ.Component {
	return links.InternalLinkAnnotation(value, children)
}

func (DefaultHandlers) AddToCartButton(value blocks.AddToCartButton) templ.Component {
	return blocks.ProductForm(value)
}

func (DefaultHandlers) Price(value blocks.Price) templ.Component {
	return blocks.PriceBlock(value)
}

func (DefaultHandlers) ShopifyDescription(value blocks.ShopifyDescription) templ.Component {
	return blocks.ShopifyDescriptionBlock(value)
}

func (DefaultHandlers) ShopifyTitle(value blocks.ShopifyTitle) templ.Component {
	return blocks.ShopifyTitleBlock(value)
}

// Components returns the dispatch table for the default handlers. The table
// is built on first use and the same value is returned afterwards.
func Components() *richtext.Components {
	return defaultComponents()
}

var defaultComponents = sync.OnceValue(func() *richtext.Components {
	return NewComponents(DefaultHandlers{})
})

// NewComponents builds a dispatch table for h. Each entry decodes the node or
// annotation payload into the kind's value type and hands it to h as is.
func NewComponents(h Handlers) *richtext.Components {
	return &richtext.Components{
		Marks: map[string]richtext.MarkComponent{
			string(KindExternalLink): mark(h.ExternalLink),
			string(KindInternalLink): mark(h.InternalLink),
		},
		Types: map[string]richtext.TypeComponent{
			string(KindAddToCartButton):    block(h.AddToCartButton),
			string(KindPrice):              block(h.Price),
			string(KindShopifyDescription): block(h.ShopifyDescription),
			string(KindShopifyTitle):       block(h.ShopifyTitle),
		},
	}
}

func mark[T any](render func(T, templ.Component) templ.Component) richtext.MarkComponent {
	return func(props richtext.MarkProps) templ.Component {
		var value T
		if err := props.Def.Decode(&value); err != nil {
			return failed(err)
		}
		return render(value, props.Children)
	}
}

func block[T any](render func(T) templ.Component) richtext.TypeComponent {
	return func(props richtext.TypeProps) templ.Component {
		var value T
		if err := props.Node.Decode(&value); err != nil {
			return failed(err)
		}
		return render(value)
	}
}

func failed(err error) templ.Component {
	return templ.ComponentFunc(func(context.Context, io.Writer) error {
		return fmt.Errorf("product details: %w", err)
	})
}
