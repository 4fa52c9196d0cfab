// Package blocks renders the product blocks authors place in product detail
// rich text. Each block reads the product being viewed from the request
// context and renders nothing when no product is present.
package blocks

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/louisbranch/storefront/internal/richtext"
	"github.com/louisbranch/storefront/internal/services/storefront/product"
)

// Price is the payload of a price block. Value, when set, is shown instead
// of the selected variant's price.
type Price struct {
	richtext.Payload
	Key   string         `json:"_key"`
	Type  string         `json:"_type"`
	Value *product.Money `json:"value,omitempty"`
}

// ShopifyTitle is the payload of a shopifyTitle block.
type ShopifyTitle struct {
	richtext.Payload
	Key  string `json:"_key"`
	Type string `json:"_type"`
}

// ShopifyDescription is the payload of a shopifyDescription block.
type ShopifyDescription struct {
	richtext.Payload
	Key  string `json:"_key"`
	Type string `json:"_type"`
}

// AddToCartButton is the payload of an addToCartButton block.
type AddToCartButton struct {
	richtext.Payload
	Key              string `json:"_key"`
	Type             string `json:"_type"`
	QuantitySelector bool   `json:"quantitySelector"`
	ShopPayButton    bool   `json:"shopPayButton"`
}

// DefaultCartAction is the form action used when none is configured.
const DefaultCartAction = "/cart"

type cartActionKey struct{}

// WithCartAction sets the path product forms post to.
func WithCartAction(ctx context.Context, action string) context.Context {
	return context.WithValue(ctx, cartActionKey{}, strings.TrimSpace(action))
}

func cartAction(ctx context.Context) string {
	if action, ok := ctx.Value(cartActionKey{}).(string); ok && action != "" {
		return action
	}
	return DefaultCartAction
}

// ShopifyTitleBlock renders the product title as the page heading.
func ShopifyTitleBlock(value ShopifyTitle) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		sel, ok := product.SelectionFromContext(ctx)
		if !ok || strings.TrimSpace(sel.Product.Title) == "" {
			return nil
		}
		_, err := io.WriteString(w, `<h1 class="text-3xl font-medium"`+keyAttr(value.Key)+`>`+
			templ.EscapeString(sel.Product.Title)+`</h1>`)
		return err
	})
}

// ShopifyDescriptionBlock renders the product description HTML after
// sanitizing it.
func ShopifyDescriptionBlock(value ShopifyDescription) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		sel, ok := product.SelectionFromContext(ctx)
		if !ok || strings.TrimSpace(sel.Product.DescriptionHTML) == "" {
			return nil
		}
		clean, err := SanitizeHTML(sel.Product.DescriptionHTML)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<div class="prose"`+keyAttr(value.Key)+`>`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, clean); err != nil {
			return err
		}
		_, err = io.WriteString(w, `</div>`)
		return err
	})
}

func keyAttr(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	return ` data-key="` + templ.EscapeString(key) + `"`
}
