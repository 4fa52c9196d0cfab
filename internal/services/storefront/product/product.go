// Package product defines the catalog data shown on product detail pages
// and the request-scoped selection that block renderers read from context.
package product

import (
	"context"
	"strconv"
	"strings"
)

// Money is a decimal amount in an ISO 4217 currency, as the commerce API
// reports it.
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// Float returns the amount as a float, or false when it cannot be parsed.
func (m Money) Float() (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(m.Amount), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// SelectedOption is one option value of a variant.
type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Variant is one purchasable configuration of a product.
type Variant struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Price            Money            `json:"price"`
	CompareAtPrice   *Money           `json:"compareAtPrice,omitempty"`
	AvailableForSale bool             `json:"availableForSale"`
	SelectedOptions  []SelectedOption `json:"selectedOptions,omitempty"`
}

// OnSale reports whether the compare-at price is above the price.
func (v Variant) OnSale() bool {
	if v.CompareAtPrice == nil {
		return false
	}
	price, ok := v.Price.Float()
	if !ok {
		return false
	}
	compareAt, ok := v.CompareAtPrice.Float()
	if !ok {
		return false
	}
	return compareAt > price
}

// Product is a catalog product.
type Product struct {
	ID              string    `json:"id"`
	Handle          string    `json:"handle"`
	Title           string    `json:"title"`
	Vendor          string    `json:"vendor,omitempty"`
	DescriptionHTML string    `json:"descriptionHtml,omitempty"`
	Variants        []Variant `json:"variants"`
}

// Selection is a product together with the variant the shopper is viewing.
type Selection struct {
	Product    Product
	Variant    Variant
	HasVariant bool
}

// Select resolves the selected variant: the variant matching variantID,
// else the first available variant, else the first variant.
func Select(p Product, variantID string) Selection {
	sel := Selection{Product: p}
	variantID = strings.TrimSpace(variantID)
	if variantID != "" {
		for _, v := range p.Variants {
			if v.ID == variantID {
				sel.Variant = v
				sel.HasVariant = true
				return sel
			}
		}
	}
	for _, v := range p.Variants {
		if v.AvailableForSale {
			sel.Variant = v
			sel.HasVariant = true
			return sel
		}
	}
	if len(p.Variants) > 0 {
		sel.Variant = p.Variants[0]
		sel.HasVariant = true
	}
	return sel
}

type selectionKey struct{}

// WithSelection stores sel in ctx for block renderers.
func WithSelection(ctx context.Context, sel Selection) context.Context {
	return context.WithValue(ctx, selectionKey{}, sel)
}

// SelectionFromContext returns the selection stored by WithSelection.
func SelectionFromContext(ctx context.Context) (Selection, bool) {
	if ctx == nil {
		return Selection{}, false
	}
	sel, ok := ctx.Value(selectionKey{}).(Selection)
	return sel, ok
}
