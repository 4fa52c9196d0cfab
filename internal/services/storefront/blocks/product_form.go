package blocks

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/louisbranch/storefront/internal/platform/i18n"
	"github.com/louisbranch/storefront/internal/services/storefront/product"
)

// ProductForm renders the add-to-cart form for the selected variant. The form
// posts the merchandise id and quantity to the cart action; cart mutation is
// owned by the commerce backend.
func ProductForm(value AddToCartButton) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		sel, ok := product.SelectionFromContext(ctx)
		if !ok || !sel.HasVariant {
			return nil
		}
		tag := i18n.LanguageFromContext(ctx)
		variant := sel.Variant

		var b strings.Builder
		b.WriteString(`<form method="post" action="` + templ.EscapeString(cartAction(ctx)) + `" class="grid gap-4"` + keyAttr(value.Key) + `>`)
		b.WriteString(hiddenInput("productHandle", sel.Product.Handle))

		if len(sel.Product.Variants) > 1 {
			b.WriteString(`<label class="grid gap-1"><span>` + templ.EscapeString(i18n.Text(tag, "product.variant", "Variant")) + `</span>`)
			b.WriteString(`<select name="merchandiseId">`)
			soldOut := i18n.Text(tag, "product.sold_out", "Sold out")
			for _, v := range sel.Product.Variants {
				label := v.Title
				if !v.AvailableForSale {
					label += " - " + soldOut
				}
				attrs := ` value="` + templ.EscapeString(v.ID) + `"`
				if v.ID == variant.ID {
					attrs += ` selected`
				}
				b.WriteString(`<option` + attrs + `>` + templ.EscapeString(label) + `</option>`)
			}
			b.WriteString(`</select></label>`)
		} else {
			b.WriteString(hiddenInput("merchandiseId", variant.ID))
		}

		if value.QuantitySelector {
			b.WriteString(`<label class="grid gap-1"><span>` + templ.EscapeString(i18n.Text(tag, "product.quantity", "Quantity")) + `</span>`)
			b.WriteString(`<input type="number" name="quantity" min="1" value="1"/></label>`)
		} else {
			b.WriteString(hiddenInput("quantity", "1"))
		}

		if variant.AvailableForSale {
			b.WriteString(`<button type="submit" name="intent" value="add" class="btn btn-primary">` +
				templ.EscapeString(i18n.Text(tag, "product.add_to_cart", "Add to cart")) + `</button>`)
			if value.ShopPayButton {
				b.WriteString(`<button type="submit" name="intent" value="buy-now" class="btn">` +
					templ.EscapeString(i18n.Text(tag, "product.buy_now", "Buy it now")) + `</button>`)
			}
		} else {
			b.WriteString(`<button type="submit" name="intent" value="add" class="btn btn-primary" disabled>` +
				templ.EscapeString(i18n.Text(tag, "product.sold_out", "Sold out")) + `</button>`)
		}
		b.WriteString(`</form>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func hiddenInput(name string, value string) string {
	return `<input type="hidden" name="` + templ.EscapeString(name) + `" value="` + templ.EscapeString(value) + `"/>`
}
