package blocks

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/louisbranch/storefront/internal/platform/i18n"
	"github.com/louisbranch/storefront/internal/services/storefront/product"
)

// PriceBlock renders the selected variant's price, with the compare-at price
// struck through when the variant is on sale. A block with its own value
// renders that amount instead.
func PriceBlock(value Price) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		tag := i18n.LanguageFromContext(ctx)
		if value.Value != nil {
			price, err := i18n.FormatMoney(tag, value.Value.Amount, value.Value.CurrencyCode)
			if err != nil {
				return err
			}
			_, err = io.WriteString(w, `<div class="flex items-baseline gap-3 text-lg"`+keyAttr(value.Key)+`><span data-price>`+templ.EscapeString(price)+`</span></div>`)
			return err
		}
		sel, ok := product.SelectionFromContext(ctx)
		if !ok || !sel.HasVariant {
			return nil
		}
		variant := sel.Variant
		price, err := i18n.FormatMoney(tag, variant.Price.Amount, variant.Price.CurrencyCode)
		if err != nil {
			return err
		}

		var b strings.Builder
		b.WriteString(`<div class="flex items-baseline gap-3 text-lg"` + keyAttr(value.Key) + `>`)
		if variant.OnSale() {
			compareAt, err := i18n.FormatMoney(tag, variant.CompareAtPrice.Amount, variant.CompareAtPrice.CurrencyCode)
			if err != nil {
				return err
			}
			b.WriteString(`<span class="sr-only">` + templ.EscapeString(i18n.Text(tag, "product.regular_price", "Regular price")) + `</span>`)
			b.WriteString(`<s class="opacity-60">` + templ.EscapeString(compareAt) + `</s>`)
			b.WriteString(`<span class="sr-only">` + templ.EscapeString(i18n.Text(tag, "product.sale_price", "Sale price")) + `</span>`)
		}
		b.WriteString(`<span data-price>` + templ.EscapeString(price) + `</span>`)
		b.WriteString(`</div>`)
		_, err = io.WriteString(w, b.String())
		return err
	})
}
