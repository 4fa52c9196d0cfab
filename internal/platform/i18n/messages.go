package i18n

import "github.com/louisbranch/storefront/internal/platform/i18n/catalog"

// Catalog returns the localized copy registered for the supported locales.
func Catalog() *catalog.Bundle {
	return catalog.Default()
}
