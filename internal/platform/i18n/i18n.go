// Package i18n owns the storefront's supported locales, localized copy and
// money formatting.
package i18n

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var supported = []language.Tag{
	language.MustParse("en-US"),
	language.MustParse("pt-BR"),
}

var matcher = language.NewMatcher(supported)

// SupportedTags returns the locales the storefront renders.
func SupportedTags() []language.Tag {
	out := make([]language.Tag, len(supported))
	copy(out, supported)
	return out
}

// DefaultTag returns the fallback locale.
func DefaultTag() language.Tag {
	return supported[0]
}

// ParseTag parses value and reports whether it matches a supported locale
// with at least high confidence.
func ParseTag(value string) (language.Tag, bool) {
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return language.Tag{}, false
	}
	_, idx, confidence := matcher.Match(tag)
	if confidence < language.High {
		return language.Tag{}, false
	}
	return supported[idx], true
}

// MatchTags returns the supported locale closest to the preference list.
func MatchTags(tags []language.Tag) language.Tag {
	if len(tags) == 0 {
		return DefaultTag()
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultTag()
	}
	return supported[idx]
}

type languageKey struct{}

// WithLanguage stores the request locale in ctx.
func WithLanguage(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, languageKey{}, tag)
}

// LanguageFromContext returns the request locale or the default.
func LanguageFromContext(ctx context.Context) language.Tag {
	if ctx == nil {
		return DefaultTag()
	}
	if tag, ok := ctx.Value(languageKey{}).(language.Tag); ok {
		return tag
	}
	return DefaultTag()
}

// Printer returns a message printer for tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// Text returns the localized copy for key, or fallback when no catalog
// entry exists.
func Text(tag language.Tag, key string, fallback string, args ...any) string {
	localized := Printer(tag).Sprintf(key, args...)
	if localized == "" || localized == key {
		if len(args) > 0 {
			return fmt.Sprintf(fallback, args...)
		}
		return fallback
	}
	return localized
}

// FormatMoney formats a decimal amount with the currency symbol for tag.
func FormatMoney(tag language.Tag, amount string, currencyCode string) (string, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(currencyCode))
	if err != nil {
		return "", fmt.Errorf("parse currency %q: %w", currencyCode, err)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
	if err != nil {
		return "", fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return Printer(tag).Sprint(currency.Symbol(unit.Amount(value))), nil
}
