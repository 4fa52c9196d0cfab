package i18n

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/text/language"
)

func TestParseTagSupportedLocales(t *testing.T) {
	t.Parallel()

	tag, ok := ParseTag("pt-BR")
	if !ok {
		t.Fatal("expected pt-BR to be supported")
	}
	if tag != language.MustParse("pt-BR") {
		t.Fatalf("ParseTag() = %v, want pt-BR", tag)
	}
	if _, ok := ParseTag("not a tag!"); ok {
		t.Fatal("expected invalid tag to be rejected")
	}
}

func TestMatchTagsDefaultsWhenEmpty(t *testing.T) {
	t.Parallel()

	if got := MatchTags(nil); got != DefaultTag() {
		t.Fatalf("MatchTags(nil) = %v, want %v", got, DefaultTag())
	}
}

func TestLanguageFromContextDefaults(t *testing.T) {
	t.Parallel()

	if got := LanguageFromContext(context.Background()); got != DefaultTag() {
		t.Fatalf("LanguageFromContext() = %v, want %v", got, DefaultTag())
	}
	ptBR := language.MustParse("pt-BR")
	if got := LanguageFromContext(WithLanguage(context.Background(), ptBR)); got != ptBR {
		t.Fatalf("LanguageFromContext() = %v, want %v", got, ptBR)
	}
}

func TestTextUsesCatalogAndFallback(t *testing.T) {
	t.Parallel()

	if got := Text(language.English, "product.add_to_cart", "fallback"); got != "Add to cart" {
		t.Fatalf("Text() = %q, want %q", got, "Add to cart")
	}
	if got := Text(language.MustParse("pt-BR"), "product.sold_out", "fallback"); got != "Esgotado" {
		t.Fatalf("Text() = %q, want %q", got, "Esgotado")
	}
	if got := Text(language.English, "product.unknown_key", "Fallback copy"); got != "Fallback copy" {
		t.Fatalf("Text() = %q, want %q", got, "Fallback copy")
	}
}

func TestFormatMoneyIncludesAmount(t *testing.T) {
	t.Parallel()

	got, err := FormatMoney(language.MustParse("en-US"), "42.5", "USD")
	if err != nil {
		t.Fatalf("FormatMoney() error = %v", err)
	}
	if !strings.Contains(got, "42.5") {
		t.Fatalf("FormatMoney() = %q, want amount 42.5", got)
	}
	if !strings.Contains(got, "$") {
		t.Fatalf("FormatMoney() = %q, want dollar symbol", got)
	}
}

func TestFormatMoneyRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	if _, err := FormatMoney(DefaultTag(), "10", "NOPE"); err == nil {
		t.Fatal("expected invalid currency error")
	}
	if _, err := FormatMoney(DefaultTag(), "ten", "USD"); err == nil {
		t.Fatal("expected invalid amount error")
	}
}

func TestCatalogCoversSupportedTags(t *testing.T) {
	t.Parallel()

	for _, tag := range SupportedTags() {
		if !Catalog().HasLocale(tag.String()) {
			t.Fatalf("catalog has no messages for supported locale %s", tag)
		}
	}
}
