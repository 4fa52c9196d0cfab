package i18nhttp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	platformi18n "github.com/louisbranch/storefront/internal/platform/i18n"
	"golang.org/x/text/language"
)

func TestResolveTagPrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		target  string
		cookie  string
		accept  string
		want    language.Tag
		persist bool
	}{
		{name: "default", target: "/", want: language.AmericanEnglish},
		{name: "query", target: "/?lang=pt-BR", cookie: "en-US", want: language.BrazilianPortuguese, persist: true},
		{name: "cookie", target: "/", cookie: "pt-BR", accept: "en-US", want: language.BrazilianPortuguese},
		{name: "accept language", target: "/", accept: "pt-BR,pt;q=0.9", want: language.BrazilianPortuguese},
		{name: "unsupported query falls through", target: "/?lang=xx", accept: "pt-BR", want: language.BrazilianPortuguese},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.cookie != "" {
				r.AddCookie(&http.Cookie{Name: LangCookieName, Value: tc.cookie})
			}
			if tc.accept != "" {
				r.Header.Set("Accept-Language", tc.accept)
			}
			got, persist := ResolveTag(r)
			if got.String() != tc.want.String() || persist != tc.persist {
				t.Fatalf("ResolveTag() = %v, %v, want %v, %v", got, persist, tc.want, tc.persist)
			}
		})
	}
}

func TestMiddlewareStoresLanguageAndCookie(t *testing.T) {
	t.Parallel()

	var got language.Tag
	handler := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = platformi18n.LanguageFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?lang=pt-BR", nil))

	if got.String() != "pt-BR" {
		t.Fatalf("context language = %v, want %v", got, language.BrazilianPortuguese)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != LangCookieName || cookies[0].Value != "pt-BR" {
		t.Fatalf("cookies = %v, want %s=pt-BR", cookies, LangCookieName)
	}
}
