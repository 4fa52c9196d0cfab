// Package pagerender writes storefront pages for full and HTMX requests.
package pagerender

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	platformi18n "github.com/louisbranch/storefront/internal/platform/i18n"
	"github.com/louisbranch/storefront/internal/services/storefront/templates"
)

// HXRequestHeader is the header HTMX sets on requests it issues.
const HXRequestHeader = "HX-Request"

// Page describes a page response for both full-page and HTMX flows.
type Page struct {
	Title      string
	StatusCode int
	Fragment   templ.Component
	// FragmentOnly skips the layout for every request, not only HTMX ones.
	FragmentOnly bool
}

// IsHTMXRequest reports whether the request was initiated by HTMX.
func IsHTMXRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	return strings.EqualFold(r.Header.Get(HXRequestHeader), "true")
}

// WritePage renders page into a buffer and writes it only when rendering
// succeeds, so a failed render never leaves a partial response. HTMX
// requests and fragment-only pages receive the fragment preceded by its
// title tag; other requests receive the full layout.
func WritePage(w http.ResponseWriter, r *http.Request, page Page) error {
	statusCode := page.StatusCode
	if statusCode <= 0 {
		statusCode = http.StatusOK
	}
	fragment := page.Fragment
	if fragment == nil {
		fragment = templ.NopComponent
	}
	ctx := r.Context()

	var buf bytes.Buffer
	if page.FragmentOnly || IsHTMXRequest(r) {
		buf.WriteString(templates.TitleTag(page.Title))
		if err := fragment.Render(ctx, &buf); err != nil {
			return err
		}
	} else {
		lang := platformi18n.LanguageFromContext(ctx)
		if err := templates.Layout(page.Title, lang).Render(templ.WithChildren(ctx, fragment), &buf); err != nil {
			return err
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Add("Vary", HXRequestHeader)
	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
	return nil
}

// WriteStatus writes a localized status page, falling back to plain text
// if even that fails to render.
func WriteStatus(w http.ResponseWriter, r *http.Request, statusCode int, key string, fallback string) {
	message := platformi18n.Text(platformi18n.LanguageFromContext(r.Context()), key, fallback)
	err := WritePage(w, r, Page{
		Title:      message,
		StatusCode: statusCode,
		Fragment:   templates.StatusMessage(message),
	})
	if err != nil {
		http.Error(w, http.StatusText(statusCode), statusCode)
	}
}
