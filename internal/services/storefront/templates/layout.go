// Package templates holds the storefront page shell and status pages.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"golang.org/x/text/language"
)

// MainID is the id of the element HTMX requests swap into.
const MainID = "main"

// HTMXScriptURL is the htmx build the layout loads.
const HTMXScriptURL = "https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"

// Layout renders the full HTML document around the children in ctx.
func Layout(title string, lang language.Tag) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		head := `<!DOCTYPE html><html lang="` + templ.EscapeString(lang.String()) + `"><head>` +
			`<meta charset="utf-8"/>` +
			`<meta name="viewport" content="width=device-width, initial-scale=1"/>` +
			TitleTag(title) +
			`<script src="`+HTMXScriptURL+`" defer></script>` +
			`</head><body class="min-h-screen"><main id="` + MainID + `" class="container mx-auto py-8">`
		if _, err := io.WriteString(w, head); err != nil {
			return err
		}
		if err := templ.GetChildren(ctx).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

// TitleTag formats an escaped title element, or nothing for a blank title.
func TitleTag(title string) string {
	if title == "" {
		return ""
	}
	return "<title>" + templ.EscapeString(title) + "</title>"
}

// StatusMessage renders the body of a 404 or 500 page.
func StatusMessage(message string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<section class="py-12 text-center"><h1 class="text-2xl font-medium">`+
			templ.EscapeString(message)+`</h1></section>`)
		return err
	})
}

// Stack renders components one after another.
func Stack(components ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, c := range components {
			if c == nil {
				continue
			}
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}
