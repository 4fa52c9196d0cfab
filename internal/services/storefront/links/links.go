// Package links renders the link annotations authors place on rich text.
package links

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/louisbranch/storefront/internal/richtext"
)

// ExternalLink is the payload of an externalLink annotation.
type ExternalLink struct {
	richtext.Payload
	Key          string `json:"_key"`
	Type         string `json:"_type"`
	Link         string `json:"link"`
	OpenInNewTab bool   `json:"openInNewTab"`
}

// Slug is a document slug.
type Slug struct {
	Current string `json:"current"`
}

// Reference is the resolved target of an internal link.
type Reference struct {
	DocumentType string `json:"documentType"`
	Slug         Slug   `json:"slug"`
}

// InternalLink is the payload of an internalLink annotation.
type InternalLink struct {
	richtext.Payload
	Key    string     `json:"_key"`
	Type   string     `json:"_type"`
	Link   *Reference `json:"link"`
	Anchor string     `json:"anchor,omitempty"`
}

const linkClass = "underline underline-offset-2"

// ExternalLinkAnnotation renders children as a link to an external URL.
// Links with an unsafe or empty URL render their children only.
func ExternalLinkAnnotation(value ExternalLink, children templ.Component) templ.Component {
	href, ok := SafeHref(value.Link)
	if !ok {
		return childrenOnly(children)
	}
	attrs := ""
	if value.OpenInNewTab {
		attrs = ` target="_blank" rel="noopener noreferrer"`
	}
	return anchor(href, attrs, children)
}

// InternalLinkAnnotation renders children as a link to another storefront
// document. Unresolvable references render their children only.
func InternalLinkAnnotation(value InternalLink, children templ.Component) templ.Component {
	path, ok := Path(value.Link, value.Anchor)
	if !ok {
		return childrenOnly(children)
	}
	return anchor(path, "", children)
}

// Path resolves a document reference to a storefront path.
func Path(ref *Reference, anchorID string) (string, bool) {
	if ref == nil {
		return "", false
	}
	slug := strings.Trim(strings.TrimSpace(ref.Slug.Current), "/")
	var path string
	switch strings.TrimSpace(ref.DocumentType) {
	case "home":
		path = "/"
	case "product":
		path = documentPath("/products/", slug)
	case "collection":
		path = documentPath("/collections/", slug)
	case "page":
		path = documentPath("/pages/", slug)
	}
	if path == "" {
		return "", false
	}
	if anchorID = strings.TrimPrefix(strings.TrimSpace(anchorID), "#"); anchorID != "" {
		path += "#" + url.PathEscape(anchorID)
	}
	return path, true
}

func documentPath(prefix string, slug string) string {
	if slug == "" {
		return ""
	}
	return prefix + url.PathEscape(slug)
}

// SafeHref returns href when it is relative or uses an allowed scheme.
func SafeHref(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(parsed.Scheme) {
	case "", "http", "https", "mailto", "tel":
		return href, true
	default:
		return "", false
	}
}

func anchor(href string, attrs string, children templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		open := `<a href="` + templ.EscapeString(href) + `" class="` + linkClass + `"` + attrs + `>`
		if _, err := io.WriteString(w, open); err != nil {
			return err
		}
		if children != nil {
			if err := children.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</a>")
		return err
	})
}

func childrenOnly(children templ.Component) templ.Component {
	if children == nil {
		return templ.NopComponent
	}
	return children
}
