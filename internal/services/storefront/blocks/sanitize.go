package blocks

import (
	"fmt"
	"strings"

	"github.com/louisbranch/storefront/internal/services/storefront/links"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// allowedElements lists the description markup kept as is. Other elements
// are unwrapped to their children; dropped elements lose their content too.
var allowedElements = map[atom.Atom]bool{
	atom.P: true, atom.Br: true, atom.Strong: true, atom.B: true, atom.Em: true,
	atom.I: true, atom.U: true, atom.Ul: true, atom.Ol: true, atom.Li: true,
	atom.A: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true,
	atom.H6: true, atom.Blockquote: true, atom.Span: true, atom.Table: true,
	atom.Thead: true, atom.Tbody: true, atom.Tr: true, atom.Th: true, atom.Td: true,
}

var droppedElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Iframe: true, atom.Object: true,
	atom.Embed: true, atom.Form: true, atom.Template: true, atom.Noscript: true,
}

var voidElements = map[atom.Atom]bool{
	atom.Br: true,
}

// SanitizeHTML keeps a small allow-list of formatting markup from merchant
// supplied HTML. Only href survives as an attribute, and only on links with
// a safe URL.
func SanitizeHTML(input string) (string, error) {
	parent := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(input), parent)
	if err != nil {
		return "", fmt.Errorf("parse description html: %w", err)
	}
	var b strings.Builder
	for _, node := range nodes {
		writeSanitized(&b, node)
	}
	return b.String(), nil
}

func writeSanitized(b *strings.Builder, node *html.Node) {
	switch node.Type {
	case html.TextNode:
		b.WriteString(html.EscapeString(node.Data))
		return
	case html.ElementNode:
	default:
		writeChildren(b, node)
		return
	}

	if droppedElements[node.DataAtom] {
		return
	}
	if !allowedElements[node.DataAtom] {
		writeChildren(b, node)
		return
	}

	b.WriteString("<" + node.DataAtom.String())
	if node.DataAtom == atom.A {
		for _, attr := range node.Attr {
			if attr.Namespace != "" || attr.Key != "href" {
				continue
			}
			if href, ok := links.SafeHref(attr.Val); ok {
				b.WriteString(` href="` + html.EscapeString(href) + `"`)
			}
		}
	}
	if voidElements[node.DataAtom] {
		b.WriteString("/>")
		return
	}
	b.WriteString(">")
	writeChildren(b, node)
	b.WriteString("</" + node.DataAtom.String() + ">")
}

func writeChildren(b *strings.Builder, node *html.Node) {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		writeSanitized(b, child)
	}
}
