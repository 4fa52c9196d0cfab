package richtext

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Render returns a component that renders doc with components. Unknown
// custom types render nothing, unknown marks render their children
// unwrapped, unknown block styles and list types fall back to paragraphs and
// bullet lists. Every fallback is reported to the missing component handler.
func Render(doc Document, components *Components, opts ...Option) templ.Component {
	options := renderOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if components == nil {
		components = &Components{}
	}
	r := renderer{components: components, onMissing: options.onMissing}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, seg := range groupLists(doc) {
			if seg.list != nil {
				if err := r.list(ctx, w, seg.list); err != nil {
					return err
				}
				continue
			}
			if err := r.node(ctx, w, seg.node, seg.index); err != nil {
				return err
			}
		}
		return nil
	})
}

type renderer struct {
	components *Components
	onMissing  MissingComponentHandler
}

func (r renderer) missing(kind MissingKind, typ string, key string) {
	if r.onMissing == nil {
		return
	}
	r.onMissing(MissingComponent{Kind: kind, Type: typ, NodeKey: key})
}

func (r renderer) node(ctx context.Context, w io.Writer, node Node, index int) error {
	if node.IsBlock() {
		return r.block(ctx, w, node, index)
	}
	return r.object(ctx, w, node, index, false)
}

func (r renderer) object(ctx context.Context, w io.Writer, node Node, index int, inline bool) error {
	component, ok := r.components.Types[node.Type]
	if !ok || component == nil {
		r.missing(MissingType, node.Type, node.Key)
		return nil
	}
	rendered := component(TypeProps{Node: node, Index: index, IsInline: inline})
	if rendered == nil {
		return nil
	}
	if err := rendered.Render(ctx, w); err != nil {
		return fmt.Errorf("render %s: %w", node.Type, err)
	}
	return nil
}

func (r renderer) block(ctx context.Context, w io.Writer, node Node, index int) error {
	style := node.Style
	if style == "" {
		style = "normal"
	}
	children := r.inline(node)
	if component, ok := r.components.Block[style]; ok && component != nil {
		return component(BlockProps{Node: node, Index: index, Children: children}).Render(ctx, w)
	}
	tag, ok := blockTags[style]
	if !ok {
		r.missing(MissingBlockStyle, style, node.Key)
		tag = "p"
	}
	return element(tag, "", children).Render(ctx, w)
}

func (r renderer) list(ctx context.Context, w io.Writer, l *list) error {
	items := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, entry := range l.items {
			if err := r.listItem(ctx, w, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if component, ok := r.components.List[l.listItem]; ok && component != nil {
		return component(ListProps{ListItem: l.listItem, Level: l.level, Children: items}).Render(ctx, w)
	}
	tag, ok := listTags[l.listItem]
	if !ok {
		r.missing(MissingList, l.listItem, "")
		tag = "ul"
	}
	return element(tag, "", items).Render(ctx, w)
}

func (r renderer) listItem(ctx context.Context, w io.Writer, entry *listEntry) error {
	node := entry.node
	var content templ.Component = r.inline(node)
	if style := node.Style; style != "" && style != "normal" {
		if tag, ok := blockTags[style]; ok {
			content = element(tag, "", content)
		}
	}
	children := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := content.Render(ctx, w); err != nil {
			return err
		}
		for _, nested := range entry.children {
			if err := r.list(ctx, w, nested); err != nil {
				return err
			}
		}
		return nil
	})
	if component, ok := r.components.ListItem[node.ListItem]; ok && component != nil {
		return component(ListItemProps{Node: node, Index: entry.index, Children: children}).Render(ctx, w)
	}
	if _, ok := listTags[node.ListItem]; !ok {
		r.missing(MissingListItem, node.ListItem, node.Key)
	}
	return element("li", "", children).Render(ctx, w)
}

// inline renders the children of a block through the mark tree.
func (r renderer) inline(node Node) templ.Component {
	tree := buildMarkTree(node.Children)
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return r.markChildren(ctx, w, node, tree)
	})
}

func (r renderer) markChildren(ctx context.Context, w io.Writer, block Node, parent *markNode) error {
	for i, child := range parent.children {
		switch {
		case child.span != nil:
			if err := writeText(w, child.span.Text); err != nil {
				return err
			}
		case child.object != nil:
			if err := r.object(ctx, w, child.object.Node(), i, true); err != nil {
				return err
			}
		default:
			if err := r.mark(ctx, w, block, child); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r renderer) mark(ctx context.Context, w io.Writer, block Node, node *markNode) error {
	children := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return r.markChildren(ctx, w, block, node)
	})
	props := MarkProps{MarkType: node.mark, MarkKey: node.mark, Text: node.text(), Children: children}
	if def, ok := block.MarkDef(node.mark); ok {
		props.MarkType = def.Type
		props.Def = def
	}
	if component, ok := r.components.Marks[props.MarkType]; ok && component != nil {
		rendered := component(props)
		if rendered == nil {
			return nil
		}
		if err := rendered.Render(ctx, w); err != nil {
			return fmt.Errorf("render %s mark: %w", props.MarkType, err)
		}
		return nil
	}
	if decorator, ok := decorators[props.MarkType]; ok {
		return element(decorator.tag, decorator.attrs, children).Render(ctx, w)
	}
	r.missing(MissingMark, props.MarkType, block.Key)
	return children.Render(ctx, w)
}

var blockTags = map[string]string{
	"normal":     "p",
	"h1":         "h1",
	"h2":         "h2",
	"h3":         "h3",
	"h4":         "h4",
	"h5":         "h5",
	"h6":         "h6",
	"blockquote": "blockquote",
}

var listTags = map[string]string{
	"bullet": "ul",
	"number": "ol",
}

type decorator struct {
	tag   string
	attrs string
}

var decorators = map[string]decorator{
	"strong":         {tag: "strong"},
	"em":             {tag: "em"},
	"code":           {tag: "code"},
	"underline":      {tag: "span", attrs: ` style="text-decoration:underline"`},
	"strike-through": {tag: "del"},
}

// element wraps children in a tag. attrs must already be escaped.
func element(tag string, attrs string, children templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<"+tag+attrs+">"); err != nil {
			return err
		}
		if children != nil {
			if err := children.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</"+tag+">")
		return err
	})
}

// writeText escapes text and turns line breaks into <br/>.
func writeText(w io.Writer, text string) error {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			if _, err := io.WriteString(w, "<br/>"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, templ.EscapeString(line)); err != nil {
			return err
		}
	}
	return nil
}
