package richtext

import (
	"encoding/json"

	"github.com/a-h/templ"
)

// TypeProps is the input of a custom object component.
type TypeProps struct {
	Node     Node
	Index    int
	IsInline bool
}

// Value returns the raw object payload.
func (p TypeProps) Value() json.RawMessage {
	return p.Node.Raw()
}

// MarkProps is the input of a mark component. Def is the zero value for
// decorators, which have no definition.
type MarkProps struct {
	MarkType string
	MarkKey  string
	Def      MarkDef
	Text     string
	Children templ.Component
}

// BlockProps is the input of a block style component.
type BlockProps struct {
	Node     Node
	Index    int
	Children templ.Component
}

// ListProps is the input of a list container component.
type ListProps struct {
	ListItem string
	Level    int
	Children templ.Component
}

// ListItemProps is the input of a list item component.
type ListItemProps struct {
	Node     Node
	Index    int
	Children templ.Component
}

// TypeComponent renders a custom object.
type TypeComponent func(TypeProps) templ.Component

// MarkComponent renders a decorator or annotation around its children.
type MarkComponent func(MarkProps) templ.Component

// BlockComponent renders a text block of one style.
type BlockComponent func(BlockProps) templ.Component

// ListComponent renders a list container.
type ListComponent func(ListProps) templ.Component

// ListItemComponent renders one list item.
type ListItemComponent func(ListItemProps) templ.Component

// Components maps node discriminants to the components that render them.
// Entries override the built-in defaults for block styles, lists, list
// items and decorators; custom types and annotations have no defaults.
type Components struct {
	Types    map[string]TypeComponent
	Marks    map[string]MarkComponent
	Block    map[string]BlockComponent
	List     map[string]ListComponent
	ListItem map[string]ListItemComponent
}

// MissingKind names the table a missing component was looked up in.
type MissingKind string

const (
	// MissingType is reported for a custom object with no Types entry.
	MissingType MissingKind = "type"
	// MissingMark is reported for a decorator or annotation with no Marks entry.
	MissingMark MissingKind = "mark"
	// MissingBlockStyle is reported for a block style with no Block entry.
	MissingBlockStyle MissingKind = "block style"
	// MissingList is reported for a list type with no List entry.
	MissingList MissingKind = "list"
	// MissingListItem is reported for a list item type with no ListItem entry.
	MissingListItem MissingKind = "list item"
)

// MissingComponent describes a node the component table could not render.
type MissingComponent struct {
	Kind    MissingKind
	Type    string
	NodeKey string
}

// MissingComponentHandler observes nodes rendered without a component.
type MissingComponentHandler func(MissingComponent)

type renderOptions struct {
	onMissing MissingComponentHandler
}

// Option configures a Render call.
type Option func(*renderOptions)

// WithMissingComponentHandler reports unknown node kinds to fn.
func WithMissingComponentHandler(fn MissingComponentHandler) Option {
	return func(o *renderOptions) {
		o.onMissing = fn
	}
}
