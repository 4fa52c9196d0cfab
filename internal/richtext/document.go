// Package richtext decodes Portable Text documents and renders them to HTML
// through a table of caller-supplied components.
//
// A document is an ordered list of nodes. Nodes with type "block" carry text
// spans, decorator marks and annotation definitions; every other node type is
// a custom object whose payload is preserved verbatim so the component that
// renders it can decode exactly what the author stored.
package richtext

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// BlockType is the node type used for text blocks.
const BlockType = "block"

// SpanType is the child type used for text spans.
const SpanType = "span"

// Document is an ordered list of Portable Text nodes.
type Document []Node

// Node is a top-level block or custom object.
type Node struct {
	Type     string
	Key      string
	Style    string
	ListItem string
	Level    int
	Children []Span
	MarkDefs []MarkDef

	raw json.RawMessage
}

// Span is an inline child of a block: a text span or an inline object.
type Span struct {
	Type  string
	Key   string
	Text  string
	Marks []string

	raw json.RawMessage
}

// MarkDef defines an annotation referenced by span marks through its key.
type MarkDef struct {
	Key  string
	Type string

	raw json.RawMessage
}

type nodeFields struct {
	Type     string    `json:"_type"`
	Key      string    `json:"_key,omitempty"`
	Style    string    `json:"style,omitempty"`
	ListItem string    `json:"listItem,omitempty"`
	Level    int       `json:"level,omitempty"`
	Children []Span    `json:"children,omitempty"`
	MarkDefs []MarkDef `json:"markDefs,omitempty"`
}

type spanFields struct {
	Type  string   `json:"_type"`
	Key   string   `json:"_key,omitempty"`
	Text  string   `json:"text,omitempty"`
	Marks []string `json:"marks,omitempty"`
}

type markDefFields struct {
	Key  string `json:"_key"`
	Type string `json:"_type"`
}

// Decode reads a document from r.
func Decode(r io.Reader) (Document, error) {
	if r == nil {
		return nil, errors.New("reader is required")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// DecodeString reads a document from a JSON string.
func DecodeString(input string) (Document, error) {
	return Decode(strings.NewReader(input))
}

// UnmarshalJSON accepts an array of nodes, a single node object or null.
func (d *Document) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*d = nil
		return nil
	}
	if trimmed[0] == '{' {
		var node Node
		if err := json.Unmarshal(trimmed, &node); err != nil {
			return fmt.Errorf("decode document node: %w", err)
		}
		*d = Document{node}
		return nil
	}
	var nodes []Node
	if err := json.Unmarshal(trimmed, &nodes); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	*d = nodes
	return nil
}

// IsEmpty reports whether the document has no nodes.
func (d Document) IsEmpty() bool {
	return len(d) == 0
}

// UnmarshalJSON decodes the known node fields and keeps the full payload.
func (n *Node) UnmarshalJSON(data []byte) error {
	var fields nodeFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if strings.TrimSpace(fields.Type) == "" {
		return errors.New("node _type is required")
	}
	*n = Node{
		Type:     fields.Type,
		Key:      fields.Key,
		Style:    fields.Style,
		ListItem: fields.ListItem,
		Level:    fields.Level,
		Children: fields.Children,
		MarkDefs: fields.MarkDefs,
		raw:      append(json.RawMessage(nil), data...),
	}
	return nil
}

// MarshalJSON returns the original payload when the node was decoded.
func (n Node) MarshalJSON() ([]byte, error) {
	if len(n.raw) > 0 {
		return n.raw, nil
	}
	return json.Marshal(nodeFields{
		Type:     n.Type,
		Key:      n.Key,
		Style:    n.Style,
		ListItem: n.ListItem,
		Level:    n.Level,
		Children: n.Children,
		MarkDefs: n.MarkDefs,
	})
}

// Raw returns the node payload as it was decoded.
func (n Node) Raw() json.RawMessage {
	return n.raw
}

// Decode unmarshals the node payload into v. Values embedding Payload also
// receive the payload itself.
func (n Node) Decode(v any) error {
	data, err := n.MarshalJSON()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s node: %w", n.Type, err)
	}
	setRaw(v, data)
	return nil
}

// IsBlock reports whether the node is a text block.
func (n Node) IsBlock() bool {
	return n.Type == BlockType
}

// IsListItem reports whether the node belongs to a list.
func (n Node) IsListItem() bool {
	return n.IsBlock() && strings.TrimSpace(n.ListItem) != ""
}

// ListLevel returns the list nesting level, starting at 1.
func (n Node) ListLevel() int {
	if n.Level < 1 {
		return 1
	}
	return n.Level
}

// Text concatenates the text of all spans in the block.
func (n Node) Text() string {
	var b strings.Builder
	for _, child := range n.Children {
		if child.IsText() {
			b.WriteString(child.Text)
		}
	}
	return b.String()
}

// MarkDef returns the annotation definition for key.
func (n Node) MarkDef(key string) (MarkDef, bool) {
	for _, def := range n.MarkDefs {
		if def.Key == key {
			return def, true
		}
	}
	return MarkDef{}, false
}

// UnmarshalJSON decodes the known span fields and keeps the full payload.
func (s *Span) UnmarshalJSON(data []byte) error {
	var fields spanFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields.Type == "" {
		fields.Type = SpanType
	}
	*s = Span{
		Type:  fields.Type,
		Key:   fields.Key,
		Text:  fields.Text,
		Marks: fields.Marks,
		raw:   append(json.RawMessage(nil), data...),
	}
	return nil
}

// MarshalJSON returns the original payload when the span was decoded.
func (s Span) MarshalJSON() ([]byte, error) {
	if len(s.raw) > 0 {
		return s.raw, nil
	}
	return json.Marshal(spanFields{Type: s.Type, Key: s.Key, Text: s.Text, Marks: s.Marks})
}

// IsText reports whether the span holds text rather than an inline object.
func (s Span) IsText() bool {
	return s.Type == "" || s.Type == SpanType
}

// Node converts an inline object to a node so it can be rendered like a
// top-level custom object.
func (s Span) Node() Node {
	raw, _ := s.MarshalJSON()
	return Node{Type: s.Type, Key: s.Key, raw: raw}
}

// UnmarshalJSON decodes the definition key and type and keeps the payload.
func (m *MarkDef) UnmarshalJSON(data []byte) error {
	var fields markDefFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*m = MarkDef{
		Key:  fields.Key,
		Type: fields.Type,
		raw:  append(json.RawMessage(nil), data...),
	}
	return nil
}

// MarshalJSON returns the original payload when the definition was decoded.
func (m MarkDef) MarshalJSON() ([]byte, error) {
	if len(m.raw) > 0 {
		return m.raw, nil
	}
	return json.Marshal(markDefFields{Key: m.Key, Type: m.Type})
}

// Decode unmarshals the definition payload into v. Values embedding Payload
// also receive the payload itself.
func (m MarkDef) Decode(v any) error {
	data, err := m.MarshalJSON()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s annotation: %w", m.Type, err)
	}
	setRaw(v, data)
	return nil
}

// Payload keeps the JSON a custom object or annotation was decoded from, so
// renderers see fields their value type does not declare.
type Payload struct {
	Raw json.RawMessage `json:"-"`
}

// SetRaw records a copy of raw.
func (p *Payload) SetRaw(raw json.RawMessage) {
	p.Raw = append(json.RawMessage(nil), raw...)
}

func setRaw(v any, data []byte) {
	if p, ok := v.(interface{ SetRaw(json.RawMessage) }); ok {
		p.SetRaw(data)
	}
}

// WalkFunc is called for every node visited by Walk. Inline objects are
// passed as nodes with inline set to true.
type WalkFunc func(node Node, index int, inline bool) error

// Walk visits the document depth first: each top-level node, then the
// inline objects among its children.
func Walk(doc Document, fn WalkFunc) error {
	if fn == nil {
		return errors.New("walk function is required")
	}
	for i, node := range doc {
		if err := fn(node, i, false); err != nil {
			return err
		}
		for j, child := range node.Children {
			if child.IsText() {
				continue
			}
			if err := fn(child.Node(), j, true); err != nil {
				return err
			}
		}
	}
	return nil
}
