package catalogimporter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/louisbranch/storefront/internal/richtext"
	"github.com/louisbranch/storefront/internal/services/storefront/blocks"
	"github.com/louisbranch/storefront/internal/services/storefront/links"
	"github.com/louisbranch/storefront/internal/services/storefront/productdetails"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
)

// keyNamespace seeds the name-based UUIDs used for generated section ids
// and node keys, so reimporting the same file yields the same values.
var keyNamespace = uuid.MustParse("6f1c3a52-0d0e-4c8e-9a57-5c2b0e3f8d41")

// preparedFile is a product file whose sections carry ids, positions and
// keyed rich text.
type preparedFile struct {
	Name     string
	Product  storage.ProductRecord
	Sections []storage.SectionRecord
	Warnings []string
}

func deriveID(parts ...string) string {
	return uuid.NewSHA1(keyNamespace, []byte(strings.Join(parts, "/"))).String()
}

// prepareFile fills generated fields and validates the result.
func prepareFile(name string, file productFile) (preparedFile, error) {
	handle := strings.TrimSpace(file.Product.Handle)
	if handle == "" {
		return preparedFile{}, errors.New("product handle is required")
	}
	if strings.TrimSpace(file.Product.Title) == "" {
		return preparedFile{}, fmt.Errorf("product %s: title is required", handle)
	}
	file.Product.Handle = handle

	prepared := preparedFile{
		Name:    name,
		Product: storage.ProductRecord{Product: file.Product},
	}
	positions := make(map[int]string, len(file.Sections))
	for i, payload := range file.Sections {
		id := strings.TrimSpace(payload.ID)
		if id == "" {
			id = deriveID(handle, "sections", strconv.Itoa(i))
		}
		kind := productdetails.SectionKind(strings.TrimSpace(payload.Kind))
		if !kind.Valid() {
			return preparedFile{}, fmt.Errorf("section %s: unsupported kind %q", id, payload.Kind)
		}
		position := i + 1
		if payload.Position != nil {
			position = *payload.Position
		}
		if other, taken := positions[position]; taken {
			return preparedFile{}, fmt.Errorf("section %s: position %d already used by %s", id, position, other)
		}
		positions[position] = id

		raw, err := assignKeys(payload.Richtext, id)
		if err != nil {
			return preparedFile{}, fmt.Errorf("section %s: %w", id, err)
		}
		doc, err := richtext.DecodeString(string(raw))
		if err != nil {
			return preparedFile{}, fmt.Errorf("section %s: %w", id, err)
		}
		warnings, err := validateDocument(doc)
		if err != nil {
			return preparedFile{}, fmt.Errorf("section %s: %w", id, err)
		}
		for _, warning := range warnings {
			prepared.Warnings = append(prepared.Warnings, fmt.Sprintf("section %s: %s", id, warning))
		}

		prepared.Sections = append(prepared.Sections, storage.SectionRecord{
			ID:            id,
			Kind:          string(kind),
			ProductHandle: handle,
			Position:      position,
			Richtext:      raw,
		})
	}
	return prepared, nil
}

// assignKeys gives every node, span and mark definition without a _key a
// stable key derived from its position in the section.
func assignKeys(value any, sectionID string) (json.RawMessage, error) {
	if value == nil {
		return json.RawMessage("[]"), nil
	}
	nodes, ok := value.([]any)
	if !ok {
		return nil, errors.New("richtext must be a list of nodes")
	}
	for i, item := range nodes {
		node, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("node %d: must be an object", i)
		}
		path := sectionID + "/" + strconv.Itoa(i)
		setKey(node, path)
		for _, field := range []string{"children", "markDefs"} {
			items, _ := node[field].([]any)
			for j, child := range items {
				if object, ok := child.(map[string]any); ok {
					setKey(object, path+"/"+field+"/"+strconv.Itoa(j))
				}
			}
		}
	}
	return json.Marshal(nodes)
}

func setKey(object map[string]any, path string) {
	if key, _ := object["_key"].(string); strings.TrimSpace(key) != "" {
		return
	}
	object["_key"] = deriveID(path)[:12]
}

// validateDocument rejects documents the renderer would fail on and returns
// warnings for content it would skip.
func validateDocument(doc richtext.Document) ([]string, error) {
	var warnings []string
	keys := make(map[string]bool)
	err := richtext.Walk(doc, func(node richtext.Node, index int, inline bool) error {
		if strings.TrimSpace(node.Type) == "" {
			return fmt.Errorf("node %d: _type is required", index)
		}
		if !inline {
			if keys[node.Key] {
				return fmt.Errorf("node %d: duplicate _key %q", index, node.Key)
			}
			keys[node.Key] = true
		}
		if node.IsBlock() {
			return validateMarks(node, &warnings)
		}
		kind := productdetails.Kind(node.Type)
		if isKnownMark(kind) {
			return fmt.Errorf("node %q: %s is an annotation, not a block", node.Key, node.Type)
		}
		if !isKnownKind(kind) {
			warnings = append(warnings, fmt.Sprintf("node %q: no renderer for type %q", node.Key, node.Type))
			return nil
		}
		if err := decodeBlock(kind, node); err != nil {
			return fmt.Errorf("node %q: %w", node.Key, err)
		}
		return nil
	})
	return warnings, err
}

func validateMarks(block richtext.Node, warnings *[]string) error {
	for _, def := range block.MarkDefs {
		kind := productdetails.Kind(def.Type)
		if !isKnownMark(kind) {
			*warnings = append(*warnings, fmt.Sprintf("block %q: no renderer for annotation %q", block.Key, def.Type))
			continue
		}
		if err := decodeAnnotation(kind, def); err != nil {
			return fmt.Errorf("block %q: annotation %q: %w", block.Key, def.Key, err)
		}
	}
	for _, span := range block.Children {
		if !span.IsText() {
			continue
		}
		for _, mark := range span.Marks {
			if richtext.IsDecorator(mark) {
				continue
			}
			if _, ok := block.MarkDef(mark); !ok {
				*warnings = append(*warnings, fmt.Sprintf("block %q: unknown mark %q", block.Key, mark))
			}
		}
	}
	return nil
}

// payloadCheck accepts every decoded value, so rendering an entry of its
// table fails only when the payload does not decode.
type payloadCheck struct{}

func (payloadCheck) ExternalLink(links.ExternalLink, templ.Component) templ.Component {
	return templ.NopComponent
}

func (payloadCheck) InternalLink(links.InternalLink, templ.Component) templ.Component {
	return templ.NopComponent
}

func (payloadCheck) AddToCartButton(blocks.AddToCartButton) templ.Component {
	return templ.NopComponent
}

func (payloadCheck) Price(blocks.Price) templ.Component { return templ.NopComponent }

func (payloadCheck) ShopifyDescription(blocks.ShopifyDescription) templ.Component {
	return templ.NopComponent
}

func (payloadCheck) ShopifyTitle(blocks.ShopifyTitle) templ.Component { return templ.NopComponent }

// payloadDecoders is the product details dispatch table with renders that
// only decode.
var payloadDecoders = productdetails.NewComponents(payloadCheck{})

func isKnownKind(kind productdetails.Kind) bool {
	_, ok := payloadDecoders.Types[string(kind)]
	return ok
}

func isKnownMark(kind productdetails.Kind) bool {
	_, ok := payloadDecoders.Marks[string(kind)]
	return ok
}

// decodeBlock checks that the node decodes into the value its renderer reads.
func decodeBlock(kind productdetails.Kind, node richtext.Node) error {
	component, ok := payloadDecoders.Types[string(kind)]
	if !ok {
		return nil
	}
	return component(richtext.TypeProps{Node: node}).Render(context.Background(), io.Discard)
}

func decodeAnnotation(kind productdetails.Kind, def richtext.MarkDef) error {
	component, ok := payloadDecoders.Marks[string(kind)]
	if !ok {
		return nil
	}
	props := richtext.MarkProps{MarkType: def.Type, MarkKey: def.Key, Def: def, Children: templ.NopComponent}
	return component(props).Render(context.Background(), io.Discard)
}

func upsertFile(ctx context.Context, store storage.Store, file preparedFile, now time.Time) error {
	record := file.Product
	record.UpdatedAt = now
	if err := store.PutProduct(ctx, record); err != nil {
		return fmt.Errorf("put product %s: %w", record.Product.Handle, err)
	}
	for _, section := range file.Sections {
		section.UpdatedAt = now
		if err := store.PutSection(ctx, section); err != nil {
			return fmt.Errorf("put section %s: %w", section.ID, err)
		}
	}
	return nil
}
