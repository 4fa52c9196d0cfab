package catalogimporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/storefront/internal/services/storefront/product"
	"gopkg.in/yaml.v3"
)

// productFile is one import file: a product and the sections shown with it.
type productFile struct {
	Product  product.Product  `json:"product"`
	Sections []sectionPayload `json:"sections"`
}

// sectionPayload is one content section. Richtext stays untyped until keys
// are assigned.
type sectionPayload struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Position *int   `json:"position,omitempty"`
	Richtext any    `json:"richtext"`
}

var supportedExtensions = map[string]bool{
	".json": true,
	".yaml": true,
	".yml":  true,
}

// readProductFile decodes a JSON or YAML import file. YAML documents are
// converted to JSON first so both formats share the json tags above.
func readProductFile(path string) (productFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return productFile{}, err
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		data, err = yamlToJSON(data)
		if err != nil {
			return productFile{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
		}
	}

	var file productFile
	if err := json.Unmarshal(data, &file); err != nil {
		return productFile{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return file, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var value any
	if err := yaml.Unmarshal(data, &value); err != nil {
		return nil, err
	}
	normalized, err := normalizeYAML(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

// normalizeYAML rejects mappings with non-string keys, which JSON cannot
// represent.
func normalizeYAML(value any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		for key, item := range v {
			normalized, err := normalizeYAML(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			v[key] = normalized
		}
		return v, nil
	case map[any]any:
		return nil, fmt.Errorf("mapping keys must be strings")
	case []any:
		for i, item := range v {
			normalized, err := normalizeYAML(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			v[i] = normalized
		}
		return v, nil
	default:
		return v, nil
	}
}
