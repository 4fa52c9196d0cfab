package catalogimporter

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	storagesqlite "github.com/louisbranch/storefront/internal/services/storefront/storage/sqlite"
)

const shirtYAML = `product:
  id: gid://shopify/Product/1
  handle: linen-shirt
  title: Linen Shirt
  descriptionHtml: <p>Breathable.</p>
  variants:
    - id: v-small
      title: Small
      price: {amount: "42.00", currencyCode: USD}
      availableForSale: true
sections:
  - id: shirt-info
    kind: productInformationSection
    richtext:
      - _type: shopifyTitle
      - _type: price
      - _type: addToCartButton
        quantitySelector: true
      - _type: block
        markDefs:
          - _key: care
            _type: internalLink
            link: {documentType: page, slug: {current: care}}
        children:
          - text: Care guide
            marks: [strong, care]
  - kind: featuredProductSection
    position: 5
    richtext:
      - _type: reviewsWidget
`

const capJSON = `{
  "product": {"handle": "cap", "title": "Cap", "variants": []},
  "sections": [{"id": "cap-info", "kind": "productInformationSection", "richtext": [{"_type": "shopifyTitle", "_key": "title"}]}]
}`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestParseConfig(t *testing.T) {
	t.Parallel()

	cfg, err := ParseConfig(flag.NewFlagSet("catalog-importer", flag.ContinueOnError), []string{"-dir", "catalog", "-dry-run"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	want := Config{Dir: "catalog", DBPath: DefaultDBPath, DryRun: true}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}

	fs := flag.NewFlagSet("catalog-importer", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := ParseConfig(fs, nil); err == nil {
		t.Fatal("expected missing dir error")
	}
}

func TestListProductFilesSkipsOtherEntries(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{"b.yml": "", "a.json": "", "c.YAML": "", "notes.txt": ""})
	if err := os.Mkdir(filepath.Join(dir, "drafts.json"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	names, err := listProductFiles(dir)
	if err != nil {
		t.Fatalf("list files: %v", err)
	}
	if diff := cmp.Diff([]string{"a.json", "b.yml", "c.YAML"}, names); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestRunDryRunValidatesWithoutWriting(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{"shirt.yaml": shirtYAML, "cap.json": capJSON})
	dbPath := filepath.Join(t.TempDir(), "data", "storefront.db")
	var out bytes.Buffer
	if err := Run(context.Background(), Config{Dir: dir, DBPath: dbPath, DryRun: true}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		`warning: shirt.yaml: section `,
		`no renderer for type "reviewsWidget"`,
		"validated 2 product(s), 3 section(s)\n",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output = %q, want %q", got, want)
		}
	}
	if _, err := os.Stat(dbPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("stat db = %v, want not exist", err)
	}
}

func TestRunImportsIntoStore(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{"shirt.yaml": shirtYAML, "cap.json": capJSON})
	dbPath := filepath.Join(t.TempDir(), "data", "storefront.db")
	var out bytes.Buffer
	for range 2 {
		out.Reset()
		if err := Run(context.Background(), Config{Dir: dir, DBPath: dbPath}, &out); err != nil {
			t.Fatalf("run: %v", err)
		}
	}
	if want := "imported 2 product(s), 3 section(s) into " + dbPath + "\n"; !strings.HasSuffix(out.String(), want) {
		t.Fatalf("output = %q, want suffix %q", out.String(), want)
	}

	store, err := storagesqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	shirt, err := store.GetProduct(ctx, "linen-shirt")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if shirt.Product.Variants[0].Price.Amount != "42.00" {
		t.Fatalf("price = %q, want %q", shirt.Product.Variants[0].Price.Amount, "42.00")
	}
	sections, err := store.ListProductSections(ctx, "linen-shirt")
	if err != nil {
		t.Fatalf("list sections: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(sections))
	}
	if sections[0].ID != "shirt-info" || sections[0].Position != 1 {
		t.Fatalf("first section = %s at %d, want shirt-info at 1", sections[0].ID, sections[0].Position)
	}
	if want := deriveID("linen-shirt", "sections", "1"); sections[1].ID != want || sections[1].Position != 5 {
		t.Fatalf("second section = %s at %d, want %s at 5", sections[1].ID, sections[1].Position, want)
	}
	if strings.Contains(string(sections[0].Richtext), `"_key":""`) || !strings.Contains(string(sections[0].Richtext), `"_key":"care"`) {
		t.Fatalf("richtext keys not assigned: %s", sections[0].Richtext)
	}
}

func TestRunRejectsInvalidCatalogs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name:  "empty dir",
			files: map[string]string{"notes.txt": "hi"},
			want:  "no product files",
		},
		{
			name:  "malformed yaml",
			files: map[string]string{"a.yaml": "product: [\n"},
			want:  "decode a.yaml",
		},
		{
			name:  "missing handle",
			files: map[string]string{"a.json": `{"product":{"title":"A"}}`},
			want:  "handle is required",
		},
		{
			name:  "unsupported section kind",
			files: map[string]string{"a.json": `{"product":{"handle":"a","title":"A"},"sections":[{"id":"s","kind":"heroSection"}]}`},
			want:  `unsupported kind "heroSection"`,
		},
		{
			name:  "annotation used as block",
			files: map[string]string{"a.json": `{"product":{"handle":"a","title":"A"},"sections":[{"id":"s","kind":"productInformationSection","richtext":[{"_type":"externalLink"}]}]}`},
			want:  "is an annotation",
		},
		{
			name:  "malformed block payload",
			files: map[string]string{"a.json": `{"product":{"handle":"a","title":"A"},"sections":[{"id":"s","kind":"productInformationSection","richtext":[{"_type":"addToCartButton","quantitySelector":"yes"}]}]}`},
			want:  "decode addToCartButton node",
		},
		{
			name:  "duplicate position",
			files: map[string]string{"a.json": `{"product":{"handle":"a","title":"A"},"sections":[{"id":"s1","kind":"productInformationSection"},{"id":"s2","kind":"productInformationSection","position":1}]}`},
			want:  "position 1 already used by s1",
		},
		{
			name: "duplicate handle",
			files: map[string]string{
				"a.json": `{"product":{"handle":"a","title":"A"}}`,
				"b.yml":  "product: {handle: a, title: B}\n",
			},
			want: "product a already defined in a.json",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dbPath := filepath.Join(t.TempDir(), "storefront.db")
			err := Run(context.Background(), Config{Dir: writeFiles(t, tc.files), DBPath: dbPath}, io.Discard)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Run() error = %v, want %q", err, tc.want)
			}
			if _, err := os.Stat(dbPath); !errors.Is(err, os.ErrNotExist) {
				t.Fatalf("stat db = %v, want not exist", err)
			}
		})
	}
}
