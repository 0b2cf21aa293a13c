package ticket

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validFields = `
fields:
  build_identifier: customfield_1
  product: customfield_2
  release_type: customfield_3
  public_cloud: customfield_4
  release_config: customfield_5
`

func TestProducts_Embedded(t *testing.T) {
	t.Parallel()

	products := Products()

	want := map[string]string{
		"CDSW":           "create_cdsw_promotion_ticket",
		"MODEL-REGISTRY": "create_model_registry_promotion_ticket",
		"CML-SERVING":    "create_cml_serving_promotion_ticket",
	}
	if len(products) != len(want) {
		t.Fatalf("expected %d products, got %d", len(want), len(products))
	}
	for _, p := range products {
		if want[p.Name] != p.ToolName() {
			t.Errorf("%s: ToolName() = %q; want %q", p.Name, p.ToolName(), want[p.Name])
		}
	}
	if got := strings.Join(ProductNames(products), ","); got != "CDSW,MODEL-REGISTRY,CML-SERVING" {
		t.Errorf("ProductNames() = %q", got)
	}
}

func TestDefaultFieldIDs_Embedded(t *testing.T) {
	t.Parallel()

	ids := DefaultFieldIDs()
	if ids.BuildIdentifier != "customfield_12610" || ids.ReleaseConfig != "customfield_12614" {
		t.Fatalf("DefaultFieldIDs() = %+v", ids)
	}
}

func TestDefaultCatalog_ReturnsCopy(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	c.Products[0].Name = "mutated"
	if Products()[0].Name == "mutated" {
		t.Fatal("DefaultCatalog shares its product slice")
	}
}

func TestParseCatalog_Rejects(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"bad yaml":        "products: [",
		"no name":         "products:\n  - tool: x\n" + validFields,
		"bad tool id":     "products:\n  - name: X\n    tool: Bad-Tool\n" + validFields,
		"duplicate id":    "products:\n  - name: A\n    tool: a\n  - name: B\n    tool: a\n" + validFields,
		"missing fields":  "products:\n  - name: A\n    tool: a\n",
		"bad field id":    "products: []\n" + strings.Replace(validFields, "customfield_3", "release", 1),
		"duplicate field": "products: []\n" + strings.Replace(validFields, "customfield_3", "customfield_2", 1),
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseCatalog([]byte(doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadCatalog_FileOverridesFieldIDs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := "products:\n  - name: CDSW\n    tool: cdsw\n" + validFields
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if len(c.Products) != 1 || c.Fields.Product != "customfield_2" {
		t.Fatalf("catalog = %+v", c)
	}
}

func TestLoadCatalog_EmptyPathIsEmbedded(t *testing.T) {
	t.Parallel()

	c, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if c.Fields != DefaultFieldIDs() || len(c.Products) != 3 {
		t.Fatalf("catalog = %+v", c)
	}
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
