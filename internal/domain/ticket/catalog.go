package ticket

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed products.yaml
var catalogYAML []byte

// Product is one promotable system.
type Product struct {
	Name        string `yaml:"name"`
	Tool        string `yaml:"tool"`
	Description string `yaml:"description"`
}

// ToolName is the convenience tool registered for p.
func (p Product) ToolName() string {
	return "create_" + p.Tool + "_promotion_ticket"
}

// FieldIDs maps promotion fields to Jira custom field ids.
type FieldIDs struct {
	BuildIdentifier string `yaml:"build_identifier"`
	Product         string `yaml:"product"`
	ReleaseType     string `yaml:"release_type"`
	PublicCloud     string `yaml:"public_cloud"`
	ReleaseConfig   string `yaml:"release_config"`
}

// Catalog is the promotable products plus the fields their tickets use.
type Catalog struct {
	Products []Product `yaml:"products"`
	Fields   FieldIDs  `yaml:"fields"`
}

var (
	toolPattern  = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	fieldPattern = regexp.MustCompile(`^customfield_[0-9]+$`)
)

var defaultCatalog = mustParseCatalog(catalogYAML)

func mustParseCatalog(data []byte) Catalog {
	c, err := ParseCatalog(data)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() Catalog {
	c := defaultCatalog
	c.Products = append([]Product(nil), defaultCatalog.Products...)
	return c
}

// DefaultFieldIDs returns the embedded custom field ids.
func DefaultFieldIDs() FieldIDs { return defaultCatalog.Fields }

// Products returns the embedded product list.
func Products() []Product { return DefaultCatalog().Products }

// LoadCatalog reads a catalog file; an empty path means the embedded one.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read product catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and checks a catalog document.
func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse product catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(c.Products))
	for i, p := range c.Products {
		if strings.TrimSpace(p.Name) == "" {
			return Catalog{}, fmt.Errorf("product catalog: entry %d has no name", i)
		}
		if !toolPattern.MatchString(p.Tool) {
			return Catalog{}, fmt.Errorf("product catalog: %s: invalid tool id %q", p.Name, p.Tool)
		}
		if _, dup := seen[p.Tool]; dup {
			return Catalog{}, fmt.Errorf("product catalog: duplicate tool id %q", p.Tool)
		}
		seen[p.Tool] = struct{}{}
	}
	if err := c.Fields.validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

func (f FieldIDs) validate() error {
	ids := map[string]string{
		"build_identifier": f.BuildIdentifier,
		"product":          f.Product,
		"release_type":     f.ReleaseType,
		"public_cloud":     f.PublicCloud,
		"release_config":   f.ReleaseConfig,
	}
	seen := make(map[string]string, len(ids))
	for name, id := range ids {
		if !fieldPattern.MatchString(id) {
			return fmt.Errorf("product catalog: fields.%s: invalid custom field id %q", name, id)
		}
		if other, dup := seen[id]; dup {
			return fmt.Errorf("product catalog: fields.%s and fields.%s share %s", other, name, id)
		}
		seen[id] = name
	}
	return nil
}

// ProductNames lists catalog names in order, for tool descriptions.
func ProductNames(products []Product) []string {
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	return names
}
