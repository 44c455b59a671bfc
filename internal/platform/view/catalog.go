package view

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed fields.yaml
var defaultCatalog []byte

// Input types understood by the form template.
var inputTypes = map[string]bool{
	"text": true, "email": true, "tel": true, "date": true,
	"select": true, "textarea": true, "checkbox": true,
}

// FieldSpec describes how one form field is presented.
type FieldSpec struct {
	Name         string   `yaml:"name"`
	Label        string   `yaml:"label"`
	Type         string   `yaml:"type"`
	Placeholder  string   `yaml:"placeholder"`
	Autocomplete string   `yaml:"autocomplete"`
	Options      []string `yaml:"options"`
}

// Section groups fields under a heading.
type Section struct {
	Title  string      `yaml:"title"`
	Fields []FieldSpec `yaml:"fields"`
}

// Catalog is the ordered form layout.
type Catalog struct {
	Sections []Section `yaml:"sections"`
}

// DefaultCatalog parses the embedded layout.
func DefaultCatalog() (Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// ParseCatalog decodes a YAML layout and checks it for duplicate names and
// unknown input types.
func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse field catalog: %w", err)
	}

	seen := make(map[string]bool)
	for si, s := range c.Sections {
		for fi, f := range s.Fields {
			name := strings.TrimSpace(f.Name)
			if name == "" {
				return Catalog{}, fmt.Errorf("field catalog: section %d field %d has no name", si, fi)
			}
			if seen[name] {
				return Catalog{}, fmt.Errorf("field catalog: duplicate field %q", name)
			}
			seen[name] = true
			if !inputTypes[f.Type] {
				return Catalog{}, fmt.Errorf("field catalog: field %q has unknown type %q", name, f.Type)
			}
			if f.Type == "select" && len(f.Options) == 0 {
				return Catalog{}, fmt.Errorf("field catalog: select field %q has no options", name)
			}
			c.Sections[si].Fields[fi].Name = name
		}
	}
	return c, nil
}
