// Package schema describes the CRM field layout a fact sheet is mapped
// onto, plus the optional heading-to-field overrides an operator can
// ship alongside it. Both files are YAML and both are optional: the
// built-in schema covers the standard twelve sections.
package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Field is one CRM destination field.
type Field struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
	NLKey string `yaml:"nl_key" json:"nl_key"`
}

// Schema is the ordered list of CRM fields.
type Schema struct {
	Fields []Field `yaml:"fields" json:"fields"`
}

// Labels returns the field labels in schema order. These are the
// canonical section labels headings resolve against.
func (s *Schema) Labels() []string {
	labels := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		labels = append(labels, f.Label)
	}
	return labels
}

// FieldByLabel returns the field a canonical label maps to.
func (s *Schema) FieldByLabel(label string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Label == label {
			return f, true
		}
	}
	return Field{}, false
}

// Default returns the built-in schema: the twelve standard sections of
// an investment fact sheet, in presentation order.
func Default() *Schema {
	return &Schema{Fields: []Field{
		{Key: "introduction", Label: "Introduction", NLKey: "introduction_nl"},
		{Key: "localisation", Label: "Localisation", NLKey: "localisation_nl"},
		{Key: "marche", Label: "Marché", NLKey: "marche_nl"},
		{Key: "operateur", Label: "L'opérateur", NLKey: "operateur_nl"},
		{Key: "traction", Label: "Traction commerciale", NLKey: "traction_nl"},
		{Key: "budget", Label: "Budget", NLKey: "budget_nl"},
		{Key: "finances", Label: "Finances", NLKey: "finances_nl"},
		{Key: "calendrier", Label: "Calendrier", NLKey: "calendrier_nl"},
		{Key: "raisons", Label: "Les bonnes raisons d'investir", NLKey: "raisons_nl"},
		{Key: "risques", Label: "Facteurs de risque", NLKey: "risques_nl"},
		{Key: "sortie", Label: "Stratégie de sortie", NLKey: "sortie_nl"},
		{Key: "conclusion", Label: "Conclusion", NLKey: "conclusion_nl"},
	}}
}

// Load reads a schema file. An empty path returns the default.
func Load(path string) (*Schema, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Parse(data)
}

// Parse decodes schema YAML and validates it.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if len(s.Fields) == 0 {
		return nil, fmt.Errorf("parse schema: no fields")
	}
	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		if f.Key == "" || f.Label == "" {
			return nil, fmt.Errorf("parse schema: field %d missing key or label", i)
		}
		if seen[f.Key] {
			return nil, fmt.Errorf("parse schema: duplicate key %q", f.Key)
		}
		seen[f.Key] = true
	}
	return &s, nil
}

// Mapping is an operator-supplied set of heading aliases, mapping the
// headings seen in source documents onto canonical section labels.
type Mapping struct {
	Mapping map[string]string `yaml:"mapping" json:"mapping"`
}

// LoadMapping reads a mapping file. An empty path yields an empty
// mapping.
func LoadMapping(path string) (*Mapping, error) {
	if path == "" {
		return &Mapping{Mapping: map[string]string{}}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	return ParseMapping(data)
}

// ParseMapping decodes mapping YAML.
func ParseMapping(data []byte) (*Mapping, error) {
	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}
	if m.Mapping == nil {
		m.Mapping = map[string]string{}
	}
	return &m, nil
}
