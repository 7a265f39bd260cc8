package forms

import (
	"fmt"
)

// OutputDescriptor describes one physical document a template emits per row:
// where its source PDF lives, how it is labeled, the static field mapping,
// and the enrichment steps that run after it.
type OutputDescriptor struct {
	Source  string       `json:"source"`
	Label   string       `json:"label"`
	Mapping FieldMapping `json:"mapping"`
	Enrich  []EnrichStep `json:"enrich,omitempty"`
}

// Template is a named, immutable, ordered set of output descriptors sharing
// one selection identifier. NameColumn designates the input column the
// naming policy derives file names from.
type Template struct {
	ID          string             `json:"id"`
	DisplayName string             `json:"display_name"`
	NameColumn  string             `json:"name_column"`
	Documents   []OutputDescriptor `json:"documents"`
}

// RequiredColumns returns the distinct input columns the template consumes,
// mapping sources, enrichment sources, and the identifying column combined,
// in first-use order.
func (t Template) RequiredColumns() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(column string) {
		if column == "" || seen[column] {
			return
		}
		seen[column] = true
		out = append(out, column)
	}

	add(t.NameColumn)
	for _, doc := range t.Documents {
		for _, column := range doc.Mapping.Columns() {
			add(column)
		}
		for _, step := range doc.Enrich {
			for _, column := range step.sourceColumns() {
				add(column)
			}
		}
	}
	return out
}

// Registry is the immutable template catalog, built once at startup and
// passed by reference wherever templates are resolved. Construction
// validates every template so a malformed table fails the process early
// instead of a run midway.
type Registry struct {
	templates map[string]Template
	order     []string
}

// NewRegistry validates the templates and builds the catalog. The registry
// owns copies of the descriptor slices, so later mutation of the caller's
// values cannot reach it.
func NewRegistry(templates []Template) (*Registry, error) {
	r := &Registry{templates: make(map[string]Template, len(templates))}

	for _, tmpl := range templates {
		if err := validateTemplate(tmpl); err != nil {
			return nil, fmt.Errorf("template %q: %w", tmpl.ID, err)
		}
		if _, exists := r.templates[tmpl.ID]; exists {
			return nil, fmt.Errorf("template %q: duplicate identifier", tmpl.ID)
		}
		r.templates[tmpl.ID] = cloneTemplate(tmpl)
		r.order = append(r.order, tmpl.ID)
	}
	return r, nil
}

// Resolve looks a template up by exact identifier.
func (r *Registry) Resolve(id string) (Template, bool) {
	tmpl, ok := r.templates[id]
	return tmpl, ok
}

// Templates returns the catalog in declaration order.
func (r *Registry) Templates() []Template {
	out := make([]Template, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.templates[id])
	}
	return out
}

// IDs returns the template identifiers in declaration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered templates.
func (r *Registry) Len() int {
	return len(r.order)
}

func validateTemplate(tmpl Template) error {
	if tmpl.ID == "" {
		return fmt.Errorf("identifier must not be empty")
	}
	if tmpl.NameColumn == "" {
		return fmt.Errorf("name column must not be empty")
	}
	if len(tmpl.Documents) == 0 {
		return fmt.Errorf("must declare at least one output document")
	}

	slugs := make(map[string]string, len(tmpl.Documents))
	for i, doc := range tmpl.Documents {
		if doc.Source == "" {
			return fmt.Errorf("document %d: source must not be empty", i)
		}
		if doc.Label == "" {
			return fmt.Errorf("document %d: label must not be empty", i)
		}

		// Distinct labels may still collide after slugging, so uniqueness
		// is enforced on the slug that ends up in file names.
		slug := labelSlug(doc.Label)
		if previous, taken := slugs[slug]; taken {
			return fmt.Errorf("document %d: label %q collides with %q after slugging", i, doc.Label, previous)
		}
		slugs[slug] = doc.Label

		for j, rule := range doc.Mapping {
			if rule.Column == "" {
				return fmt.Errorf("document %d: mapping rule %d has an empty column", i, j)
			}
			if len(rule.Fields) == 0 {
				return fmt.Errorf("document %d: column %q maps to no fields", i, rule.Column)
			}
			for _, field := range rule.Fields {
				if field == "" {
					return fmt.Errorf("document %d: column %q maps to an empty field name", i, rule.Column)
				}
			}
		}

		for j, step := range doc.Enrich {
			if err := validateEnrichStep(step); err != nil {
				return fmt.Errorf("document %d: enrichment step %d: %w", i, j, err)
			}
		}
	}
	return nil
}

func validateEnrichStep(step EnrichStep) error {
	switch step.Kind {
	case EnrichDateStamp:
		if step.Field == "" {
			return fmt.Errorf("date stamp needs a target field")
		}
	case EnrichCourtAddress:
		if step.Field == "" || step.Column == "" {
			return fmt.Errorf("court address needs a county column and a target field")
		}
	case EnrichCopyAmount:
		if step.Field == "" || step.Column == "" {
			return fmt.Errorf("amount copy needs a source column and a target field")
		}
	case EnrichCustom:
		if step.Fn == nil {
			return fmt.Errorf("custom step %q has no function", step.diagnosticName())
		}
	default:
		return fmt.Errorf("unknown kind %q", step.Kind)
	}
	return nil
}

func cloneTemplate(tmpl Template) Template {
	docs := make([]OutputDescriptor, len(tmpl.Documents))
	for i, doc := range tmpl.Documents {
		mapping := make(FieldMapping, len(doc.Mapping))
		for j, rule := range doc.Mapping {
			fields := make([]string, len(rule.Fields))
			copy(fields, rule.Fields)
			mapping[j] = FieldRule{Column: rule.Column, Fields: fields}
		}
		enrich := make([]EnrichStep, len(doc.Enrich))
		copy(enrich, doc.Enrich)
		docs[i] = OutputDescriptor{
			Source:  doc.Source,
			Label:   doc.Label,
			Mapping: mapping,
			Enrich:  enrich,
		}
	}
	tmpl.Documents = docs
	return tmpl
}
