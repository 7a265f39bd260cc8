// Package forms implements the row-to-document fill pipeline for court form
// templates: static field mappings, the reference directory of county courts,
// per-descriptor enrichment, the template registry and loader, the document
// filler, and the batch orchestrator that bundles filled documents into one
// archive.
package forms

import "strings"

// FieldRule projects one input column onto one or more target form fields.
// A column may broadcast its value to several fields in the same document,
// for example a party name that appears in the caption and in the signature
// block. Target names are matched exactly, symbolic names included.
type FieldRule struct {
	Column string   `json:"column"`
	Fields []string `json:"fields"`
}

// FieldMapping is the ordered static projection table for one output
// document. Rules apply in declaration order.
type FieldMapping []FieldRule

// MapField builds a rule for one column and its target fields.
func MapField(column string, fields ...string) FieldRule {
	return FieldRule{Column: column, Fields: fields}
}

// Columns returns the distinct source columns in rule order.
func (m FieldMapping) Columns() []string {
	seen := make(map[string]bool, len(m))
	out := make([]string, 0, len(m))
	for _, rule := range m {
		if seen[rule.Column] {
			continue
		}
		seen[rule.Column] = true
		out = append(out, rule.Column)
	}
	return out
}

// Truthy reports whether a cell value checks a checkbox. Checked values are
// "true" and "yes" in any casing, and the literal "1". Everything else,
// "false", "0", "no" included, unchecks explicitly.
func Truthy(value string) bool {
	switch strings.ToLower(value) {
	case "true", "yes", "1":
		return true
	default:
		return false
	}
}
