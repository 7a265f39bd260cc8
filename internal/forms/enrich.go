package forms

import (
	"fmt"
	"strings"

	"github.com/docketforge/mcp-form-filler/internal/forms/rowset"
)

// EnrichKind tags one declarative enrichment step variant.
type EnrichKind string

const (
	// EnrichDateStamp writes the current date into a field.
	EnrichDateStamp EnrichKind = "date_stamp"

	// EnrichCourtAddress looks a county up in the court directory and
	// writes the composite single-line address into a field.
	EnrichCourtAddress EnrichKind = "court_address"

	// EnrichCopyAmount copies a monetary column into a field with the
	// leading currency symbol stripped.
	EnrichCopyAmount EnrichKind = "copy_amount"

	// EnrichCustom runs an arbitrary function against the field setter.
	EnrichCustom EnrichKind = "custom"
)

const defaultDateLayout = "January 2, 2006"

// EnrichStep is one enrichment action applied after static mapping. Steps
// run in declaration order, may overwrite statically mapped fields, and are
// individually fault tolerant: one failing step never stops the others.
type EnrichStep struct {
	Kind   EnrichKind `json:"kind"`
	Field  string     `json:"field,omitempty"`
	Column string     `json:"column,omitempty"`
	Layout string     `json:"layout,omitempty"`
	Name   string     `json:"name,omitempty"`

	// Fn is the escape hatch for behavior the declarative kinds cannot
	// express. Only consulted when Kind is EnrichCustom.
	Fn func(doc FieldSetter, row rowset.Row) error `json:"-"`
}

// DateStamp builds a step that writes today's date into field. An optional
// Go time layout overrides the long-form default.
func DateStamp(field string, layout ...string) EnrichStep {
	step := EnrichStep{Kind: EnrichDateStamp, Field: field, Layout: defaultDateLayout}
	if len(layout) > 0 && layout[0] != "" {
		step.Layout = layout[0]
	}
	return step
}

// CourtAddress builds a step that resolves the county named by countyColumn
// and writes the court's composite address into field.
func CourtAddress(countyColumn, field string) EnrichStep {
	return EnrichStep{Kind: EnrichCourtAddress, Field: field, Column: countyColumn}
}

// CopyAmount builds a step that copies column into field, stripping a
// leading currency symbol.
func CopyAmount(column, field string) EnrichStep {
	return EnrichStep{Kind: EnrichCopyAmount, Field: field, Column: column}
}

// Custom builds an escape-hatch step running fn. The name identifies the
// step in diagnostics.
func Custom(name string, fn func(doc FieldSetter, row rowset.Row) error) EnrichStep {
	return EnrichStep{Kind: EnrichCustom, Name: name, Fn: fn}
}

// diagnosticName identifies a step in warnings and logs.
func (s EnrichStep) diagnosticName() string {
	if s.Name != "" {
		return s.Name
	}
	return string(s.Kind)
}

// sourceColumns returns the input columns a step reads, for schema checks.
func (s EnrichStep) sourceColumns() []string {
	switch s.Kind {
	case EnrichCourtAddress, EnrichCopyAmount:
		return []string{s.Column}
	default:
		return nil
	}
}

// stripCurrency removes a leading dollar sign and surrounding whitespace
// from a monetary cell, "$1,250.00" becoming "1,250.00".
func stripCurrency(value string) string {
	trimmed := strings.TrimSpace(value)
	trimmed = strings.TrimPrefix(trimmed, "$")
	return strings.TrimSpace(trimmed)
}

// runCustomStep invokes a custom step function, converting a panic into an
// ordinary step failure so one misbehaving step cannot take down the unit.
func runCustomStep(doc FieldSetter, step EnrichStep, row rowset.Row) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in custom step: %v", r)
		}
	}()

	if step.Fn == nil {
		return fmt.Errorf("custom step %q has no function", step.diagnosticName())
	}
	return step.Fn(doc, row)
}
