package forms

// WarningKind classifies a non-fatal per-field condition raised while
// filling one document. Warnings are developer-facing diagnostics; they
// never abort a unit or a run.
type WarningKind string

const (
	// WarningFieldMissing means a mapped target field does not exist in the
	// template document.
	WarningFieldMissing WarningKind = "field_missing"

	// WarningFieldKind means the target field exists but is neither a text
	// field nor a checkbox.
	WarningFieldKind WarningKind = "field_kind"

	// WarningEnrichment means one enrichment sub-action failed. Remaining
	// sub-actions of the same rule still run.
	WarningEnrichment WarningKind = "enrichment"
)

// FieldWarning is one recoverable condition recorded during a fill.
type FieldWarning struct {
	Kind   WarningKind `json:"kind"`
	Field  string      `json:"field,omitempty"`
	Column string      `json:"column,omitempty"`
	Step   string      `json:"step,omitempty"`
	Detail string      `json:"detail"`
}

// UnitOutcome is the structured result of one (row, descriptor) unit. A unit
// either produced named document bytes, possibly with warnings, or failed
// with an error that did not stop the rest of the batch.
type UnitOutcome struct {
	RowIndex   int            `json:"row_index"`
	Label      string         `json:"label"`
	OutputName string         `json:"output_name,omitempty"`
	SizeBytes  int            `json:"size_bytes,omitempty"`
	Warnings   []FieldWarning `json:"warnings,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Succeeded reports whether the unit produced document bytes.
func (u UnitOutcome) Succeeded() bool {
	return u.Error == ""
}
