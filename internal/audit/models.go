// Package audit cross-checks a form template against the interactive
// fields actually present in its source PDFs, so mapping mistakes surface
// before a batch run instead of as per-row warnings.
package audit

// Severity grades one finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Finding codes.
const (
	CodeSourceUnreadable = "source_unreadable"
	CodeNoFields         = "no_fields"
	CodeRawFieldScan     = "raw_field_scan"
	CodeMappingTarget    = "mapping_target_missing"
	CodeMappingKind      = "mapping_target_kind"
	CodeEnrichTarget     = "enrichment_target_missing"
	CodeCustomStep       = "custom_step_unchecked"
)

// Finding is one problem or note discovered while auditing a template.
type Finding struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Label    string   `json:"label,omitempty"`
	Field    string   `json:"field,omitempty"`
	Column   string   `json:"column,omitempty"`
	Message  string   `json:"message"`
}

// Field scan modes for one document source.
const (
	ScanModeAcroform    = "acroform"
	ScanModeRaw         = "raw"
	ScanModeUnavailable = "unavailable"
)

// DocumentReport summarizes the field inventory of one template document.
type DocumentReport struct {
	Source     string   `json:"source"`
	Label      string   `json:"label"`
	ScanMode   string   `json:"scan_mode"`
	FieldCount int      `json:"field_count"`
	Fields     []string `json:"fields,omitempty"`
}

// Report is the outcome of auditing one template.
type Report struct {
	TemplateID   string           `json:"template_id"`
	Documents    []DocumentReport `json:"documents"`
	Findings     []Finding        `json:"findings"`
	ErrorCount   int              `json:"error_count"`
	WarningCount int              `json:"warning_count"`
	InfoCount    int              `json:"info_count"`
	Clean        bool             `json:"clean"`
}

func (r *Report) add(f Finding) {
	r.Findings = append(r.Findings, f)
	switch f.Severity {
	case SeverityError:
		r.ErrorCount++
	case SeverityWarning:
		r.WarningCount++
	case SeverityInfo:
		r.InfoCount++
	}
}
