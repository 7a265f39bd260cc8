package audit

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/docketforge/mcp-form-filler/internal/forms"
	"github.com/docketforge/mcp-form-filler/internal/forms/acroform"
)

// Auditor checks registered templates against their source PDFs.
type Auditor struct {
	registry *forms.Registry
	loader   forms.SourceLoader
	logger   *zap.Logger
}

// NewAuditor creates an auditor over a template catalog and source loader.
func NewAuditor(registry *forms.Registry, loader forms.SourceLoader, logger *zap.Logger) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{
		registry: registry,
		loader:   loader,
		logger:   logger,
	}
}

// Audit runs the checks for one registered template.
func (a *Auditor) Audit(templateID string) (*Report, error) {
	tmpl, ok := a.registry.Resolve(templateID)
	if !ok {
		return nil, fmt.Errorf("template %q is not registered", templateID)
	}
	return a.AuditTemplate(tmpl), nil
}

// AuditTemplate checks every document of a template. Problems degrade to
// findings; the audit itself always completes.
func (a *Auditor) AuditTemplate(tmpl forms.Template) *Report {
	report := &Report{TemplateID: tmpl.ID}
	for _, doc := range tmpl.Documents {
		a.auditDocument(report, doc)
	}
	report.Clean = report.ErrorCount == 0
	return report
}

func (a *Auditor) auditDocument(report *Report, doc forms.OutputDescriptor) {
	docReport := DocumentReport{
		Source:   doc.Source,
		Label:    doc.Label,
		ScanMode: ScanModeUnavailable,
	}

	data, err := a.loader.Load(doc.Source)
	if err != nil {
		report.add(Finding{
			Severity: SeverityError,
			Code:     CodeSourceUnreadable,
			Label:    doc.Label,
			Message:  fmt.Sprintf("source %q cannot be loaded: %v", doc.Source, err),
		})
		report.Documents = append(report.Documents, docReport)
		return
	}

	inventory := a.fieldInventory(report, doc, data, &docReport)
	a.checkMapping(report, doc, inventory)
	a.checkEnrich(report, doc, inventory)
	report.Documents = append(report.Documents, docReport)
}

// fieldInventory builds the name to kind map for one document, falling back
// to a raw byte scan when the form tree does not parse.
func (a *Auditor) fieldInventory(report *Report, doc forms.OutputDescriptor, data []byte, docReport *DocumentReport) map[string]acroform.Kind {
	inventory := make(map[string]acroform.Kind)

	if parsed, err := acroform.Load(data); err == nil {
		docReport.ScanMode = ScanModeAcroform
		for _, field := range parsed.Fields() {
			inventory[field.Name] = field.Kind
			docReport.Fields = append(docReport.Fields, field.Name)
		}
	} else {
		docReport.ScanMode = ScanModeRaw
		report.add(Finding{
			Severity: SeverityInfo,
			Code:     CodeRawFieldScan,
			Label:    doc.Label,
			Message:  fmt.Sprintf("form tree did not parse (%v), field names recovered from a raw scan", err),
		})
		a.logger.Debug("falling back to raw field scan",
			zap.String("source", doc.Source),
			zap.Error(err))
		for _, name := range ScanFieldNames(data) {
			inventory[name] = acroform.KindUnknown
			docReport.Fields = append(docReport.Fields, name)
		}
	}
	docReport.FieldCount = len(docReport.Fields)

	if len(inventory) == 0 {
		message := "document has no interactive fields"
		if docReport.ScanMode == ScanModeRaw && HasAcroFormMarker(data) {
			message = "form fields exist but could not be enumerated, they may live in compressed object streams"
		}
		report.add(Finding{
			Severity: SeverityWarning,
			Code:     CodeNoFields,
			Label:    doc.Label,
			Message:  message,
		})
	}
	return inventory
}

func (a *Auditor) checkMapping(report *Report, doc forms.OutputDescriptor, inventory map[string]acroform.Kind) {
	for _, rule := range doc.Mapping {
		for _, field := range rule.Fields {
			kind, ok := inventory[field]
			if !ok {
				report.add(Finding{
					Severity: SeverityError,
					Code:     CodeMappingTarget,
					Label:    doc.Label,
					Field:    field,
					Column:   rule.Column,
					Message:  fmt.Sprintf("mapping target %q (column %q) not found in the document", field, rule.Column),
				})
				continue
			}
			// A raw scan cannot determine kinds, so only verify what is known.
			if kind == acroform.KindUnknown {
				continue
			}
			if kind != acroform.KindText && kind != acroform.KindCheckBox {
				report.add(Finding{
					Severity: SeverityError,
					Code:     CodeMappingKind,
					Label:    doc.Label,
					Field:    field,
					Column:   rule.Column,
					Message:  fmt.Sprintf("mapping target %q is a %s field, only text and checkbox fields can be filled", field, kind),
				})
			}
		}
	}
}

func (a *Auditor) checkEnrich(report *Report, doc forms.OutputDescriptor, inventory map[string]acroform.Kind) {
	for _, step := range doc.Enrich {
		if step.Kind == forms.EnrichCustom {
			name := step.Name
			if name == "" {
				name = string(step.Kind)
			}
			report.add(Finding{
				Severity: SeverityInfo,
				Code:     CodeCustomStep,
				Label:    doc.Label,
				Message:  fmt.Sprintf("custom step %q cannot be checked statically", name),
			})
			continue
		}

		kind, ok := inventory[step.Field]
		if !ok {
			report.add(Finding{
				Severity: SeverityError,
				Code:     CodeEnrichTarget,
				Label:    doc.Label,
				Field:    step.Field,
				Message:  fmt.Sprintf("enrichment target %q (%s) not found in the document", step.Field, step.Kind),
			})
			continue
		}
		if kind != acroform.KindText && kind != acroform.KindUnknown {
			report.add(Finding{
				Severity: SeverityError,
				Code:     CodeEnrichTarget,
				Label:    doc.Label,
				Field:    step.Field,
				Message:  fmt.Sprintf("enrichment target %q is a %s field, enrichment writes text", step.Field, kind),
			})
		}
	}
}
