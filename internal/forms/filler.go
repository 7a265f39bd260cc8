package forms

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/docketforge/mcp-form-filler/internal/forms/acroform"
	"github.com/docketforge/mcp-form-filler/internal/forms/rowset"
)

// FieldSetter is the capability enrichment steps and the filler use to write
// fields. Failures are per-field conditions the caller decides how to treat.
type FieldSetter interface {
	SetText(name, value string) error
	SetCheckBox(name string, checked bool) error
	HasField(name string) bool
}

// FormDocument is one private, mutable document instance.
type FormDocument interface {
	FieldSetter
	Save() ([]byte, error)
}

// DocumentFactory builds a fresh document instance from template bytes.
// Every (row, descriptor) unit gets its own instance; filling is destructive
// and instances are never shared across rows.
type DocumentFactory func(template []byte) (FormDocument, error)

// AcroformFactory is the production factory, backed by the PDF form
// primitive.
func AcroformFactory(template []byte) (FormDocument, error) {
	return acroform.Load(template)
}

// FillerConfig carries the filler's collaborators. Zero values fall back to
// the built-in court directory, the wall clock, and a no-op logger.
type FillerConfig struct {
	Courts *CourtDirectory
	Now    func() time.Time
	Logger *zap.Logger
}

// DefaultFillerConfig returns the production collaborators.
func DefaultFillerConfig() FillerConfig {
	return FillerConfig{
		Courts: DefaultCourtDirectory(),
		Now:    time.Now,
		Logger: zap.NewNop(),
	}
}

// Filler applies one output descriptor to one input row against a fresh
// document instance. It is stateless across calls and safe for concurrent
// use as long as the document factory is.
type Filler struct {
	newDocument DocumentFactory
	courts      *CourtDirectory
	now         func() time.Time
	logger      *zap.Logger
}

// NewFiller builds a filler around a document factory.
func NewFiller(factory DocumentFactory, config ...FillerConfig) *Filler {
	cfg := DefaultFillerConfig()
	if len(config) > 0 {
		if config[0].Courts != nil {
			cfg.Courts = config[0].Courts
		}
		if config[0].Now != nil {
			cfg.Now = config[0].Now
		}
		if config[0].Logger != nil {
			cfg.Logger = config[0].Logger
		}
	}
	return &Filler{
		newDocument: factory,
		courts:      cfg.Courts,
		now:         cfg.Now,
		logger:      cfg.Logger,
	}
}

// Fill produces the filled document bytes for one (row, descriptor) unit.
// Static mapping rules apply first in declaration order, then the
// descriptor's enrichment steps, which may overwrite mapped fields. Field
// level problems come back as warnings; only a failure to load the template
// instance or to serialize the result is an error.
func (f *Filler) Fill(template []byte, descriptor OutputDescriptor, row rowset.Row) ([]byte, []FieldWarning, error) {
	doc, err := f.newDocument(template)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load document instance: %w", err)
	}

	warnings := f.applyMapping(doc, descriptor.Mapping, row)
	warnings = append(warnings, f.applyEnrich(doc, descriptor.Enrich, row)...)

	out, err := doc.Save()
	if err != nil {
		return nil, warnings, fmt.Errorf("failed to serialize filled document: %w", err)
	}
	return out, warnings, nil
}

// applyMapping walks the static projection table. Absent and empty cells are
// skipped entirely so target fields keep their template defaults.
func (f *Filler) applyMapping(doc FieldSetter, mapping FieldMapping, row rowset.Row) []FieldWarning {
	var warnings []FieldWarning
	for _, rule := range mapping {
		value, ok := row.Get(rule.Column)
		if !ok || value == "" {
			continue
		}
		for _, field := range rule.Fields {
			if w := f.setField(doc, field, rule.Column, value); w != nil {
				warnings = append(warnings, *w)
			}
		}
	}
	return warnings
}

// setField writes one value, trying the field as text first and falling
// back to checkbox semantics. A field that is neither produces a warning,
// never an error.
func (f *Filler) setField(doc FieldSetter, field, column, value string) *FieldWarning {
	if err := doc.SetText(field, value); err == nil {
		return nil
	}
	if err := doc.SetCheckBox(field, Truthy(value)); err == nil {
		return nil
	}

	warning := FieldWarning{Kind: WarningFieldMissing, Field: field, Column: column, Detail: "no such field in template"}
	if doc.HasField(field) {
		warning.Kind = WarningFieldKind
		warning.Detail = "field is neither text nor checkbox"
	}
	f.logger.Debug("skipping unmappable field",
		zap.String("field", field),
		zap.String("column", column),
		zap.String("kind", string(warning.Kind)))
	return &warning
}

// applyEnrich runs the descriptor's enrichment steps in order. Each step is
// fault tolerant on its own; a failing step is recorded and the rest still
// run.
func (f *Filler) applyEnrich(doc FieldSetter, steps []EnrichStep, row rowset.Row) []FieldWarning {
	var warnings []FieldWarning
	for _, step := range steps {
		if w := f.applyEnrichStep(doc, step, row); w != nil {
			warnings = append(warnings, *w)
		}
	}
	return warnings
}

func (f *Filler) applyEnrichStep(doc FieldSetter, step EnrichStep, row rowset.Row) *FieldWarning {
	switch step.Kind {
	case EnrichDateStamp:
		layout := step.Layout
		if layout == "" {
			layout = defaultDateLayout
		}
		if err := doc.SetText(step.Field, f.now().Format(layout)); err != nil {
			return enrichWarning(step, err)
		}

	case EnrichCourtAddress:
		county, ok := row.Get(step.Column)
		if !ok || county == "" {
			return nil
		}
		record, found := f.courts.Lookup(county)
		if !found {
			// A directory miss skips the enrichment, it is not a failure.
			f.logger.Debug("county not in court directory", zap.String("county", county))
			return nil
		}
		if err := doc.SetText(step.Field, record.CompositeAddress()); err != nil {
			return enrichWarning(step, err)
		}

	case EnrichCopyAmount:
		value, ok := row.Get(step.Column)
		if !ok || value == "" {
			return nil
		}
		if err := doc.SetText(step.Field, stripCurrency(value)); err != nil {
			return enrichWarning(step, err)
		}

	case EnrichCustom:
		if err := runCustomStep(doc, step, row); err != nil {
			f.logger.Debug("custom enrichment step failed",
				zap.String("step", step.diagnosticName()),
				zap.Error(err))
			return enrichWarning(step, err)
		}
	}
	return nil
}

func enrichWarning(step EnrichStep, err error) *FieldWarning {
	return &FieldWarning{
		Kind:   WarningEnrichment,
		Field:  step.Field,
		Column: step.Column,
		Step:   step.diagnosticName(),
		Detail: err.Error(),
	}
}
