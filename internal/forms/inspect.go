package forms

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/docketforge/mcp-form-filler/internal/forms/acroform"
)

// TemplateInfo describes one template in full, probing each document's
// source file on disk. Problems with a source are reported per document
// rather than failing the whole description.
func (s *Service) TemplateInfo(req TemplateInfoRequest) (*TemplateInfoResult, error) {
	tmpl, ok := s.registry.Resolve(req.TemplateID)
	if !ok {
		return nil, fmt.Errorf("template %q is not registered", req.TemplateID)
	}

	result := &TemplateInfoResult{
		Template:  summarizeTemplate(tmpl),
		Documents: make([]DocumentInfo, 0, len(tmpl.Documents)),
	}

	for _, doc := range tmpl.Documents {
		info := DocumentInfo{
			Source:  doc.Source,
			Label:   doc.Label,
			Mapping: doc.Mapping,
			Enrich:  doc.Enrich,
		}
		s.probeSource(&info, doc.Source, req.IncludeFields)
		result.Documents = append(result.Documents, info)
	}
	return result, nil
}

// probeSource fills the on-disk state of one document source.
func (s *Service) probeSource(info *DocumentInfo, source string, includeFields bool) {
	path, err := s.loader.Resolve(source)
	if err != nil {
		info.SourceError = err.Error()
		return
	}
	info.SourcePath = path

	if err := s.loader.Validate(source); err != nil {
		info.SourceError = err.Error()
		return
	}
	info.SourceValid = true

	if pages, err := s.loader.PageCount(source); err == nil {
		info.PageCount = pages
	}

	if !includeFields {
		return
	}
	data, err := s.loader.Load(source)
	if err != nil {
		info.SourceError = err.Error()
		return
	}
	doc, err := acroform.Load(data)
	if err != nil {
		// The file passed validation but its form tree did not parse;
		// surface that without hiding the otherwise valid source.
		info.SourceError = fmt.Sprintf("field enumeration failed: %v", err)
		s.logger.Debug("field enumeration failed",
			zap.String("source", source),
			zap.Error(err))
		return
	}
	info.Fields = doc.Fields()
}
