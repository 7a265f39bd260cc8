package forms

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/docketforge/mcp-form-filler/internal/descriptions"
	"github.com/docketforge/mcp-form-filler/internal/forms/rowset"
)

// ServiceConfig wires a Service. Only the directories are mandatory; every
// other field has a production default.
type ServiceConfig struct {
	ServerName        string
	Version           string
	TemplateDirectory string
	OutputDirectory   string
	MaxFileSize       int64
	MaxRows           int
	Workers           int
	Logger            *zap.Logger
	Now               func() time.Time

	// Registry and Courts override the built-in catalog and county
	// directory, mainly for tests.
	Registry *Registry
	Courts   *CourtDirectory
}

// Service is the façade the MCP server and the CLI drive: template catalog,
// template inspection, row validation, and packet generation.
type Service struct {
	serverName  string
	version     string
	registry    *Registry
	loader      *TemplateLoader
	courts      *CourtDirectory
	batch       *Batch
	outGuard    *PathGuard
	maxFileSize int64
	maxRows     int
	workers     int
	logger      *zap.Logger
}

// NewService builds the full pipeline behind one façade.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.TemplateDirectory == "" {
		return nil, fmt.Errorf("template directory cannot be empty")
	}
	if cfg.OutputDirectory == "" {
		return nil, fmt.Errorf("output directory cannot be empty")
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultTemplateLoaderConfig().MaxFileSize
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = DefaultBatchConfig().MaxRows
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultBatchConfig().Workers
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	registry := cfg.Registry
	if registry == nil {
		var err error
		registry, err = NewRegistry(BuiltinTemplates())
		if err != nil {
			return nil, fmt.Errorf("failed to build template registry: %w", err)
		}
	}
	courts := cfg.Courts
	if courts == nil {
		courts = DefaultCourtDirectory()
	}

	loader, err := NewTemplateLoader(cfg.TemplateDirectory, TemplateLoaderConfig{
		MaxFileSize: cfg.MaxFileSize,
		Logger:      cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create template loader: %w", err)
	}

	outGuard, err := NewPathGuard(cfg.OutputDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create output path guard: %w", err)
	}

	filler := NewFiller(AcroformFactory, FillerConfig{
		Courts: courts,
		Now:    cfg.Now,
		Logger: cfg.Logger,
	})
	batch := NewBatch(registry, loader, filler, BatchConfig{
		Workers: cfg.Workers,
		MaxRows: cfg.MaxRows,
		Now:     cfg.Now,
		Logger:  cfg.Logger,
	})

	return &Service{
		serverName:  cfg.ServerName,
		version:     cfg.Version,
		registry:    registry,
		loader:      loader,
		courts:      courts,
		batch:       batch,
		outGuard:    outGuard,
		maxFileSize: cfg.MaxFileSize,
		maxRows:     cfg.MaxRows,
		workers:     cfg.Workers,
		logger:      cfg.Logger,
	}, nil
}

// Registry exposes the template catalog.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Loader exposes the template loader.
func (s *Service) Loader() *TemplateLoader {
	return s.loader
}

// ListTemplates returns the catalog plus the PDFs present in the template
// directory. A missing or unreadable directory degrades the file listing,
// not the catalog.
func (s *Service) ListTemplates() (*TemplateListResult, error) {
	result := &TemplateListResult{
		TemplateDirectory: s.loader.Root(),
	}
	for _, tmpl := range s.registry.Templates() {
		result.Templates = append(result.Templates, summarizeTemplate(tmpl))
	}
	result.TotalCount = len(result.Templates)

	files, err := ScanTemplateDirectory(s.loader.Root(), s.loader.Validator(), 100)
	if err != nil {
		s.logger.Debug("template directory scan failed", zap.Error(err))
	} else {
		result.AvailableFiles = files
	}
	return result, nil
}

// ValidateRows parses a CSV input and reports how it fits one template.
func (s *Service) ValidateRows(req RowValidationRequest) (*RowValidationResult, error) {
	tmpl, ok := s.registry.Resolve(req.TemplateID)
	if !ok {
		return nil, fmt.Errorf("template %q is not registered", req.TemplateID)
	}

	table, err := s.readRows(req.CSVPath, req.CSVContent)
	if err != nil {
		return nil, err
	}

	required := tmpl.RequiredColumns()
	result := &RowValidationResult{
		TemplateID:      tmpl.ID,
		RowCount:        table.RowCount(),
		Columns:         table.Columns,
		RequiredColumns: required,
		Ready:           table.RowCount() > 0,
	}

	have := make(map[string]bool, len(table.Columns))
	for _, column := range table.Columns {
		have[column] = true
	}
	for _, column := range required {
		if !have[column] {
			result.MissingColumns = append(result.MissingColumns, column)
		}
	}
	wanted := make(map[string]bool, len(required))
	for _, column := range required {
		wanted[column] = true
	}
	for _, column := range table.Columns {
		if !wanted[column] {
			result.UnusedColumns = append(result.UnusedColumns, column)
		}
	}
	return result, nil
}

// GeneratePacket runs one batch and writes the archive into the output
// directory. The run result lives only long enough to be written out.
func (s *Service) GeneratePacket(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	table, err := s.readRows(req.CSVPath, req.CSVContent)
	if err != nil {
		return nil, err
	}

	run, err := s.batch.Run(ctx, req.TemplateID, table)
	if err != nil {
		return nil, err
	}

	archiveName := run.ArchiveName
	if req.OutputName != "" {
		archiveName = req.OutputName
		if !strings.HasSuffix(strings.ToLower(archiveName), ".zip") {
			archiveName += ".zip"
		}
	}

	if _, err := s.outGuard.EnsureDir("."); err != nil {
		return nil, fmt.Errorf("output directory unavailable: %w", err)
	}
	archivePath, err := s.outGuard.Resolve(archiveName)
	if err != nil {
		return nil, fmt.Errorf("invalid archive name: %w", err)
	}
	if err := os.WriteFile(archivePath, run.Archive, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write archive: %w", err)
	}

	s.logger.Info("wrote archive",
		zap.String("run_id", run.RunID),
		zap.String("path", archivePath),
		zap.Int("entries", run.SuccessCount))

	return &GenerateResult{
		RunID:        run.RunID,
		TemplateID:   run.TemplateID,
		ArchivePath:  archivePath,
		ArchiveName:  filepath.Base(archivePath),
		ArchiveSize:  len(run.Archive),
		EntryCount:   run.SuccessCount,
		RowCount:     run.RowCount,
		SuccessCount: run.SuccessCount,
		FailureCount: run.FailureCount,
		WarningCount: run.WarningCount,
		DurationMS:   run.DurationMS,
		Units:        run.Units,
	}, nil
}

// readRows parses the row source: inline content wins over a path.
func (s *Service) readRows(path, content string) (*rowset.Table, error) {
	switch {
	case content != "":
		return rowset.ReadCSV(strings.NewReader(content))
	case path != "":
		return rowset.ReadCSVFile(path)
	default:
		return nil, fmt.Errorf("no CSV input: provide a path or inline content")
	}
}

func summarizeTemplate(tmpl Template) TemplateSummary {
	labels := make([]string, len(tmpl.Documents))
	for i, doc := range tmpl.Documents {
		labels[i] = doc.Label
	}
	return TemplateSummary{
		ID:              tmpl.ID,
		DisplayName:     tmpl.DisplayName,
		NameColumn:      tmpl.NameColumn,
		DocumentCount:   len(tmpl.Documents),
		Labels:          labels,
		RequiredColumns: tmpl.RequiredColumns(),
	}
}

// ServerInfo assembles the capability report for the server info tool.
func (s *Service) ServerInfo() (*ServerInfoResult, error) {
	result := &ServerInfoResult{
		ServerName:        s.serverName,
		Version:           s.version,
		TemplateDirectory: s.loader.Root(),
		OutputDirectory:   s.outGuard.Root(),
		MaxFileSize:       s.maxFileSize,
		MaxRows:           s.maxRows,
		Workers:           s.workers,
		CacheStats:        s.loader.CacheStats(),
		Counties:          s.courts.Counties(),
		AvailableTools:    availableTools(),
		UsageGuidance:     s.usageGuidance(),
	}

	for _, tmpl := range s.registry.Templates() {
		result.Templates = append(result.Templates, summarizeTemplate(tmpl))
	}
	sort.Slice(result.Templates, func(i, j int) bool {
		return result.Templates[i].ID < result.Templates[j].ID
	})

	files, err := ScanTemplateDirectory(s.loader.Root(), s.loader.Validator(), 100)
	if err != nil {
		result.DirectoryContents = []TemplateFileInfo{}
	} else {
		result.DirectoryContents = files
	}
	return result, nil
}

func availableTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "form_list_templates",
			Description: descriptions.GetToolDescription("form_list_templates"),
			Usage:       "Use this tool first to discover which template identifiers are available for generation.",
			Parameters:  "No parameters required",
		},
		{
			Name:        "form_template_info",
			Description: descriptions.GetToolDescription("form_template_info"),
			Usage:       "Use this tool to inspect a template before generating, including the interactive fields of each source PDF.",
			Parameters:  "template_id (required), include_fields (optional): set true to enumerate PDF fields",
		},
		{
			Name:        "form_audit_template",
			Description: descriptions.GetToolDescription("form_audit_template"),
			Usage:       "Use this tool to find mapping targets that are missing or of the wrong kind before running a batch.",
			Parameters:  "template_id (required)",
		},
		{
			Name:        "form_validate_rows",
			Description: descriptions.GetToolDescription("form_validate_rows"),
			Usage:       "Use this tool to preview row count and column coverage. Missing columns are tolerated at fill time.",
			Parameters:  "template_id (required), csv_path or csv_content (one required)",
		},
		{
			Name:        "form_generate_packet",
			Description: descriptions.GetToolDescription("form_generate_packet"),
			Usage:       "Use this tool to run the batch. The result reports per-document outcomes and the archive path.",
			Parameters:  "template_id (required), csv_path or csv_content (one required), output_name (optional)",
		},
		{
			Name:        "form_server_info",
			Description: descriptions.GetToolDescription("form_server_info"),
			Usage:       "Use this tool to get capabilities, limits, and the known county directory.",
			Parameters:  "No parameters required",
		},
	}
}

func (s *Service) usageGuidance() string {
	return fmt.Sprintf(`Form Filler MCP Server Usage Guide:

1. DISCOVER TEMPLATES:
   - Use 'form_list_templates' to see registered templates and available PDF files
   - Use 'form_template_info' to inspect a template's documents and mappings

2. CHECK INPUTS:
   - Use 'form_audit_template' to verify mapping targets against the source PDFs
   - Use 'form_validate_rows' to preview how a CSV fits a template

3. GENERATE:
   - Use 'form_generate_packet' with a template_id and CSV input
   - Every row produces one filled PDF per template document
   - Successful documents are bundled into a single zip archive

4. INTERPRET RESULTS:
   - 'success_count' and 'failure_count' report per-document outcomes
   - Warnings list fields that were skipped, never values that were blanked
   - A row missing a column simply leaves those fields at their template defaults

IMPORTANT NOTES:
- Template sources are confined to the configured template directory
- Archives are written to the configured output directory
- The server accepts template files up to %dMB and inputs up to %d rows
- Checkbox columns are checked by "true", "yes", or "1" in any casing`, s.maxFileSize/(1024*1024), s.maxRows)
}
