package forms

import (
	"github.com/docketforge/mcp-form-filler/internal/forms/acroform"
)

// TemplateSummary is the catalog view of one template.
type TemplateSummary struct {
	ID              string   `json:"id"`
	DisplayName     string   `json:"display_name"`
	NameColumn      string   `json:"name_column"`
	DocumentCount   int      `json:"document_count"`
	Labels          []string `json:"labels"`
	RequiredColumns []string `json:"required_columns"`
}

// TemplateListResult lists the registered templates and the PDF files
// available in the template directory.
type TemplateListResult struct {
	Templates         []TemplateSummary  `json:"templates"`
	TotalCount        int                `json:"total_count"`
	TemplateDirectory string             `json:"template_directory"`
	AvailableFiles    []TemplateFileInfo `json:"available_files,omitempty"`
}

// TemplateInfoRequest asks for the full description of one template.
type TemplateInfoRequest struct {
	TemplateID    string `json:"template_id"`
	IncludeFields bool   `json:"include_fields"`
}

// DocumentInfo describes one output document of a template, including the
// state of its source file on disk.
type DocumentInfo struct {
	Source      string           `json:"source"`
	Label       string           `json:"label"`
	SourcePath  string           `json:"source_path,omitempty"`
	SourceValid bool             `json:"source_valid"`
	SourceError string           `json:"source_error,omitempty"`
	PageCount   int              `json:"page_count,omitempty"`
	Mapping     FieldMapping     `json:"mapping"`
	Enrich      []EnrichStep     `json:"enrich,omitempty"`
	Fields      []acroform.Field `json:"fields,omitempty"`
}

// TemplateInfoResult is the full description of one template.
type TemplateInfoResult struct {
	Template  TemplateSummary `json:"template"`
	Documents []DocumentInfo  `json:"documents"`
}

// RowValidationRequest asks whether a CSV input fits a template. Exactly one
// of CSVPath and CSVContent should be set.
type RowValidationRequest struct {
	TemplateID string `json:"template_id"`
	CSVPath    string `json:"csv_path,omitempty"`
	CSVContent string `json:"csv_content,omitempty"`
}

// RowValidationResult reports the schema fit of a CSV input. Missing
// columns are advisory: absent values are tolerated at fill time and leave
// fields at their template defaults.
type RowValidationResult struct {
	TemplateID      string   `json:"template_id"`
	RowCount        int      `json:"row_count"`
	Columns         []string `json:"columns"`
	RequiredColumns []string `json:"required_columns"`
	MissingColumns  []string `json:"missing_columns,omitempty"`
	UnusedColumns   []string `json:"unused_columns,omitempty"`
	Ready           bool     `json:"ready"`
}

// GenerateRequest starts one batch run. Exactly one of CSVPath and
// CSVContent supplies the rows. OutputName optionally overrides the derived
// archive file name.
type GenerateRequest struct {
	TemplateID string `json:"template_id"`
	CSVPath    string `json:"csv_path,omitempty"`
	CSVContent string `json:"csv_content,omitempty"`
	OutputName string `json:"output_name,omitempty"`
}

// GenerateResult summarizes one finished batch run.
type GenerateResult struct {
	RunID        string        `json:"run_id"`
	TemplateID   string        `json:"template_id"`
	ArchivePath  string        `json:"archive_path"`
	ArchiveName  string        `json:"archive_name"`
	ArchiveSize  int           `json:"archive_size"`
	EntryCount   int           `json:"entry_count"`
	RowCount     int           `json:"row_count"`
	SuccessCount int           `json:"success_count"`
	FailureCount int           `json:"failure_count"`
	WarningCount int           `json:"warning_count"`
	DurationMS   int64         `json:"duration_ms"`
	Units        []UnitOutcome `json:"units,omitempty"`
}

// ToolInfo describes one MCP tool for the server info surface.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}

// ServerInfoResult is the full capability and configuration report.
type ServerInfoResult struct {
	ServerName        string             `json:"server_name"`
	Version           string             `json:"version"`
	TemplateDirectory string             `json:"template_directory"`
	OutputDirectory   string             `json:"output_directory"`
	MaxFileSize       int64              `json:"max_file_size"`
	MaxRows           int                `json:"max_rows"`
	Workers           int                `json:"workers"`
	Templates         []TemplateSummary  `json:"templates"`
	DirectoryContents []TemplateFileInfo `json:"directory_contents"`
	CacheStats        CacheStats         `json:"cache_stats"`
	Counties          []string           `json:"counties"`
	AvailableTools    []ToolInfo         `json:"available_tools"`
	UsageGuidance     string             `json:"usage_guidance"`
}
