package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docketforge/mcp-form-filler/internal/audit"
	"github.com/docketforge/mcp-form-filler/internal/config"
	"github.com/docketforge/mcp-form-filler/internal/forms"
)

// testTemplate is a minimal single-document template for handler tests.
func testTemplate() forms.Template {
	return forms.Template{
		ID:          "test-packet",
		DisplayName: "Test Packet",
		NameColumn:  "Tenant",
		Documents: []forms.OutputDescriptor{
			{
				Source: "complaint.pdf",
				Label:  "complaint",
				Mapping: forms.FieldMapping{
					forms.MapField("Tenant", "Defendant Name"),
					forms.MapField("Landlord", "Plaintiff Name"),
				},
			},
		},
	}
}

func testConfig(templateDir, outputDir string) *config.Config {
	return &config.Config{
		Mode:              "stdio",
		Host:              "127.0.0.1",
		Port:              8080,
		TemplateDirectory: templateDir,
		OutputDirectory:   outputDir,
		Version:           "1.0.0",
		ServerName:        "test-server",
		LogLevel:          "info",
		MaxFileSize:       1024 * 1024,
		MaxRows:           100,
		Workers:           1,
	}
}

func newTestFormService(t *testing.T, cfg *config.Config) *forms.Service {
	t.Helper()

	registry, err := forms.NewRegistry([]forms.Template{testTemplate()})
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}

	formService, err := forms.NewService(forms.ServiceConfig{
		ServerName:        cfg.ServerName,
		Version:           cfg.Version,
		TemplateDirectory: cfg.TemplateDirectory,
		OutputDirectory:   cfg.OutputDirectory,
		MaxFileSize:       cfg.MaxFileSize,
		MaxRows:           cfg.MaxRows,
		Workers:           cfg.Workers,
		Registry:          registry,
	})
	if err != nil {
		t.Fatalf("failed to create form service: %v", err)
	}
	return formService
}

func newTestAuditor(formService *forms.Service) *audit.Auditor {
	return audit.NewAuditor(formService.Registry(), formService.Loader(), nil)
}

func newTestServer(t *testing.T, templateDir, outputDir string) *Server {
	t.Helper()

	cfg := testConfig(templateDir, outputDir)
	formService := newTestFormService(t, cfg)
	auditor := newTestAuditor(formService)

	server, err := NewServer(cfg, formService, auditor)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return server
}

func TestNewServer(t *testing.T) {
	tempDir := t.TempDir()
	cfg := testConfig(tempDir, t.TempDir())
	formService := newTestFormService(t, cfg)
	auditor := newTestAuditor(formService)

	tests := []struct {
		name        string
		config      *config.Config
		service     *forms.Service
		auditor     *audit.Auditor
		expectError bool
	}{
		{
			name:        "valid stdio mode config",
			config:      cfg,
			service:     formService,
			auditor:     auditor,
			expectError: false,
		},
		{
			name: "valid server mode config",
			config: func() *config.Config {
				c := testConfig(tempDir, t.TempDir())
				c.Mode = "server"
				return c
			}(),
			service:     formService,
			auditor:     auditor,
			expectError: false,
		},
		{
			name:        "nil form service",
			config:      cfg,
			service:     nil,
			auditor:     auditor,
			expectError: true,
		},
		{
			name:        "nil auditor",
			config:      cfg,
			service:     formService,
			auditor:     nil,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewServer(tt.config, tt.service, tt.auditor)

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.expectError {
				if server == nil {
					t.Fatal("server should not be nil")
				}
				if server.config != tt.config {
					t.Error("server config not set correctly")
				}
				if server.formService != tt.service {
					t.Error("server formService not set correctly")
				}
				if server.auditor != tt.auditor {
					t.Error("server auditor not set correctly")
				}
				if server.mcpServer == nil {
					t.Error("mcpServer should be initialized")
				}
			}
		})
	}
}

func TestServer_HandleFormListTemplates(t *testing.T) {
	tempDir := t.TempDir()

	// Plant a stub PDF so the directory listing has something to show.
	// The listing is stat-level only, so the content does not need to parse.
	stubFile := filepath.Join(tempDir, "jdf99_complaint.pdf")
	if err := os.WriteFile(stubFile, []byte("%PDF-1.4 stub"), 0o644); err != nil {
		t.Fatalf("failed to create stub file: %v", err)
	}

	server := newTestServer(t, tempDir, t.TempDir())

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{},
		},
	}

	result, err := server.handleFormListTemplates(context.Background(), request)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if result == nil {
		t.Fatal("result should not be nil")
	}

	resultText := extractTextFromResult(result)
	if !strings.Contains(resultText, "Found 1 registered template(s)") {
		t.Errorf("content should mention the registered template count, got: %s", resultText)
	}
	if !strings.Contains(resultText, "test-packet") {
		t.Errorf("content should mention the template identifier, got: %s", resultText)
	}
	if !strings.Contains(resultText, "jdf99_complaint.pdf") {
		t.Errorf("content should mention the stub PDF file, got: %s", resultText)
	}
}

func TestServer_HandleFormTemplateInfo(t *testing.T) {
	server := newTestServer(t, t.TempDir(), t.TempDir())

	t.Run("describes template", func(t *testing.T) {
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]interface{}{
					"template_id": "test-packet",
				},
			},
		}

		result, err := server.handleFormTemplateInfo(context.Background(), request)
		if err != nil {
			t.Fatalf("handler failed: %v", err)
		}

		resultText := extractTextFromResult(result)
		if !strings.Contains(resultText, "Template: test-packet - Test Packet") {
			t.Errorf("content should contain the template header, got: %s", resultText)
		}
		if !strings.Contains(resultText, "complaint (complaint.pdf)") {
			t.Errorf("content should list the document, got: %s", resultText)
		}
		if !strings.Contains(resultText, "Tenant -> Defendant Name") {
			t.Errorf("content should render the mapping, got: %s", resultText)
		}
		// The source file does not exist in the temp directory.
		if !strings.Contains(resultText, "Source error:") {
			t.Errorf("content should report the missing source, got: %s", resultText)
		}
	})

	t.Run("unknown template", func(t *testing.T) {
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]interface{}{
					"template_id": "no-such-packet",
				},
			},
		}

		result, err := server.handleFormTemplateInfo(context.Background(), request)
		if err != nil {
			t.Fatalf("handler failed: %v", err)
		}

		resultText := extractTextFromResult(result)
		if !strings.Contains(resultText, "not registered") {
			t.Errorf("expected unknown-template error, got: %s", resultText)
		}
	})
}

func TestServer_HandleFormAuditTemplate(t *testing.T) {
	server := newTestServer(t, t.TempDir(), t.TempDir())

	// The template source is absent, so the audit reports one error finding
	// per document.
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{
				"template_id": "test-packet",
			},
		},
	}

	result, err := server.handleFormAuditTemplate(context.Background(), request)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	resultText := extractTextFromResult(result)
	if !strings.Contains(resultText, "Audit of template test-packet") {
		t.Errorf("content should contain the audit header, got: %s", resultText)
	}
	if !strings.Contains(resultText, "[error]") {
		t.Errorf("content should contain an error finding, got: %s", resultText)
	}
	if strings.Contains(resultText, "clean") {
		t.Errorf("audit of a missing source should not be clean, got: %s", resultText)
	}
}

func TestServer_HandleFormValidateRows(t *testing.T) {
	server := newTestServer(t, t.TempDir(), t.TempDir())

	t.Run("inline content", func(t *testing.T) {
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]interface{}{
					"template_id": "test-packet",
					"csv_content": "Tenant,Landlord,Extra\nSmith,Acme LLC,x\nJones,Acme LLC,y\n",
				},
			},
		}

		result, err := server.handleFormValidateRows(context.Background(), request)
		if err != nil {
			t.Fatalf("handler failed: %v", err)
		}

		resultText := extractTextFromResult(result)
		if !strings.Contains(resultText, "Row validation for template test-packet") {
			t.Errorf("content should contain the validation header, got: %s", resultText)
		}
		if !strings.Contains(resultText, "Rows: 2") {
			t.Errorf("content should report the row count, got: %s", resultText)
		}
		if !strings.Contains(resultText, "Unused columns: Extra") {
			t.Errorf("content should report the unused column, got: %s", resultText)
		}
		if !strings.Contains(resultText, "Ready:") {
			t.Errorf("content should report readiness, got: %s", resultText)
		}
	})

	t.Run("missing column is advisory", func(t *testing.T) {
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]interface{}{
					"template_id": "test-packet",
					"csv_content": "Tenant\nSmith\n",
				},
			},
		}

		result, err := server.handleFormValidateRows(context.Background(), request)
		if err != nil {
			t.Fatalf("handler failed: %v", err)
		}

		resultText := extractTextFromResult(result)
		if !strings.Contains(resultText, "Missing columns: Landlord") {
			t.Errorf("content should report the missing column, got: %s", resultText)
		}
		if !strings.Contains(resultText, "template defaults") {
			t.Errorf("content should explain the fill-time tolerance, got: %s", resultText)
		}
	})

	t.Run("no input", func(t *testing.T) {
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]interface{}{
					"template_id": "test-packet",
				},
			},
		}

		result, err := server.handleFormValidateRows(context.Background(), request)
		if err != nil {
			t.Fatalf("handler failed: %v", err)
		}

		resultText := extractTextFromResult(result)
		if !strings.Contains(resultText, "no CSV input") {
			t.Errorf("expected missing-input error, got: %s", resultText)
		}
	})
}

func TestServer_HandleFormGeneratePacket(t *testing.T) {
	server := newTestServer(t, t.TempDir(), t.TempDir())

	t.Run("missing template source", func(t *testing.T) {
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]interface{}{
					"template_id": "test-packet",
					"csv_content": "Tenant,Landlord\nSmith,Acme LLC\n",
				},
			},
		}

		result, err := server.handleFormGeneratePacket(context.Background(), request)
		if err != nil {
			t.Fatalf("handler failed: %v", err)
		}

		resultText := extractTextFromResult(result)
		if !strings.Contains(resultText, "failed to load template source") {
			t.Errorf("expected missing-source error, got: %s", resultText)
		}
	})

	t.Run("no input", func(t *testing.T) {
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Arguments: map[string]interface{}{
					"template_id": "test-packet",
				},
			},
		}

		result, err := server.handleFormGeneratePacket(context.Background(), request)
		if err != nil {
			t.Fatalf("handler failed: %v", err)
		}

		resultText := extractTextFromResult(result)
		if !strings.Contains(resultText, "no CSV input") {
			t.Errorf("expected missing-input error, got: %s", resultText)
		}
	})
}

func TestServer_HandleFormServerInfo(t *testing.T) {
	server := newTestServer(t, t.TempDir(), t.TempDir())

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{},
		},
	}

	result, err := server.handleFormServerInfo(context.Background(), request)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	resultText := extractTextFromResult(result)
	if !strings.Contains(resultText, "test-server v1.0.0") {
		t.Errorf("content should contain the server header, got: %s", resultText)
	}
	if !strings.Contains(resultText, "form_generate_packet") {
		t.Errorf("content should list the tools, got: %s", resultText)
	}
	if !strings.Contains(resultText, "Usage Guide") {
		t.Errorf("content should contain the usage guidance, got: %s", resultText)
	}
}

func TestServer_InvalidArguments(t *testing.T) {
	server := newTestServer(t, t.TempDir(), t.TempDir())

	// Test with missing required arguments
	emptyRequest := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{},
		},
	}

	// Test each handler that requires arguments
	handlers := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
	}{
		{"FormTemplateInfo", server.handleFormTemplateInfo},
		{"FormAuditTemplate", server.handleFormAuditTemplate},
		{"FormValidateRows", server.handleFormValidateRows},
		{"FormGeneratePacket", server.handleFormGeneratePacket},
	}

	for _, h := range handlers {
		t.Run(h.name, func(t *testing.T) {
			result, err := h.handler(context.Background(), emptyRequest)
			if err != nil {
				t.Errorf("handler should not return error, got: %v", err)
			}
			if result == nil {
				t.Fatal("result should not be nil")
			}

			// Check if it's an error result
			resultText := extractTextFromResult(result)
			if !strings.Contains(resultText, "required") && !strings.Contains(resultText, "missing") &&
				!strings.Contains(resultText, "error") {
				t.Errorf("expected error message for missing arguments, got: %s", resultText)
			}
		})
	}
}

func TestFormatMethods(t *testing.T) {
	server := newTestServer(t, t.TempDir(), t.TempDir())

	// Test formatTemplateListResult
	listResult := &forms.TemplateListResult{
		Templates: []forms.TemplateSummary{
			{
				ID:              "co-fed-packet",
				DisplayName:     "Colorado FED Eviction Packet",
				NameColumn:      "Tenant",
				DocumentCount:   2,
				Labels:          []string{"complaint", "summons"},
				RequiredColumns: []string{"Tenant", "Landlord"},
			},
		},
		TotalCount:        1,
		TemplateDirectory: "/tmp/forms",
		AvailableFiles: []forms.TemplateFileInfo{
			{
				Name:         "jdf99.pdf",
				Path:         "/tmp/forms/jdf99.pdf",
				Size:         2048,
				ModifiedTime: "2026-08-25 10:30:00",
			},
		},
	}

	formatted := server.formatTemplateListResult(listResult)
	if !strings.Contains(formatted, "Found 1 registered template(s)") {
		t.Error("formatted result should contain template count")
	}
	if !strings.Contains(formatted, "complaint, summons") {
		t.Error("formatted result should contain document labels")
	}
	if !strings.Contains(formatted, "jdf99.pdf") {
		t.Error("formatted result should contain the directory listing")
	}

	// Test formatGenerateResult
	genResult := &forms.GenerateResult{
		RunID:        "run-123",
		TemplateID:   "co-fed-packet",
		ArchivePath:  "/tmp/out/co-fed-packet_2026-08-25.zip",
		ArchiveName:  "co-fed-packet_2026-08-25.zip",
		ArchiveSize:  4096,
		EntryCount:   2,
		RowCount:     2,
		SuccessCount: 2,
		FailureCount: 1,
		WarningCount: 1,
		DurationMS:   42,
		Units: []forms.UnitOutcome{
			{RowIndex: 0, Label: "complaint", OutputName: "Smith_1_complaint.pdf", SizeBytes: 2048},
			{
				RowIndex:   0,
				Label:      "summons",
				OutputName: "Smith_1_summons.pdf",
				SizeBytes:  2048,
				Warnings: []forms.FieldWarning{
					{Kind: forms.WarningFieldMissing, Field: "Ghost", Detail: "field not found"},
				},
			},
			{RowIndex: 1, Label: "complaint", OutputName: "Jones_2_complaint.pdf", Error: "failed to serialize filled document"},
		},
	}

	formatted = server.formatGenerateResult(genResult)
	if !strings.Contains(formatted, "Run ID: run-123") {
		t.Error("formatted result should contain the run identifier")
	}
	if !strings.Contains(formatted, "2 succeeded, 1 failed") {
		t.Error("formatted result should contain the outcome counts")
	}
	if !strings.Contains(formatted, "Jones_2_complaint.pdf (row 2)") {
		t.Error("formatted result should list the failed document")
	}
	if !strings.Contains(formatted, "1 warning(s)") {
		t.Error("formatted result should mention unit warnings")
	}

	// Test formatAuditReport for a clean and a failing report
	cleanReport := &audit.Report{
		TemplateID: "co-fed-packet",
		Documents: []audit.DocumentReport{
			{Source: "jdf99.pdf", Label: "complaint", ScanMode: audit.ScanModeAcroform, FieldCount: 12},
		},
		Clean: true,
	}

	formatted = server.formatAuditReport(cleanReport)
	if !strings.Contains(formatted, "Audit of template co-fed-packet: clean") {
		t.Error("formatted result should report a clean audit")
	}
	if !strings.Contains(formatted, "12 field(s), acroform scan") {
		t.Error("formatted result should contain the document scan line")
	}

	failingReport := &audit.Report{
		TemplateID: "co-fed-packet",
		Documents: []audit.DocumentReport{
			{Source: "jdf99.pdf", Label: "complaint", ScanMode: audit.ScanModeAcroform, FieldCount: 12},
		},
		Findings: []audit.Finding{
			{
				Severity: audit.SeverityError,
				Code:     audit.CodeMappingTarget,
				Label:    "complaint",
				Field:    "Ghost",
				Column:   "Tenant",
				Message:  `mapping target "Ghost" (column "Tenant") not found in the document`,
			},
		},
		ErrorCount: 1,
	}

	formatted = server.formatAuditReport(failingReport)
	if !strings.Contains(formatted, "1 error(s)") {
		t.Error("formatted result should contain the error count")
	}
	if !strings.Contains(formatted, "[error] complaint:") {
		t.Error("formatted result should contain the labeled finding")
	}

	// Test formatRowValidationResult
	validationResult := &forms.RowValidationResult{
		TemplateID:      "co-fed-packet",
		RowCount:        3,
		Columns:         []string{"Tenant"},
		RequiredColumns: []string{"Tenant", "Landlord"},
		MissingColumns:  []string{"Landlord"},
		Ready:           true,
	}

	formatted = server.formatRowValidationResult(validationResult)
	if !strings.Contains(formatted, "Rows: 3") {
		t.Error("formatted result should contain the row count")
	}
	if !strings.Contains(formatted, "Missing columns: Landlord") {
		t.Error("formatted result should contain the missing columns")
	}
	if !strings.Contains(formatted, "template defaults") {
		t.Error("formatted result should explain the fill-time tolerance")
	}

	// Test formatServerInfoResult
	infoResult := &forms.ServerInfoResult{
		ServerName:        "test-server",
		Version:           "1.0.0",
		TemplateDirectory: "/tmp/forms",
		OutputDirectory:   "/tmp/out",
		MaxFileSize:       100 * 1024 * 1024,
		MaxRows:           10000,
		Workers:           2,
		Templates: []forms.TemplateSummary{
			{ID: "co-fed-packet", DisplayName: "Colorado FED Eviction Packet", DocumentCount: 2},
		},
		DirectoryContents: []forms.TemplateFileInfo{
			{Name: "jdf99.pdf", Size: 2048},
		},
		CacheStats: forms.CacheStats{EntryCount: 1, TotalSize: 2048, HitRate: 50},
		Counties:   []string{"adams", "boulder"},
		AvailableTools: []forms.ToolInfo{
			{Name: "form_list_templates", Description: "d", Usage: "u", Parameters: "p"},
		},
		UsageGuidance: "usage guidance text",
	}

	formatted = server.formatServerInfoResult(infoResult)
	if !strings.Contains(formatted, "test-server v1.0.0") {
		t.Error("formatted result should contain the server header")
	}
	if !strings.Contains(formatted, "100 MB max template size, 10000 rows max, 2 worker(s)") {
		t.Error("formatted result should contain the limits line")
	}
	if !strings.Contains(formatted, "adams, boulder") {
		t.Error("formatted result should contain the county list")
	}
	if !strings.Contains(formatted, "form_list_templates") {
		t.Error("formatted result should contain the tool listing")
	}
	if !strings.Contains(formatted, "usage guidance text") {
		t.Error("formatted result should contain the usage guidance")
	}
}

func TestDescribeEnrichStep(t *testing.T) {
	tests := []struct {
		name string
		step forms.EnrichStep
		want string
	}{
		{
			name: "date stamp",
			step: forms.DateStamp("Date"),
			want: `date_stamp -> Date (layout "January 2, 2006")`,
		},
		{
			name: "court address",
			step: forms.CourtAddress("County", "Court Address"),
			want: "court_address: column County -> Court Address",
		},
		{
			name: "copy amount",
			step: forms.CopyAmount("Amount", "Amount Due"),
			want: "copy_amount: column Amount -> Amount Due",
		},
		{
			name: "named custom step",
			step: forms.EnrichStep{Kind: forms.EnrichCustom, Name: "caption"},
			want: `custom step "caption"`,
		},
		{
			name: "unnamed custom step",
			step: forms.EnrichStep{Kind: forms.EnrichCustom},
			want: `custom step "custom"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeEnrichStep(tt.step); got != tt.want {
				t.Errorf("describeEnrichStep() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Helper function to extract text from a CallToolResult
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	// Try to extract text content
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		// Handle pointer to TextContent as well
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}

	return ""
}
